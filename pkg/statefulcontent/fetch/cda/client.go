// Package cda implements statefulcontent.Fetcher against the Contentful
// Content Delivery API and Content Preview API over HTTP.
package cda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

// API hosts.
const (
	DeliveryHost = "cdn.contentful.com"
	PreviewHost  = "preview.contentful.com"
)

// DefaultEnvironment is the Contentful environment used when none is set.
const DefaultEnvironment = "master"

// Config holds the credentials of one API mode.
type Config struct {
	SpaceID     string
	Environment string
	AccessToken string
	Mode        statefulcontent.APIMode
	// Host overrides the API host derived from Mode
	Host string
	// Scheme defaults to https
	Scheme string
}

// Client fetches entries from one Contentful API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	cfg        Config
	userAgent  string
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit caps outgoing requests per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.SpaceID == "" {
		return nil, errors.New("space id is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required for %s api", cfg.Mode)
	}
	if cfg.Mode == "" {
		cfg.Mode = statefulcontent.APIModeDelivery
	}
	if cfg.Environment == "" {
		cfg.Environment = DefaultEnvironment
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.Host == "" {
		cfg.Host = DeliveryHost
		if cfg.Mode == statefulcontent.APIModePreview {
			cfg.Host = PreviewHost
		}
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Contentful allows 55 req/s on the CDA and 14 on the CPA
		limiter:   rate.NewLimiter(rate.Limit(14), 5),
		cfg:       cfg,
		baseURL:   fmt.Sprintf("%s://%s/spaces/%s/environments/%s", cfg.Scheme, cfg.Host, cfg.SpaceID, cfg.Environment),
		userAgent: "stateful-content",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mode returns the API mode the client is bound to.
func (c *Client) Mode() statefulcontent.APIMode { return c.cfg.Mode }

// FetchEntries implements statefulcontent.Fetcher.
func (c *Client) FetchEntries(ctx context.Context, query statefulcontent.Query) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &statefulcontent.FetchError{Mode: c.cfg.Mode, Err: err}
		}
	}

	url := c.baseURL + "/entries?" + query.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &statefulcontent.FetchError{Mode: c.cfg.Mode, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/vnd.contentful.delivery.v1+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &statefulcontent.FetchError{Mode: c.cfg.Mode, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &statefulcontent.FetchError{Mode: c.cfg.Mode, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFromResponse(resp, body)
	}
	return body, nil
}

func (c *Client) errorFromResponse(resp *http.Response, body []byte) error {
	fe := &statefulcontent.FetchError{Mode: c.cfg.Mode, StatusCode: resp.StatusCode}

	var apiErr struct {
		Message string `json:"message"`
		Sys     struct {
			ID string `json:"id"`
		} `json:"sys"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		fe.Message = apiErr.Message
		if fe.Message == "" {
			fe.Message = apiErr.Sys.ID
		}
	}
	if fe.Message == "" {
		fe.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		fe.RateLimited = true
		if reset, err := strconv.Atoi(resp.Header.Get("X-Contentful-RateLimit-Reset")); err == nil {
			fe.RetryAfter = time.Duration(reset) * time.Second
		}
	}
	return fe
}
