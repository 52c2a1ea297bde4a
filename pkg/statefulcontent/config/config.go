package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
	"github.com/tendant/stateful-content/pkg/statefulcontent/fetch/cda"
	"github.com/tendant/stateful-content/pkg/statefulcontent/fetch/memory"
)

// Fetch backends.
const (
	BackendCDA    = "cda"
	BackendMemory = "memory"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		Backend:            BackendMemory,
		ContentEnvironment: cda.DefaultEnvironment,
		APIMode:            statefulcontent.APIModeDelivery,
		Locale:             statefulcontent.DefaultLocale,
		IncludeDepth:       statefulcontent.DefaultInclude,
		RateLimit:          14,
		RateBurst:          5,
		Timeout:            30 * time.Second,
		MaxConcurrency:     4,
	}
}

// ServerConfig represents configuration for the content service.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Fetch backend: "cda" talks to Contentful, "memory" serves fixtures
	Backend      string
	FixturesPath string

	// Contentful credentials
	SpaceID            string
	ContentEnvironment string
	DeliveryToken      string
	PreviewToken       string

	// Initial session
	APIMode           statefulcontent.APIMode
	Locale            string
	EditorialFeatures bool

	IncludeDepth   int
	RateLimit      float64
	RateBurst      int
	Timeout        time.Duration
	MaxConcurrency int
}

// Validate validates the configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Backend {
	case BackendMemory:
	case BackendCDA:
		if c.SpaceID == "" {
			return errors.New("space_id is required when using the cda backend")
		}
		if c.DeliveryToken == "" {
			return errors.New("delivery_token is required when using the cda backend")
		}
		if c.APIMode == statefulcontent.APIModePreview && c.PreviewToken == "" {
			return errors.New("preview_token is required for preview mode")
		}
	default:
		return fmt.Errorf("backend must be '%s' or '%s'", BackendCDA, BackendMemory)
	}

	if _, err := statefulcontent.ParseAPIMode(string(c.APIMode)); err != nil {
		return err
	}
	if c.IncludeDepth < 0 || c.IncludeDepth > statefulcontent.MaxInclude {
		return fmt.Errorf("include_depth must be between 0 and %d", statefulcontent.MaxInclude)
	}
	if c.Locale == "" {
		return errors.New("locale is required")
	}

	return nil
}

// Session returns the initial session described by the configuration.
func (c *ServerConfig) Session() statefulcontent.Session {
	return statefulcontent.Session{
		APIMode:           c.APIMode,
		Locale:            c.Locale,
		EditorialFeatures: c.EditorialFeatures,
	}
}

// BuildService creates a Service from the configuration. Extra options are
// applied after the configured ones.
func (c *ServerConfig) BuildService(extra ...statefulcontent.Option) (*statefulcontent.Service, error) {
	preview, delivery, err := c.buildFetchers()
	if err != nil {
		return nil, fmt.Errorf("failed to build fetchers: %w", err)
	}

	options := []statefulcontent.Option{
		statefulcontent.WithDeliveryFetcher(delivery),
		statefulcontent.WithSession(statefulcontent.NewSessionContext(c.Session())),
		statefulcontent.WithIncludeDepth(c.IncludeDepth),
		statefulcontent.WithMaxConcurrency(c.MaxConcurrency),
	}
	if preview != nil {
		options = append(options, statefulcontent.WithPreviewFetcher(preview))
	}
	if c.Environment == "development" {
		options = append(options, statefulcontent.WithMetrics(statefulcontent.NewLoggingMetrics(slog.Default())))
	}
	options = append(options, extra...)

	return statefulcontent.New(options...)
}

// buildFetchers returns the preview fetcher (nil when not configured) and
// the delivery fetcher.
func (c *ServerConfig) buildFetchers() (statefulcontent.Fetcher, statefulcontent.Fetcher, error) {
	switch c.Backend {
	case BackendMemory:
		if c.FixturesPath == "" {
			return memory.NewSpace(), memory.NewSpace(), nil
		}
		f, err := os.Open(c.FixturesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open fixtures: %w", err)
		}
		defer f.Close()
		preview, delivery, err := memory.LoadFixtures(f)
		if err != nil {
			return nil, nil, err
		}
		return preview, delivery, nil

	case BackendCDA:
		httpOpts := []cda.ClientOption{
			cda.WithRateLimit(c.RateLimit, c.RateBurst),
		}
		if c.Timeout > 0 {
			httpOpts = append(httpOpts, cda.WithHTTPClient(newHTTPClient(c.Timeout)))
		}
		delivery, err := cda.NewClient(cda.Config{
			SpaceID:     c.SpaceID,
			Environment: c.ContentEnvironment,
			AccessToken: c.DeliveryToken,
			Mode:        statefulcontent.APIModeDelivery,
		}, httpOpts...)
		if err != nil {
			return nil, nil, err
		}
		if c.PreviewToken == "" {
			return nil, delivery, nil
		}
		preview, err := cda.NewClient(cda.Config{
			SpaceID:     c.SpaceID,
			Environment: c.ContentEnvironment,
			AccessToken: c.PreviewToken,
			Mode:        statefulcontent.APIModePreview,
		}, httpOpts...)
		if err != nil {
			return nil, nil, err
		}
		return preview, delivery, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend: %s", c.Backend)
	}
}
