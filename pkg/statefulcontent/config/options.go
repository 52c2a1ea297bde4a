package config

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

// WithPort sets the server port.
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing).
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithSpace selects the Contentful backend for a space and its tokens.
// The preview token may be empty when preview mode is never used.
func WithSpace(spaceID, deliveryToken, previewToken string) Option {
	return func(c *ServerConfig) error {
		if spaceID == "" {
			return fmt.Errorf("space id cannot be empty")
		}
		c.Backend = BackendCDA
		c.SpaceID = spaceID
		c.DeliveryToken = deliveryToken
		c.PreviewToken = previewToken
		return nil
	}
}

// WithContentEnvironment sets the Contentful environment (default: master).
func WithContentEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.ContentEnvironment = env
		return nil
	}
}

// WithFixtures selects the memory backend loaded from a fixtures file.
func WithFixtures(path string) Option {
	return func(c *ServerConfig) error {
		c.Backend = BackendMemory
		c.FixturesPath = path
		return nil
	}
}

// WithAPIMode sets the initial API mode.
func WithAPIMode(mode string) Option {
	return func(c *ServerConfig) error {
		m, err := statefulcontent.ParseAPIMode(mode)
		if err != nil {
			return err
		}
		c.APIMode = m
		return nil
	}
}

// WithLocale sets the initial locale.
func WithLocale(locale string) Option {
	return func(c *ServerConfig) error {
		if locale == "" {
			return fmt.Errorf("locale cannot be empty")
		}
		c.Locale = locale
		return nil
	}
}

// WithEditorialFeatures enables state resolution in preview mode.
func WithEditorialFeatures(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EditorialFeatures = enabled
		return nil
	}
}

// WithIncludeDepth sets the link depth of course queries.
func WithIncludeDepth(depth int) Option {
	return func(c *ServerConfig) error {
		if depth < 0 || depth > statefulcontent.MaxInclude {
			return fmt.Errorf("include depth must be between 0 and %d, got: %d", statefulcontent.MaxInclude, depth)
		}
		c.IncludeDepth = depth
		return nil
	}
}

// WithRateLimit caps requests per second against each Contentful API.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *ServerConfig) error {
		c.RateLimit = rps
		c.RateBurst = burst
		return nil
	}
}

// WithTimeout sets the HTTP timeout of Contentful requests.
func WithTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		c.Timeout = d
		return nil
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
