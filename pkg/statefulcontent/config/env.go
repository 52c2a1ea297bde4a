package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Server:
//   PORT - Server port (default: "8080")
//   ENVIRONMENT - Runtime environment (default: "development")
//
// Contentful:
//   CONTENTFUL_SPACE_ID - Space id; when set the cda backend is used
//   CONTENTFUL_ENVIRONMENT - Environment (default: "master")
//   CONTENTFUL_DELIVERY_TOKEN - Content Delivery API token
//   CONTENTFUL_PREVIEW_TOKEN - Content Preview API token
//   FIXTURES_PATH - JSON fixtures for the memory backend
//
// Session:
//   API_MODE - "delivery" or "preview" (default: "delivery")
//   LOCALE - Locale code (default: "en-US")
//   EDITORIAL_FEATURES - Resolve entry state in preview mode
//
// Tuning:
//   INCLUDE_DEPTH, RATE_LIMIT, RATE_BURST, HTTP_TIMEOUT
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		applyBackendEnv(prefix, c)

		if v, ok := lookupEnv(prefix, "API_MODE"); ok && v != "" {
			if err := WithAPIMode(v)(c); err != nil {
				return fmt.Errorf("invalid %sAPI_MODE: %w", prefix, err)
			}
		}
		if v, ok := lookupEnv(prefix, "LOCALE"); ok && v != "" {
			c.Locale = v
		}
		if b, ok, err := parseBoolEnv(prefix, "EDITORIAL_FEATURES"); err != nil {
			return err
		} else if ok {
			c.EditorialFeatures = b
		}

		if n, ok, err := parseIntEnv(prefix, "INCLUDE_DEPTH"); err != nil {
			return err
		} else if ok {
			c.IncludeDepth = n
		}
		if n, ok, err := parseIntEnv(prefix, "RATE_BURST"); err != nil {
			return err
		} else if ok {
			c.RateBurst = n
		}
		if raw, ok := lookupEnv(prefix, "RATE_LIMIT"); ok && raw != "" {
			rps, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid number for %sRATE_LIMIT: %w", prefix, err)
			}
			c.RateLimit = rps
		}
		if raw, ok := lookupEnv(prefix, "HTTP_TIMEOUT"); ok && raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("invalid duration for %sHTTP_TIMEOUT: %w", prefix, err)
			}
			c.Timeout = d
		}

		return nil
	}
}

// applyBackendEnv picks the fetch backend from the environment
func applyBackendEnv(prefix string, c *ServerConfig) {
	if v, ok := lookupEnv(prefix, "CONTENTFUL_ENVIRONMENT"); ok && v != "" {
		c.ContentEnvironment = v
	}
	if v, ok := lookupEnv(prefix, "CONTENTFUL_DELIVERY_TOKEN"); ok {
		c.DeliveryToken = v
	}
	if v, ok := lookupEnv(prefix, "CONTENTFUL_PREVIEW_TOKEN"); ok {
		c.PreviewToken = v
	}

	if v, ok := lookupEnv(prefix, "CONTENTFUL_SPACE_ID"); ok && v != "" {
		c.Backend = BackendCDA
		c.SpaceID = v
		return
	}
	if v, ok := lookupEnv(prefix, "FIXTURES_PATH"); ok && v != "" {
		c.Backend = BackendMemory
		c.FixturesPath = v
	}
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func parseBoolEnv(prefix, key string) (bool, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("invalid boolean for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}

func parseIntEnv(prefix, key string) (int, bool, error) {
	raw, ok := lookupEnv(prefix, key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid integer for %s%s: %w", prefix, key, err)
	}
	return parsed, true, nil
}
