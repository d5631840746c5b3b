package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within
// acceptable ranges and returns the first error encountered, or nil if
// valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.MaxFileSize <= 0 {
		return ErrInvalidMaxFileSize
	}

	if cfg.DefaultRetentionDays <= 0 {
		return ErrInvalidRetention
	}

	if cfg.RecordCapacity <= 0 {
		return ErrInvalidRecordCapacity
	}

	for _, ep := range cfg.Endpoints {
		if err := validateEndpoint(ep); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidEndpoint, ep, err)
		}
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateEndpoint checks that ep is an absolute http(s) URL.
func validateEndpoint(ep string) error {
	u, err := url.Parse(ep)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
