package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validQualities = map[string]bool{
	"auto": true, "low": true, "medium": true, "high": true,
}

var validFormats = map[string]bool{"json": true, "text": true}

// ValidateClient checks the client configuration for errors.
// Returns nil if valid, or an error describing every problem.
func ValidateClient(cfg *ClientConfig) error {
	var errs []error

	if cfg.ServerURL == "" {
		errs = append(errs, ValidationError{
			Field:   "server",
			Message: "backend URL is required",
		})
	} else if err := validateURL(cfg.ServerURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server",
			Message: err.Error(),
		})
	}

	if !validQualities[cfg.Quality] {
		errs = append(errs, ValidationError{
			Field:   "quality",
			Message: fmt.Sprintf("must be one of: auto, low, medium, high (got %q)", cfg.Quality),
		})
	}

	if cfg.IndicatorDebounce <= 0 {
		errs = append(errs, ValidationError{
			Field:   "debounce",
			Message: "must be positive",
		})
	}

	if cfg.StallSpeed <= 0 || cfg.StallSpeed >= 1.0 {
		errs = append(errs, ValidationError{
			Field:   "stall_speed",
			Message: fmt.Sprintf("must be between 0 and 1 (got %v)", cfg.StallSpeed),
		})
	}
	if cfg.StallAfter <= 0 {
		errs = append(errs, ValidationError{
			Field:   "stall_after",
			Message: "must be positive",
		})
	}

	if cfg.StatsInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "stats_interval",
			Message: "must be positive",
		})
	}
	// The window needs at least two polls for meaningful percentiles.
	if cfg.StatsWindow < 2*cfg.StatsInterval {
		errs = append(errs, ValidationError{
			Field:   "stats_window",
			Message: fmt.Sprintf("must be at least 2x the poll interval (%v), got %v", 2*cfg.StatsInterval, cfg.StatsWindow),
		})
	}

	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateServer checks the server configuration for errors.
func ValidateServer(cfg *ServerConfig) error {
	var errs []error

	if cfg.ListenAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "listen",
			Message: "listen address is required",
		})
	}
	if cfg.VideoDir == "" {
		errs = append(errs, ValidationError{
			Field:   "data_dir",
			Message: "data directory is required",
		})
	}
	if cfg.DBPath == "" {
		errs = append(errs, ValidationError{
			Field:   "db",
			Message: "database path is required",
		})
	}

	if cfg.QueueSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "queue",
			Message: "must be at least 1",
		})
	}
	if cfg.MaxAttempts < 1 {
		errs = append(errs, ValidationError{
			Field:   "max_attempts",
			Message: "must be at least 1",
		})
	}

	if cfg.BackoffInitial <= 0 {
		errs = append(errs, ValidationError{
			Field:   "backoff_initial",
			Message: "must be positive",
		})
	}
	if cfg.BackoffMax < cfg.BackoffInitial {
		errs = append(errs, ValidationError{
			Field:   "backoff_max",
			Message: "must be >= backoff_initial",
		})
	}
	if cfg.BackoffMultiply < 1.0 {
		errs = append(errs, ValidationError{
			Field:   "backoff_multiply",
			Message: "must be >= 1.0",
		})
	}

	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// validateURL checks if the URL is valid and uses http or https.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https (got %q)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must have a host")
	}
	return nil
}
