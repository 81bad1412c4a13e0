package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wudi/tesskit/tess"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted logging.format values.
func ValidLogFormats() []string {
	return []string{"json", "console"}
}

// ValidEngines returns the accepted engine values.
func ValidEngines() []string {
	return []string{EngineNative, EngineGosseract}
}

// Validate checks the Config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(c.Language) == "" {
		add("language", c.Language, "must not be empty")
	}
	if !tess.EngineMode(c.EngineMode).Valid() {
		add("engine_mode", c.EngineMode, "must be between 0 and 3")
	}
	if !tess.PageSegMode(c.PageSegMode).Valid() {
		add("page_seg_mode", c.PageSegMode, "must be between 0 and 13")
	}
	if !slices.Contains(ValidEngines(), c.Engine) {
		add("engine", c.Engine, "must be one of "+strings.Join(ValidEngines(), ", "))
	}
	if c.Pool.Size < 1 {
		add("pool.size", c.Pool.Size, "must be at least 1")
	}
	if c.Pool.AcquireTimeout < 0 {
		add("pool.acquire_timeout", c.Pool.AcquireTimeout, "must not be negative")
	}
	if c.Process.TimeoutMs < 0 {
		add("process.timeout_ms", c.Process.TimeoutMs, "must not be negative")
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		add("logging.level", c.Logging.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		add("logging.format", c.Logging.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}
	for name := range c.Variables {
		if strings.TrimSpace(name) == "" {
			add("variables", name, "variable names must not be empty")
		}
	}
	return errs
}
