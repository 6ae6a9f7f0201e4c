package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MinInterval is the shortest interval a DHT22 tolerates between reads.
const MinInterval = 2 * time.Second

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
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks c and returns every problem found.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Chip == "" {
		errs = append(errs, ValidationError{Field: "chip", Value: c.Chip, Message: "must not be empty"})
	}
	if c.Line < 0 {
		errs = append(errs, ValidationError{Field: "line", Value: c.Line, Message: "must not be negative"})
	}
	if c.Interval < MinInterval {
		errs = append(errs, ValidationError{Field: "interval", Value: c.Interval, Message: fmt.Sprintf("must be at least %v", MinInterval)})
	}
	if c.WakeDelay <= 0 {
		errs = append(errs, ValidationError{Field: "wake_delay", Value: c.WakeDelay, Message: "must be positive"})
	}
	if c.PollTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "poll_timeout", Value: c.PollTimeout, Message: "must be positive"})
	}
	if c.Heartbeat < 0 {
		errs = append(errs, ValidationError{Field: "heartbeat", Value: c.Heartbeat, Message: "must not be negative"})
	}
	if c.Broker == "" {
		errs = append(errs, ValidationError{Field: "broker", Value: c.Broker, Message: "must not be empty"})
	}
	if !slices.Contains(ValidLogLevels(), c.LogLevel) {
		errs = append(errs, ValidationError{Field: "log_level", Value: c.LogLevel, Message: "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	return errs
}
