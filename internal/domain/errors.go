package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks pre-flight failures that abort a component before
	// any network call is made.
	ErrConfiguration = errors.New("configuration error")

	// ErrSearchBackend marks a failed search backend call for one strategy.
	ErrSearchBackend = errors.New("search backend error")
)

// ConfigurationError reports a missing or inconsistent setting.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Component: component,
		Reason:    fmt.Sprintf(format, args...),
	}
}

// SearchBackendError wraps a failed backend call. StatusCode is zero when the
// call never produced an HTTP response (timeout, connection refused).
type SearchBackendError struct {
	Strategy   Strategy
	StatusCode int
	Err        error
}

func (e *SearchBackendError) Error() string {
	msg := "search backend error"
	if e.Strategy != "" {
		msg = fmt.Sprintf("%s (strategy %s)", msg, e.Strategy)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SearchBackendError) Unwrap() error {
	return e.Err
}

func (e *SearchBackendError) Is(target error) bool {
	return target == ErrSearchBackend
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsSearchBackend reports whether err is a search backend error.
func IsSearchBackend(err error) bool {
	return errors.Is(err, ErrSearchBackend)
}
