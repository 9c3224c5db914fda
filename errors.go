package cacheable

import (
	"errors"
	"fmt"
)

var (
	ErrProviderRequired = errors.New("cacheable: provider is required")
	ErrNotRegistered    = errors.New("cacheable: operation not registered")

	// ErrUncacheable is returned by Signature when the target has no stable
	// identity. Decorated calls on such targets run uncached.
	ErrUncacheable = errors.New("cacheable: target has no cache identity")
)

// ConfigError reports invalid options or policies. It is returned at
// construction or registration time, never from a decorated call.
type ConfigError struct {
	Op    string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cacheable: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cacheable: %s %q: %v", e.Op, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InvalidateError is returned when the shared store fails to delete a key.
// The request memo has already been cleared when this is returned.
type InvalidateError struct {
	Key string
	Err error
}

func (e *InvalidateError) Error() string {
	return fmt.Sprintf("cacheable: invalidate %q: %v", e.Key, e.Err)
}

func (e *InvalidateError) Unwrap() error { return e.Err }
