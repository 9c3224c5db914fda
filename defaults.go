package cacheable

import "time"

const (
	defaultNamespace = "Cache"
	defaultTTL       = 24 * time.Hour
	tracerName       = "github.com/unkn0wn-root/cacheable"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
