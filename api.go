package cacheable

import (
	"context"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	gen "github.com/unkn0wn-root/cacheable/genstore"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

// SetCostFunc returns the cost passed to Provider.Set for a framed entry.
type SetCostFunc func(key string, raw []byte) int64

// Options configure a Cache. Only Provider is required; others have sensible defaults.
type Options struct {
	// Required
	Provider pr.Provider

	Namespace     string        // version namespace; "" => "Cache"
	VersionExpiry time.Duration // TTL of the version counter; 0 => never expires
	GenStore      gen.GenStore  // nil => counter kept in Provider, or in-process if Provider evicts

	DefaultTTL time.Duration // used when Policy.ExpiresIn is 0; 0 => 24h
	Disabled   bool          // true => every call runs the wrapped function; memo bypassed too

	Locale   LocaleProvider   // nil => "en"
	Currency CurrencyProvider // nil => no currency

	Logger         Logger       // if nil, NopLogger is used
	Hooks          Hooks        // if nil, NopHooks is used
	Tracer         trace.Tracer // if nil, a no-op tracer is used
	ComputeSetCost SetCostFunc  // default 1
}

func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.VersionExpiry, validation.Min(time.Duration(0))),
		validation.Field(&o.DefaultTTL, validation.Min(time.Duration(0))),
	)
}

// Cache coordinates the registries, the version counter and the shared store.
// It is safe for concurrent use.
type Cache struct {
	provider       pr.Provider
	gen            gen.GenStore
	version        *Version
	enabled        bool
	defaultTTL     time.Duration
	locale         LocaleProvider
	currency       CurrencyProvider
	log            Logger
	hooks          Hooks
	tracer         trace.Tracer
	computeSetCost SetCostFunc

	regMu      sync.Mutex
	registries map[string]*Registry
}

func New(opts Options) (*Cache, error) {
	if opts.Provider == nil {
		return nil, ErrProviderRequired
	}
	if err := opts.Validate(); err != nil {
		return nil, &ConfigError{Op: "options", Err: err}
	}

	c := &Cache{
		provider:   opts.Provider,
		enabled:    !opts.Disabled,
		registries: make(map[string]*Registry),
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)
	c.locale = coalesce[LocaleProvider](opts.Locale, LocaleFunc(defaultLocale))
	c.currency = coalesce[CurrencyProvider](opts.Currency, noCurrency{})

	if opts.Tracer != nil {
		c.tracer = opts.Tracer
	} else {
		c.tracer = noop.NewTracerProvider().Tracer(tracerName)
	}

	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	c.gen = defaultGenStore(opts)

	c.version = newVersion(c.gen, opts.Namespace, opts.VersionExpiry, c.hooks, c.log)

	return c, nil
}

// defaultGenStore keeps the counter next to the values it scopes, unless the
// provider may evict it: a re-seeded counter would make surviving entries of
// an earlier generation reachable again.
func defaultGenStore(opts Options) gen.GenStore {
	if opts.GenStore != nil {
		return opts.GenStore
	}
	if e, ok := opts.Provider.(pr.Evicting); ok && e.Evicts() {
		return gen.NewLocalGenStore(0)
	}
	return gen.NewProviderGenStore(opts.Provider)
}

func (c *Cache) Enabled() bool { return c.enabled }

// Version returns the global version counter.
func (c *Cache) Version() *Version { return c.version }

// Provider returns the shared store.
func (c *Cache) Provider() pr.Provider { return c.provider }

// Close closes the generation store, then the provider.
func (c *Cache) Close(ctx context.Context) error {
	// Close gen store first (best effort)
	if c.gen != nil {
		_ = c.gen.Close(ctx)
	}
	if c.provider != nil {
		return c.provider.Close(ctx)
	}
	return nil
}
