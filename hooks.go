package cacheable

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
//
// op is the helper name of the operation (trailing ?, ! or = stripped).
type Hooks interface {
	// Served from the request memo.
	MemoHit(op string)
	// Served from the shared store.
	StoreHit(op string)
	// Computed by the wrapped function.
	Miss(op string)

	// Shared store failed; the call fell through to computation.
	// action ∈ {"get", "set", "del"}
	StoreError(op, action string, err error)

	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(storageKey, reason string)

	// The global version moved to v.
	VersionBumped(namespace string, v uint64)
	// Version read, seed or bump failed.
	VersionError(namespace string, err error)

	// The target had no identity or the version was unavailable; the call ran uncached.
	Uncacheable(op, reason string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) MemoHit(string)                   {}
func (NopHooks) StoreHit(string)                  {}
func (NopHooks) Miss(string)                      {}
func (NopHooks) StoreError(string, string, error) {}
func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) VersionBumped(string, uint64)     {}
func (NopHooks) VersionError(string, error)       {}
func (NopHooks) Uncacheable(string, string)       {}
