package cacheable

import (
	"context"
	"fmt"
	"sync"
	"time"

	gen "github.com/unkn0wn-root/cacheable/genstore"
)

// Version is the global cache generation. Every key starts with it, so Inc
// invalidates everything cached through this Cache in O(1): old keys are
// never looked up again and age out through the store's TTL.
//
// Within one Scope the first Get fixes the value for the rest of the request,
// keeping the keys of one logical request self-consistent. Inc is the
// exception: the caller that bumps sees the new value immediately.
type Version struct {
	mu     sync.RWMutex
	ns     string
	expiry time.Duration

	store gen.GenStore
	hooks Hooks
	log   Logger
}

func newVersion(store gen.GenStore, ns string, expiry time.Duration, h Hooks, l Logger) *Version {
	return &Version{
		ns:     coalesce(ns, defaultNamespace),
		expiry: expiry,
		store:  store,
		hooks:  h,
		log:    l,
	}
}

// Namespace returns the namespace the counter is bound to.
func (v *Version) Namespace() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ns
}

// SetNamespace rebinds the counter. Values stored under the old namespace are
// not migrated. An empty namespace restores the default.
func (v *Version) SetNamespace(ns string) {
	v.mu.Lock()
	v.ns = coalesce(ns, defaultNamespace)
	v.mu.Unlock()
}

// Expiry returns the TTL applied when the counter is written.
func (v *Version) Expiry() time.Duration {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.expiry
}

// SetExpiry sets the TTL applied when the counter is written. 0 = never expire.
func (v *Version) SetExpiry(d time.Duration) {
	v.mu.Lock()
	v.expiry = d
	v.mu.Unlock()
}

// Key is the store key of the counter: "<namespace>:Cache:version".
func (v *Version) Key() string {
	ns, _ := v.binding()
	return ns + ":" + defaultNamespace + ":version"
}

func (v *Version) binding() (string, time.Duration) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ns, v.expiry
}

// Get returns the current version. A missing or unreadable counter is seeded
// to 1; an error is returned only if seeding fails too.
func (v *Version) Get(ctx context.Context) (uint64, error) {
	key := v.Key()
	scope := ScopeFrom(ctx)
	if g, ok := scope.version(key); ok {
		return g, nil
	}

	g, ok, err := v.store.Snapshot(ctx, key)
	if err != nil {
		v.reportError(key, "read", err)
	}
	if err != nil || !ok {
		return v.Init(ctx, 1)
	}
	scope.setVersion(key, g)
	return g, nil
}

// Inc atomically bumps the stored version and returns the new value.
func (v *Version) Inc(ctx context.Context) (uint64, error) {
	key := v.Key()
	ns, ttl := v.binding()
	g, err := v.store.Bump(ctx, key, ttl)
	if err != nil {
		v.reportError(key, "bump", err)
		return 0, fmt.Errorf("cacheable: bump version %q: %w", key, err)
	}
	ScopeFrom(ctx).setVersion(key, g)
	v.hooks.VersionBumped(ns, g)
	v.log.Info("cache version bumped", Fields{"key": key, "version": g})
	return g, nil
}

// Init seeds the counter to n if it is absent or lower. It never lowers a
// stored value, so calling it on every boot is safe. n == 0 is treated as 1.
func (v *Version) Init(ctx context.Context, n uint64) (uint64, error) {
	if n == 0 {
		n = 1
	}
	key := v.Key()
	_, ttl := v.binding()
	g, err := v.store.Seed(ctx, key, n, ttl)
	if err != nil {
		v.reportError(key, "seed", err)
		return 0, fmt.Errorf("cacheable: init version %q: %w", key, err)
	}
	ScopeFrom(ctx).setVersion(key, g)
	return g, nil
}

func (v *Version) reportError(key, action string, err error) {
	v.hooks.VersionError(v.Namespace(), err)
	v.log.Warn("cache version "+action+" failed", Fields{"key": key, "err": err})
}
