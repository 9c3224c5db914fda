package cacheable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

var errDown = errors.New("store down")

// memProvider records every write's TTL and can be told to fail.
type memProvider struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration

	gets, sets, dels int

	failGet, failSet, failDel, failIncr bool
}

func newMemProvider() *memProvider {
	return &memProvider{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.failGet {
		return nil, false, errDown
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.failSet {
		return false, errDown
	}
	m.data[key] = append([]byte(nil), value...)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dels++
	if m.failDel {
		return errDown
	}
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *memProvider) Incr(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIncr {
		return 0, errDown
	}
	cur, ok := m.data[key]
	n, next, err := pr.Add(cur, ok, delta)
	if err != nil {
		return 0, err
	}
	m.data[key] = next
	m.ttls[key] = ttl
	return n, nil
}

func (m *memProvider) Close(context.Context) error { return nil }

func (m *memProvider) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func (m *memProvider) ttl(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.ttls[key]
	return d, ok
}

func (m *memProvider) put(key string, b []byte) {
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
}

func (m *memProvider) fail(get, set, del, incr bool) {
	m.mu.Lock()
	m.failGet, m.failSet, m.failDel, m.failIncr = get, set, del, incr
	m.mu.Unlock()
}

// recHooks counts events by name.
type recHooks struct {
	NopHooks
	mu     sync.Mutex
	counts map[string]int
}

func newRecHooks() *recHooks { return &recHooks{counts: make(map[string]int)} }

func (h *recHooks) inc(name string) {
	h.mu.Lock()
	h.counts[name]++
	h.mu.Unlock()
}

func (h *recHooks) get(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[name]
}

func (h *recHooks) MemoHit(string)                       { h.inc("memo") }
func (h *recHooks) StoreHit(string)                      { h.inc("store") }
func (h *recHooks) Miss(string)                          { h.inc("miss") }
func (h *recHooks) StoreError(_, action string, _ error) { h.inc("err:" + action) }
func (h *recHooks) SelfHeal(_, reason string)            { h.inc("heal:" + reason) }
func (h *recHooks) VersionBumped(string, uint64)         { h.inc("bump") }
func (h *recHooks) Uncacheable(_, reason string)         { h.inc("uncacheable:" + reason) }

func newTestCache(t *testing.T, mutate func(*Options)) (*Cache, *memProvider, *recHooks) {
	t.Helper()
	p := newMemProvider()
	h := newRecHooks()
	opts := Options{Provider: p, Hooks: h}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, p, h
}

// Widget is a priced item with a stable id and a modification time.
type Widget struct {
	ID      string
	Updated time.Time

	mu    sync.Mutex
	calls int
}

func (w *Widget) CacheID() string         { return w.ID }
func (w *Widget) LastModified() time.Time { return w.Updated }

func (w *Widget) Price(_ context.Context, currency string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if currency == "XXX" {
		return 0, errors.New("unknown currency")
	}
	return 9.99, nil
}

func (w *Widget) priceCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// anon has no id; identity comes from the embedded Object.
type anon struct {
	Object
	Name string
}
