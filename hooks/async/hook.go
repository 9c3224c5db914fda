// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/cacheable"
//	"github.com/unkn0wn-root/cacheable/hooks/async"
//	"github.com/unkn0wn-root/cacheable/hooks/slog"
//
// )
//
//	raw := sloghook.New(slog.Default(), sloghook.Options{
//	    SelfHealEvery:   10, // sample logs: ~every 10th self-heal
//	    StoreErrorEvery: 1,  // log every store error
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := cacheable.New(cacheable.Options{
//	    Provider: provider,
//	    Hooks:    hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cacheable"
)

// Hooks forwards events to inner on background workers. Events are dropped
// when the queue is full or after Close.
type Hooks struct {
	inner   cacheable.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ cacheable.Hooks = (*Hooks)(nil)

func New(inner cacheable.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) MemoHit(op string)                 { h.try(func() { h.inner.MemoHit(op) }) }
func (h *Hooks) StoreHit(op string)                { h.try(func() { h.inner.StoreHit(op) }) }
func (h *Hooks) Miss(op string)                    { h.try(func() { h.inner.Miss(op) }) }
func (h *Hooks) SelfHeal(k, r string)              { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) VersionError(ns string, err error) { h.try(func() { h.inner.VersionError(ns, err) }) }
func (h *Hooks) Uncacheable(op, r string)          { h.try(func() { h.inner.Uncacheable(op, r) }) }
func (h *Hooks) VersionBumped(ns string, v uint64) {
	h.try(func() { h.inner.VersionBumped(ns, v) })
}
func (h *Hooks) StoreError(op, action string, err error) {
	h.try(func() { h.inner.StoreError(op, action, err) })
}
