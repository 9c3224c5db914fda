package cacheable

import (
	"context"
	"net/http"
	"sync"
)

// Scope is the request memo: values computed or fetched during one logical
// request, plus the version counters read in it. It dies with the request.
//
// A Scope may be shared by goroutines fanned out from the same request; it
// must never be shared across requests.
type Scope struct {
	mu       sync.Mutex
	memo     map[string]any
	versions map[string]uint64
}

func NewScope() *Scope {
	return &Scope{
		memo:     make(map[string]any),
		versions: make(map[string]uint64),
	}
}

type scopeKey struct{}

// WithScope returns a child context carrying a fresh Scope.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, NewScope())
}

// ScopeFrom returns the Scope carried by ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// Middleware gives every HTTP request its own Scope.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithScope(r.Context())))
	})
}

// Reset drops memoized values and mirrored versions. Use it between units of
// work that reuse one context, e.g. jobs in a worker loop.
func (s *Scope) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	clear(s.memo)
	clear(s.versions)
	s.mu.Unlock()
}

// Len reports the number of memoized values.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memo)
}

func (s *Scope) load(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	v, ok := s.memo[key]
	s.mu.Unlock()
	return v, ok
}

func (s *Scope) store(key string, v any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.memo[key] = v
	s.mu.Unlock()
}

func (s *Scope) forget(key string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.memo, key)
	s.mu.Unlock()
}

func (s *Scope) version(key string) (uint64, bool) {
	if s == nil {
		return 0, false
	}
	s.mu.Lock()
	v, ok := s.versions[key]
	s.mu.Unlock()
	return v, ok
}

func (s *Scope) setVersion(key string, v uint64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.versions[key] = v
	s.mu.Unlock()
}
