// Package cacheable memoizes the results of expensive operations behind a
// versioned, key-addressed shared store, with an optional request-scoped memo
// in front of it.
//
// Components:
//   - Version: global generation counter. Every key embeds it, so a single
//     Inc makes every previously cached entry unreachable.
//   - Registry: per-type table of cacheable operation names and their Policy.
//   - Wrap*/WrapStatic*: generic decorators that route a call through the
//     request memo, then the shared store, then the wrapped function.
//   - Scope: request memo carried in context.Context (see Middleware).
//   - Provider: byte store with TTL and atomic Incr (Redis, Memcache,
//     Ristretto, BigCache, Otter).
//
// Keys:
//
//	<version>:<type>:<op>:<args...>[:<locale>][:<currency>]            - type scope
//	<version>:<type>:<id>[:<modified>]:<op>:<args...>[:<locale>][...]  - instance scope
//
// Usage:
//
//	c, _ := cacheable.New(cacheable.Options{Provider: p})
//	_ = c.Registry(cacheable.TypeOf[*Widget]()).Register(cacheable.Policy{ExpiresIn: 5 * time.Minute}, "price")
//	price, _ := cacheable.Wrap1(c, "price", nil, (*Widget).Price) // func (*Widget) Price(ctx, currency string) (float64, error)
//	ctx = cacheable.WithScope(ctx)
//	v, err := price.Call(ctx, w, "USD")
package cacheable
