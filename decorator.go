package cacheable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/cacheable/codec"
	"github.com/unkn0wn-root/cacheable/internal/wire"
)

const (
	layerMemo   = "memo"
	layerStore  = "store"
	layerMiss   = "miss"
	layerBypass = "bypass"
)

// op is the decorator shared by every Wrap* variant: one registered
// operation of one type, at one scope.
type op[R any] struct {
	cache  *Cache
	reg    *Registry
	typ    Type
	name   string
	helper string
	static bool
	codec  codec.Codec[R]
}

func newOp[R any](cache *Cache, t Type, name string, static bool, cd codec.Codec[R]) (op[R], error) {
	reg := cache.Registry(t)
	ok := reg.IsRegistered(name)
	if static {
		ok = reg.IsRegisteredStatic(name)
	}
	if !ok {
		scope := "instance"
		if static {
			scope = "type"
		}
		return op[R]{}, fmt.Errorf("%w: %s %s.%s", ErrNotRegistered, scope, t.name, name)
	}
	if cd == nil {
		cd = codec.JSON[R]{}
	}
	return op[R]{
		cache:  cache,
		reg:    reg,
		typ:    t,
		name:   name,
		helper: helperName(name),
		static: static,
		codec:  cd,
	}, nil
}

// Name returns the operation name as registered.
func (o op[R]) Name() string { return o.name }

func (o op[R]) policy() Policy {
	if o.static {
		p, _ := o.reg.StaticPolicy(o.name)
		return p
	}
	p, _ := o.reg.Policy(o.name)
	return p
}

func (o op[R]) key(ctx context.Context, target any, args []any) (string, error) {
	return o.cache.Key(ctx, target, o.name, args, o.policy())
}

// call resolves through the request memo, then the shared store, then fn.
// Store failures never reach the caller; errors from fn are returned as-is
// and never cached.
func (o op[R]) call(ctx context.Context, target any, args []any, fn func(context.Context) (R, error)) (R, error) {
	var zero R
	cc := o.cache

	ctx, span := cc.tracer.Start(ctx, "cacheable."+o.helper,
		trace.WithAttributes(
			attribute.String("cache.type", o.typ.name),
			attribute.String("cache.op", o.name),
		))
	defer span.End()

	if !cc.enabled {
		return o.compute(ctx, span, layerBypass, fn)
	}

	p := o.policy()
	key, err := cc.Key(ctx, target, o.name, args, p)
	if err != nil {
		reason := "version"
		if errors.Is(err, ErrUncacheable) {
			reason = "identity"
		}
		cc.hooks.Uncacheable(o.helper, reason)
		cc.log.Debug("call not cacheable; running uncached", Fields{"op": o.name, "type": o.typ.name, "err": err})
		return o.compute(ctx, span, layerBypass, fn)
	}

	var scope *Scope
	if !p.DisableMemo {
		scope = ScopeFrom(ctx)
	}
	if v, ok := scope.load(key); ok {
		if r, ok := v.(R); ok {
			cc.hooks.MemoHit(o.helper)
			span.SetAttributes(attribute.String("cache.layer", layerMemo))
			return r, nil
		}
	}

	writeBack := true
	raw, ok, err := cc.provider.Get(ctx, key)
	switch {
	case err != nil:
		// store down: compute, but do not hammer it with a write
		writeBack = false
		cc.hooks.StoreError(o.helper, "get", err)
		cc.log.Warn("cache get failed; computing", Fields{"key": key, "err": err})
	case ok:
		if r, ok := o.decode(ctx, key, raw); ok {
			cc.hooks.StoreHit(o.helper)
			span.SetAttributes(attribute.String("cache.layer", layerStore))
			scope.store(key, r)
			return r, nil
		}
	}

	cc.hooks.Miss(o.helper)
	r, err := o.compute(ctx, span, layerMiss, fn)
	if err != nil {
		return zero, err
	}
	if writeBack {
		o.write(ctx, key, r, p)
	}
	scope.store(key, r)
	return r, nil
}

func (o op[R]) compute(ctx context.Context, span trace.Span, layer string, fn func(context.Context) (R, error)) (R, error) {
	span.SetAttributes(attribute.String("cache.layer", layer))
	r, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r, err
}

// decode unframes a stored entry. Entries that fail to decode are deleted.
func (o op[R]) decode(ctx context.Context, key string, raw []byte) (R, bool) {
	var zero R
	cc := o.cache
	e, err := wire.Decode(raw)
	if err != nil {
		o.selfHeal(ctx, key, "corrupt")
		return zero, false
	}
	r, err := o.codec.Decode(e.Payload)
	if err != nil {
		cc.log.Debug("cached value undecodable", Fields{"key": key, "err": err})
		o.selfHeal(ctx, key, "value_decode")
		return zero, false
	}
	return r, true
}

func (o op[R]) selfHeal(ctx context.Context, key, reason string) {
	_ = o.cache.provider.Del(ctx, key)
	o.cache.hooks.SelfHeal(key, reason)
}

func (o op[R]) write(ctx context.Context, key string, r R, p Policy) {
	cc := o.cache
	payload, err := o.codec.Encode(r)
	if err != nil {
		cc.log.Warn("cache encode failed; not stored", Fields{"key": key, "err": err})
		return
	}
	ttl := coalesce(p.ExpiresIn, cc.defaultTTL)
	framed := wire.Encode(time.Now(), payload)
	ok, err := cc.provider.Set(ctx, key, framed, cc.computeSetCost(key, framed), ttl)
	if err != nil {
		cc.hooks.StoreError(o.helper, "set", err)
		cc.log.Warn("cache set failed", Fields{"key": key, "err": err})
		return
	}
	if !ok {
		cc.log.Debug("cache set rejected by provider (pressure)", Fields{"key": key})
	}
}

// invalidate deletes the entry for target and args from the request memo
// and the shared store.
func (o op[R]) invalidate(ctx context.Context, target any, args []any) error {
	key, err := o.key(ctx, target, args)
	if errors.Is(err, ErrUncacheable) {
		// nothing could have been cached for it
		return nil
	}
	if err != nil {
		return err
	}
	return o.cache.del(ctx, o.helper, key)
}

func (c *Cache) del(ctx context.Context, helper, key string) error {
	ScopeFrom(ctx).forget(key)
	if err := c.provider.Del(ctx, key); err != nil {
		c.hooks.StoreError(helper, "del", err)
		return &InvalidateError{Key: key, Err: err}
	}
	c.log.Debug("invalidated key", Fields{"key": key})
	return nil
}

// Expire deletes the entry that calling op on target with args would use,
// without needing the wrapped function. p must carry the same locale and
// currency flags the operation is registered with.
func (c *Cache) Expire(ctx context.Context, target any, op string, args []any, p Policy) error {
	key, err := c.Key(ctx, target, op, args, p)
	if err != nil {
		return err
	}
	return c.del(ctx, helperName(op), key)
}
