package cacheable

import (
	"context"

	"github.com/unkn0wn-root/cacheable/codec"
)

// Wrappers decorate one registered operation. The operation must be
// registered before wrapping (ErrNotRegistered otherwise); its Policy is read
// on every call, so a later Register takes effect immediately.
//
// Each wrapper offers:
//   - Call: cached invocation.
//   - Uncached: runs the function directly, leaving the cache untouched.
//   - Invalidate: deletes the entry for the given target and arguments.
//   - Key: the storage key the call would use under the current version.
//
// Instance functions take the receiver first, so method expressions such as
// (*Widget).Price can be wrapped directly. A nil codec selects codec.JSON.

// Method is an instance operation without arguments.
type Method[T, R any] struct {
	op[R]
	fn func(T, context.Context) (R, error)
}

func Wrap[T, R any](c *Cache, name string, cd codec.Codec[R], fn func(T, context.Context) (R, error)) (*Method[T, R], error) {
	o, err := newOp(c, TypeOf[T](), name, false, cd)
	if err != nil {
		return nil, err
	}
	return &Method[T, R]{op: o, fn: fn}, nil
}

func (m *Method[T, R]) Call(ctx context.Context, t T) (R, error) {
	return m.call(ctx, t, nil, func(ctx context.Context) (R, error) { return m.fn(t, ctx) })
}

func (m *Method[T, R]) Uncached(ctx context.Context, t T) (R, error) { return m.fn(t, ctx) }

func (m *Method[T, R]) Invalidate(ctx context.Context, t T) error {
	return m.invalidate(ctx, t, nil)
}

func (m *Method[T, R]) Key(ctx context.Context, t T) (string, error) { return m.key(ctx, t, nil) }

// Method1 is an instance operation with one argument.
type Method1[T, A, R any] struct {
	op[R]
	fn func(T, context.Context, A) (R, error)
}

func Wrap1[T, A, R any](c *Cache, name string, cd codec.Codec[R], fn func(T, context.Context, A) (R, error)) (*Method1[T, A, R], error) {
	o, err := newOp(c, TypeOf[T](), name, false, cd)
	if err != nil {
		return nil, err
	}
	return &Method1[T, A, R]{op: o, fn: fn}, nil
}

func (m *Method1[T, A, R]) Call(ctx context.Context, t T, a A) (R, error) {
	return m.call(ctx, t, []any{a}, func(ctx context.Context) (R, error) { return m.fn(t, ctx, a) })
}

func (m *Method1[T, A, R]) Uncached(ctx context.Context, t T, a A) (R, error) {
	return m.fn(t, ctx, a)
}

func (m *Method1[T, A, R]) Invalidate(ctx context.Context, t T, a A) error {
	return m.invalidate(ctx, t, []any{a})
}

func (m *Method1[T, A, R]) Key(ctx context.Context, t T, a A) (string, error) {
	return m.key(ctx, t, []any{a})
}

// Method2 is an instance operation with two arguments.
type Method2[T, A, B, R any] struct {
	op[R]
	fn func(T, context.Context, A, B) (R, error)
}

func Wrap2[T, A, B, R any](c *Cache, name string, cd codec.Codec[R], fn func(T, context.Context, A, B) (R, error)) (*Method2[T, A, B, R], error) {
	o, err := newOp(c, TypeOf[T](), name, false, cd)
	if err != nil {
		return nil, err
	}
	return &Method2[T, A, B, R]{op: o, fn: fn}, nil
}

func (m *Method2[T, A, B, R]) Call(ctx context.Context, t T, a A, b B) (R, error) {
	return m.call(ctx, t, []any{a, b}, func(ctx context.Context) (R, error) { return m.fn(t, ctx, a, b) })
}

func (m *Method2[T, A, B, R]) Uncached(ctx context.Context, t T, a A, b B) (R, error) {
	return m.fn(t, ctx, a, b)
}

func (m *Method2[T, A, B, R]) Invalidate(ctx context.Context, t T, a A, b B) error {
	return m.invalidate(ctx, t, []any{a, b})
}

func (m *Method2[T, A, B, R]) Key(ctx context.Context, t T, a A, b B) (string, error) {
	return m.key(ctx, t, []any{a, b})
}

// MethodN is an instance operation with variadic arguments.
type MethodN[T, R any] struct {
	op[R]
	fn func(T, context.Context, ...any) (R, error)
}

func WrapN[T, R any](c *Cache, name string, cd codec.Codec[R], fn func(T, context.Context, ...any) (R, error)) (*MethodN[T, R], error) {
	o, err := newOp(c, TypeOf[T](), name, false, cd)
	if err != nil {
		return nil, err
	}
	return &MethodN[T, R]{op: o, fn: fn}, nil
}

func (m *MethodN[T, R]) Call(ctx context.Context, t T, args ...any) (R, error) {
	return m.call(ctx, t, args, func(ctx context.Context) (R, error) { return m.fn(t, ctx, args...) })
}

func (m *MethodN[T, R]) Uncached(ctx context.Context, t T, args ...any) (R, error) {
	return m.fn(t, ctx, args...)
}

func (m *MethodN[T, R]) Invalidate(ctx context.Context, t T, args ...any) error {
	return m.invalidate(ctx, t, args)
}

func (m *MethodN[T, R]) Key(ctx context.Context, t T, args ...any) (string, error) {
	return m.key(ctx, t, args)
}

// Static is a type-scope operation without arguments.
type Static[R any] struct {
	op[R]
	fn func(context.Context) (R, error)
}

func WrapStatic[R any](c *Cache, t Type, name string, cd codec.Codec[R], fn func(context.Context) (R, error)) (*Static[R], error) {
	o, err := newOp(c, t, name, true, cd)
	if err != nil {
		return nil, err
	}
	return &Static[R]{op: o, fn: fn}, nil
}

func (s *Static[R]) Call(ctx context.Context) (R, error) {
	return s.call(ctx, s.typ, nil, s.fn)
}

func (s *Static[R]) Uncached(ctx context.Context) (R, error) { return s.fn(ctx) }

func (s *Static[R]) Invalidate(ctx context.Context) error { return s.invalidate(ctx, s.typ, nil) }

func (s *Static[R]) Key(ctx context.Context) (string, error) { return s.key(ctx, s.typ, nil) }

// Static1 is a type-scope operation with one argument.
type Static1[A, R any] struct {
	op[R]
	fn func(context.Context, A) (R, error)
}

func WrapStatic1[A, R any](c *Cache, t Type, name string, cd codec.Codec[R], fn func(context.Context, A) (R, error)) (*Static1[A, R], error) {
	o, err := newOp(c, t, name, true, cd)
	if err != nil {
		return nil, err
	}
	return &Static1[A, R]{op: o, fn: fn}, nil
}

func (s *Static1[A, R]) Call(ctx context.Context, a A) (R, error) {
	return s.call(ctx, s.typ, []any{a}, func(ctx context.Context) (R, error) { return s.fn(ctx, a) })
}

func (s *Static1[A, R]) Uncached(ctx context.Context, a A) (R, error) { return s.fn(ctx, a) }

func (s *Static1[A, R]) Invalidate(ctx context.Context, a A) error {
	return s.invalidate(ctx, s.typ, []any{a})
}

func (s *Static1[A, R]) Key(ctx context.Context, a A) (string, error) {
	return s.key(ctx, s.typ, []any{a})
}

// Static2 is a type-scope operation with two arguments.
type Static2[A, B, R any] struct {
	op[R]
	fn func(context.Context, A, B) (R, error)
}

func WrapStatic2[A, B, R any](c *Cache, t Type, name string, cd codec.Codec[R], fn func(context.Context, A, B) (R, error)) (*Static2[A, B, R], error) {
	o, err := newOp(c, t, name, true, cd)
	if err != nil {
		return nil, err
	}
	return &Static2[A, B, R]{op: o, fn: fn}, nil
}

func (s *Static2[A, B, R]) Call(ctx context.Context, a A, b B) (R, error) {
	return s.call(ctx, s.typ, []any{a, b}, func(ctx context.Context) (R, error) { return s.fn(ctx, a, b) })
}

func (s *Static2[A, B, R]) Uncached(ctx context.Context, a A, b B) (R, error) {
	return s.fn(ctx, a, b)
}

func (s *Static2[A, B, R]) Invalidate(ctx context.Context, a A, b B) error {
	return s.invalidate(ctx, s.typ, []any{a, b})
}

func (s *Static2[A, B, R]) Key(ctx context.Context, a A, b B) (string, error) {
	return s.key(ctx, s.typ, []any{a, b})
}

// StaticN is a type-scope operation with variadic arguments.
type StaticN[R any] struct {
	op[R]
	fn func(context.Context, ...any) (R, error)
}

func WrapStaticN[R any](c *Cache, t Type, name string, cd codec.Codec[R], fn func(context.Context, ...any) (R, error)) (*StaticN[R], error) {
	o, err := newOp(c, t, name, true, cd)
	if err != nil {
		return nil, err
	}
	return &StaticN[R]{op: o, fn: fn}, nil
}

func (s *StaticN[R]) Call(ctx context.Context, args ...any) (R, error) {
	return s.call(ctx, s.typ, args, func(ctx context.Context) (R, error) { return s.fn(ctx, args...) })
}

func (s *StaticN[R]) Uncached(ctx context.Context, args ...any) (R, error) { return s.fn(ctx, args...) }

func (s *StaticN[R]) Invalidate(ctx context.Context, args ...any) error {
	return s.invalidate(ctx, s.typ, args)
}

func (s *StaticN[R]) Key(ctx context.Context, args ...any) (string, error) {
	return s.key(ctx, s.typ, args)
}
