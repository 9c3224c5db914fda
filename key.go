package cacheable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unkn0wn-root/cacheable/internal/keyfmt"
)

// Signature returns the target component of a key: the qualified type name
// for a Type, otherwise "<type>:<identity>[:<last-modified>]". A Ref renders
// exactly like the instance it stands for.
func Signature(target any) (string, error) {
	if t, ok := target.(Type); ok {
		if t.IsZero() {
			return "", fmt.Errorf("%w: zero Type", ErrUncacheable)
		}
		return t.name, nil
	}
	if r, ok := target.(Ref); ok {
		if r.Type.IsZero() || r.ID == "" {
			return "", fmt.Errorf("%w: incomplete Ref", ErrUncacheable)
		}
		return instanceSignature(r.Type.name, r.ID, r.Modified), nil
	}
	id, ok := identity(target)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUncacheable, typeNameOf(target))
	}
	var at time.Time
	if m, ok := target.(Modified); ok {
		at = m.LastModified()
	}
	return instanceSignature(typeNameOf(target), id, at), nil
}

func instanceSignature(typ, id string, modified time.Time) string {
	var b strings.Builder
	b.WriteString(typ)
	b.WriteString(keyfmt.Sep)
	b.WriteString(id)
	if !modified.IsZero() {
		b.WriteString(keyfmt.Sep)
		b.WriteString(modified.UTC().Format(time.RFC3339Nano))
	}
	return b.String()
}

// Key builds the storage key for calling op on target with args, scoped by
// the current version. Only p's locale and currency flags affect the key.
func (c *Cache) Key(ctx context.Context, target any, op string, args []any, p Policy) (string, error) {
	sig, err := Signature(target)
	if err != nil {
		return "", err
	}
	v, err := c.version.Get(ctx)
	if err != nil {
		return "", err
	}
	return c.buildKey(ctx, v, sig, op, args, p), nil
}

func (c *Cache) buildKey(ctx context.Context, v uint64, sig, op string, args []any, p Policy) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(v, 10))
	b.WriteString(keyfmt.Sep)
	b.WriteString(sig)
	b.WriteString(keyfmt.Sep)
	b.WriteString(op)
	b.WriteString(keyfmt.Sep)
	// zero args leave a trailing separator
	b.WriteString(keyfmt.Args(args))
	if p.IncludeLocale {
		loc := c.locale.Locale(ctx)
		if loc == "" {
			loc = DefaultLocale
		}
		b.WriteString(keyfmt.Sep)
		b.WriteString(loc)
	}
	if p.IncludeCurrency {
		if cur, ok := c.currency.Currency(ctx); ok && cur != "" {
			b.WriteString(keyfmt.Sep)
			b.WriteString(cur)
		}
	}
	return b.String()
}

// helperName strips one trailing ?, ! or = so op names are usable as labels.
func helperName(op string) string {
	if n := len(op); n > 1 {
		switch op[n-1] {
		case '?', '!', '=':
			return op[:n-1]
		}
	}
	return op
}

// KeyPart is implemented by arguments that render their own key segment.
type KeyPart = keyfmt.Part
