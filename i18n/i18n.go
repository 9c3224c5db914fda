// Package i18n resolves the active locale and currency for cache keys from
// the request context, backed by golang.org/x/text.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/unkn0wn-root/cacheable"
)

// CurrencyHeader carries an explicit ISO 4217 code, e.g. "EUR".
const CurrencyHeader = "X-Currency"

type localeKey struct{}
type currencyKey struct{}

// WithLocale returns a child context carrying tag.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

// LocaleFrom returns the tag set by WithLocale.
func LocaleFrom(ctx context.Context) (language.Tag, bool) {
	t, ok := ctx.Value(localeKey{}).(language.Tag)
	return t, ok
}

// WithCurrency returns a child context carrying unit.
func WithCurrency(ctx context.Context, unit currency.Unit) context.Context {
	return context.WithValue(ctx, currencyKey{}, unit)
}

// CurrencyFrom returns the unit set by WithCurrency.
func CurrencyFrom(ctx context.Context) (currency.Unit, bool) {
	u, ok := ctx.Value(currencyKey{}).(currency.Unit)
	return u, ok
}

// Resolver implements cacheable.LocaleProvider and cacheable.CurrencyProvider.
//
// Locale: the context tag, else the default (first supported tag).
// Currency: the context unit, else, with RegionCurrency, the currency of the
// locale's region, else the default currency if one is set.
type Resolver struct {
	supported []language.Tag
	matcher   language.Matcher

	// RegionCurrency derives the currency from the locale's region ("de-CH" -> CHF).
	RegionCurrency bool
	// DefaultCurrency applies when nothing else resolves; zero means none.
	DefaultCurrency currency.Unit
}

var (
	_ cacheable.LocaleProvider   = (*Resolver)(nil)
	_ cacheable.CurrencyProvider = (*Resolver)(nil)
)

// NewResolver returns a resolver matching requests against supported.
// With no tags, English is the only supported locale.
func NewResolver(supported ...language.Tag) *Resolver {
	if len(supported) == 0 {
		supported = []language.Tag{language.English}
	}
	return &Resolver{
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}
}

func (r *Resolver) Default() language.Tag { return r.supported[0] }

func (r *Resolver) Locale(ctx context.Context) string {
	return r.tag(ctx).String()
}

func (r *Resolver) tag(ctx context.Context) language.Tag {
	if t, ok := LocaleFrom(ctx); ok {
		return t
	}
	return r.Default()
}

func (r *Resolver) Currency(ctx context.Context) (string, bool) {
	if u, ok := CurrencyFrom(ctx); ok {
		return u.String(), true
	}
	if r.RegionCurrency {
		if reg, conf := r.tag(ctx).Region(); conf != language.No {
			if u, ok := currency.FromRegion(reg); ok {
				return u.String(), true
			}
		}
	}
	if r.DefaultCurrency != (currency.Unit{}) {
		return r.DefaultCurrency.String(), true
	}
	return "", false
}

// Match returns the best supported tag for an Accept-Language value.
func (r *Resolver) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.Default()
	}
	_, idx, conf := r.matcher.Match(tags...)
	if conf == language.No {
		return r.Default()
	}
	return r.supported[idx]
}

// Middleware stores the negotiated locale, and the X-Currency header when it
// is a valid ISO code, in the request context.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := WithLocale(req.Context(), r.Match(req.Header.Get("Accept-Language")))
		if code := req.Header.Get(CurrencyHeader); code != "" {
			if u, err := currency.ParseISO(code); err == nil {
				ctx = WithCurrency(ctx, u)
			}
		}
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
