package cacheable

import "context"

// DefaultLocale is used when no LocaleProvider is configured or it returns "".
const DefaultLocale = "en"

// LocaleProvider returns the active locale, e.g. an IETF tag like "pt-BR".
type LocaleProvider interface {
	Locale(ctx context.Context) string
}

// CurrencyProvider returns the active currency. ok=false means none is set
// and the currency dimension is left out of keys.
type CurrencyProvider interface {
	Currency(ctx context.Context) (code string, ok bool)
}

type LocaleFunc func(ctx context.Context) string

func (f LocaleFunc) Locale(ctx context.Context) string { return f(ctx) }

type CurrencyFunc func(ctx context.Context) (string, bool)

func (f CurrencyFunc) Currency(ctx context.Context) (string, bool) { return f(ctx) }

type noCurrency struct{}

func (noCurrency) Currency(context.Context) (string, bool) { return "", false }

func defaultLocale(context.Context) string { return DefaultLocale }
