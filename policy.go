package cacheable

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.yaml.in/yaml/v3"
)

// Policy is the per-operation cache configuration.
type Policy struct {
	// ExpiresIn is the TTL requested from the shared store. 0 uses Options.DefaultTTL.
	ExpiresIn time.Duration
	// DisableMemo skips the request memo; every call reaches the shared store.
	DisableMemo bool
	// IncludeLocale appends the active locale to the key.
	IncludeLocale bool
	// IncludeCurrency appends the active currency to the key when one is set.
	IncludeCurrency bool
}

func (p Policy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ExpiresIn, validation.Min(time.Duration(0))),
	)
}

// Policy option names accepted by ParsePolicy and DecodePolicies.
const (
	OptExpiresIn       = "expires_in"
	OptMemoized        = "memoized"
	OptIncludeLocale   = "include_locale"
	OptIncludeCurrency = "include_currency"
)

// ParsePolicy builds a Policy from loosely typed options, as found in
// configuration files. Unknown options are rejected.
//
// expires_in accepts a time.Duration, a duration string ("5m") or a number
// of seconds. memoized=false sets DisableMemo.
func ParsePolicy(opts map[string]any) (Policy, error) {
	var p Policy
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		raw := opts[k]
		var err error
		switch k {
		case OptExpiresIn:
			p.ExpiresIn, err = parseDuration(raw)
		case OptMemoized:
			var memo bool
			memo, err = parseBool(raw)
			p.DisableMemo = !memo
		case OptIncludeLocale:
			p.IncludeLocale, err = parseBool(raw)
		case OptIncludeCurrency:
			p.IncludeCurrency, err = parseBool(raw)
		default:
			err = errors.New("unknown option")
		}
		if err != nil {
			return Policy{}, &ConfigError{Op: "parse policy", Field: k, Err: err}
		}
	}
	if err := p.Validate(); err != nil {
		return Policy{}, &ConfigError{Op: "parse policy", Field: OptExpiresIn, Err: err}
	}
	return p, nil
}

// DecodePolicies reads a YAML document mapping operation names to options:
//
//	price:
//	  expires_in: 5m
//	  include_currency: true
//	label?:
//	  memoized: false
func DecodePolicies(r io.Reader) (map[string]Policy, error) {
	var doc map[string]map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]Policy{}, nil
		}
		return nil, &ConfigError{Op: "decode policies", Err: err}
	}
	out := make(map[string]Policy, len(doc))
	for name, opts := range doc {
		if name == "" {
			return nil, &ConfigError{Op: "decode policies", Field: "name", Err: errors.New("empty operation name")}
		}
		p, err := ParsePolicy(opts)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) {
				ce.Field = name + "." + ce.Field
			}
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

func parseDuration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case uint64:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	case string:
		if n, err := strconv.ParseInt(d, 10, 64); err == nil {
			return time.Duration(n) * time.Second, nil
		}
		return time.ParseDuration(d)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("invalid duration %v (%T)", v, v)
}

func parseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	return false, fmt.Errorf("invalid bool %v (%T)", v, v)
}
