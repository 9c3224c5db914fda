package cacheable

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParsePolicy(t *testing.T) {
	cases := []struct {
		name string
		in   map[string]any
		want Policy
	}{
		{"empty", nil, Policy{}},
		{"duration", map[string]any{"expires_in": 5 * time.Minute}, Policy{ExpiresIn: 5 * time.Minute}},
		{"string", map[string]any{"expires_in": "90s"}, Policy{ExpiresIn: 90 * time.Second}},
		{"seconds", map[string]any{"expires_in": 300}, Policy{ExpiresIn: 5 * time.Minute}},
		{"numeric string", map[string]any{"expires_in": "60"}, Policy{ExpiresIn: time.Minute}},
		{"memoized false", map[string]any{"memoized": false}, Policy{DisableMemo: true}},
		{"memoized true", map[string]any{"memoized": true}, Policy{}},
		{"flags", map[string]any{"include_locale": true, "include_currency": "true"}, Policy{IncludeLocale: true, IncludeCurrency: true}},
	}
	for _, tc := range cases {
		got, err := ParsePolicy(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestParsePolicyErrors(t *testing.T) {
	cases := map[string]map[string]any{
		"unknown":  {"expires": "5m"},
		"negative": {"expires_in": "-5m"},
		"bad type": {"include_locale": 1},
		"garbage":  {"expires_in": "soon"},
	}
	for name, in := range cases {
		_, err := ParsePolicy(in)
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: want *ConfigError, got %v", name, err)
		}
	}
}

func TestDecodePolicies(t *testing.T) {
	doc := `
price:
  expires_in: 5m
  include_currency: true
valid?:
  memoized: false
`
	ps, err := DecodePolicies(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Fatalf("policies: %v", ps)
	}
	if ps["price"] != (Policy{ExpiresIn: 5 * time.Minute, IncludeCurrency: true}) {
		t.Fatalf("price: %+v", ps["price"])
	}
	if !ps["valid?"].DisableMemo {
		t.Fatalf("valid?: %+v", ps["valid?"])
	}
}

func TestDecodePoliciesUnknownOption(t *testing.T) {
	_, err := DecodePolicies(strings.NewReader("price:\n  expire_in: 5m\n"))
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("want *ConfigError, got %v", err)
	}
	if ce.Field != "price.expire_in" {
		t.Fatalf("field: %q", ce.Field)
	}
}

func TestDecodePoliciesEmpty(t *testing.T) {
	ps, err := DecodePolicies(strings.NewReader(""))
	if err != nil || len(ps) != 0 {
		t.Fatalf("got %v, %v", ps, err)
	}
}
