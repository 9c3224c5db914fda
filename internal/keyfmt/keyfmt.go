// Package keyfmt renders call arguments into cache key segments.
//
// Scalars and strings are written verbatim so that keys stay readable and
// match what operators type when expiring entries by hand. Composite values
// get a structured, order-stable form.
package keyfmt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sep separates key segments.
const Sep = ":"

// Nil is the segment for a nil argument. Strings starting with Nil gain an
// extra Nil prefix, so no string argument renders the same as nil. Stores
// that reject control bytes in keys go through Compact.
//
// Other composite forms ("[]", "{}") are not reserved and can coincide with
// a string argument of the same text.
const Nil = "\x00"

// Part is implemented by arguments that know their own key form.
type Part interface {
	CacheKeyPart() string
}

// Args renders args and joins them with Sep. No args yields "".
func Args(args []any) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Arg(a)
	}
	return strings.Join(parts, Sep)
}

// Arg renders a single argument.
func Arg(v any) string {
	switch x := v.(type) {
	case nil:
		return Nil
	case Part:
		return x.CacheKeyPart()
	case string:
		return str(x)
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	}
	return value(reflect.ValueOf(v))
}

func value(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Invalid:
		return Nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil
		}
		return Arg(rv.Elem().Interface())
	case reflect.String:
		return str(rv.String())
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", rv.Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "[]"
		}
		return seq(rv)
	case reflect.Array:
		return seq(rv)
	case reflect.Map:
		return mapping(rv)
	case reflect.Struct:
		return structure(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// identity-only values; stable for the life of the process at best
		return fmt.Sprintf("%s@%x", rv.Type(), rv.Pointer())
	}
	return jsonFallback(rv.Interface())
}

func str(s string) string {
	if strings.HasPrefix(s, Nil) {
		return Nil + s
	}
	return s
}

func seq(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = Arg(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// mapping sorts by rendered key so iteration order never leaks into the key.
func mapping(rv reflect.Value) string {
	if rv.IsNil() {
		return "{}"
	}
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, Arg(iter.Key().Interface())+"="+Arg(iter.Value().Interface()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}

func structure(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		parts = append(parts, f.Name+"="+Arg(rv.Field(i).Interface()))
	}
	return rt.Name() + "{" + strings.Join(parts, ",") + "}"
}

func jsonFallback(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	return string(b)
}
