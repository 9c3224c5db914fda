package keyfmt

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Compact returns key unchanged when it fits max bytes and contains only
// printable non-space ASCII. Otherwise it keeps a readable prefix and appends
// a 64-bit xxhash of the full key: "<prefix>#<16 hex>".
// max <= 0 disables the length check.
func Compact(key string, max int) string {
	if (max <= 0 || len(key) <= max) && printable(key) {
		return key
	}
	const suffix = 1 + 16
	keep := len(key)
	if max > 0 && keep > max-suffix {
		keep = max - suffix
	}
	if keep < 0 {
		keep = 0
	}
	prefix := make([]byte, 0, keep+suffix)
	for i := 0; i < keep; i++ {
		c := key[i]
		if c <= ' ' || c >= 0x7f {
			c = '_'
		}
		prefix = append(prefix, c)
	}
	sum := strconv.FormatUint(xxhash.Sum64String(key), 16)
	for len(sum) < 16 {
		sum = "0" + sum
	}
	return string(prefix) + "#" + sum
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] >= 0x7f {
			return false
		}
	}
	return true
}
