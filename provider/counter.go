package provider

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ParseCounter decodes a counter value as stored by Incr.
func ParseCounter(b []byte) (int64, error) {
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrNotCounter
	}
	return v, nil
}

// FormatCounter encodes a counter value the way Incr stores it.
func FormatCounter(v int64) []byte {
	return strconv.AppendInt(nil, v, 10)
}

// CounterLock serializes read-modify-write increments for in-process stores
// that lack a native atomic add. Keys are striped over a fixed set of mutexes.
type CounterLock struct {
	stripes [64]sync.Mutex
}

func (l *CounterLock) Lock(key string) func() {
	m := &l.stripes[xxhash.Sum64String(key)%uint64(len(l.stripes))]
	m.Lock()
	return m.Unlock
}

// Add computes the next counter value from the currently stored bytes.
// A missing entry counts as zero.
func Add(cur []byte, found bool, delta int64) (int64, []byte, error) {
	var v int64
	if found {
		n, err := ParseCounter(cur)
		if err != nil {
			return 0, nil, err
		}
		v = n
	}
	v += delta
	return v, FormatCounter(v), nil
}
