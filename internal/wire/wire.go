// Package wire frames cached values before they are written to the shared
// store so that foreign or truncated bytes are detected on read.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version   byte = 1
	kindValue byte = 1

	hdrLen = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("cacheable: corrupt entry")
	magic4     = [...]byte{'C', 'B', 'L', 'E'}
)

// Entry is a decoded frame. Payload aliases the input slice.
type Entry struct {
	WrittenAt time.Time
	Payload   []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode: magic(4) | ver(1) | kind(1) | written-at unix nanos (i64 be) | vlen(u32 be) | payload(vlen)
func Encode(writtenAt time.Time, payload []byte) []byte {
	buf := make([]byte, hdrLen+len(payload))
	copy(buf, magic4[:])
	buf[4] = version
	buf[5] = kindValue
	binary.BigEndian.PutUint64(buf[6:14], uint64(writtenAt.UnixNano()))
	binary.BigEndian.PutUint32(buf[14:18], uint32(len(payload)))
	copy(buf[hdrLen:], payload)
	return buf
}

func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindValue {
		return Entry{}, ErrCorrupt
	}
	ns := int64(binary.BigEndian.Uint64(b[6:14]))
	vlen := int(binary.BigEndian.Uint32(b[14:18]))
	// exact length; trailing bytes mean the frame was tampered with or truncated
	if vlen != len(b)-hdrLen {
		return Entry{}, ErrCorrupt
	}
	return Entry{
		WrittenAt: time.Unix(0, ns).UTC(),
		Payload:   b[hdrLen:],
	}, nil
}
