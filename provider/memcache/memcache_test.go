package memcache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

func TestExpiration(t *testing.T) {
	require.EqualValues(t, 0, expiration(0))
	require.EqualValues(t, 0, expiration(-time.Second))
	require.EqualValues(t, 1, expiration(10*time.Millisecond))
	require.EqualValues(t, 300, expiration(5*time.Minute))

	abs := expiration(60 * 24 * time.Hour)
	require.Greater(t, int64(abs), time.Now().Unix(), "long ttls become absolute timestamps")
}

func TestNilClient(t *testing.T) {
	_, err := NewWithClient(nil)
	require.ErrorIs(t, err, ErrNilClient)
}

// fakeMemcached speaks the subset of the text protocol the provider uses.
type fakeMemcached struct {
	ln net.Listener

	mu   sync.Mutex
	data map[string][]byte
	exp  map[string]int32
}

func startFakeMemcached(t *testing.T) *fakeMemcached {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeMemcached{ln: ln, data: make(map[string][]byte), exp: make(map[string]int32)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeMemcached) serve(conn net.Conn) {
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	for {
		line, err := rw.ReadString('\n')
		if err != nil {
			return
		}
		f.handle(rw, strings.Fields(line))
		if err := rw.Flush(); err != nil {
			return
		}
	}
}

func (f *fakeMemcached) handle(rw *bufio.ReadWriter, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(args) < 2 {
		rw.WriteString("ERROR\r\n")
		return
	}
	key := args[1]
	switch args[0] {
	case "gets":
		for _, k := range args[1:] {
			if v, ok := f.data[k]; ok {
				fmt.Fprintf(rw, "VALUE %s 0 %d 1\r\n%s\r\n", k, len(v), v)
			}
		}
		rw.WriteString("END\r\n")
	case "set", "add":
		exp, _ := strconv.Atoi(args[3])
		n, _ := strconv.Atoi(args[4])
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(rw, buf); err != nil {
			return
		}
		if _, ok := f.data[key]; ok && args[0] == "add" {
			rw.WriteString("NOT_STORED\r\n")
			return
		}
		f.data[key] = buf[:n]
		f.exp[key] = int32(exp)
		rw.WriteString("STORED\r\n")
	case "incr", "decr":
		v, ok := f.data[key]
		if !ok {
			rw.WriteString("NOT_FOUND\r\n")
			return
		}
		cur, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			rw.WriteString("CLIENT_ERROR cannot increment or decrement non-numeric value\r\n")
			return
		}
		d, _ := strconv.ParseUint(args[2], 10, 64)
		if args[0] == "incr" {
			cur += d
		} else if d > cur {
			cur = 0
		} else {
			cur -= d
		}
		f.data[key] = []byte(strconv.FormatUint(cur, 10))
		fmt.Fprintf(rw, "%d\r\n", cur)
	case "touch":
		if _, ok := f.data[key]; !ok {
			rw.WriteString("NOT_FOUND\r\n")
			return
		}
		exp, _ := strconv.Atoi(args[2])
		f.exp[key] = int32(exp)
		rw.WriteString("TOUCHED\r\n")
	case "delete":
		if _, ok := f.data[key]; !ok {
			rw.WriteString("NOT_FOUND\r\n")
			return
		}
		delete(f.data, key)
		rw.WriteString("DELETED\r\n")
	default:
		rw.WriteString("ERROR\r\n")
	}
}

func (f *fakeMemcached) expiry(key string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exp[key]
}

func (f *fakeMemcached) put(key, value string) {
	f.mu.Lock()
	f.data[key] = []byte(value)
	f.mu.Unlock()
}

func newTestMemcache(t *testing.T) (*Memcache, *fakeMemcached) {
	t.Helper()
	f := startFakeMemcached(t)
	p := New(f.ln.Addr().String())
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, f
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, f := newTestMemcache(t)

	_, ok, err := p.Get(ctx, "1:Widget:7:total:")
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := p.Set(ctx, "1:Widget:7:total:", []byte("42"), 1, 5*time.Minute)
	require.NoError(t, err)
	require.True(t, stored)
	require.EqualValues(t, 300, f.expiry("1:Widget:7:total:"))

	b, ok, err := p.Get(ctx, "1:Widget:7:total:")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("42"), b)

	require.NoError(t, p.Del(ctx, "1:Widget:7:total:"))
	require.NoError(t, p.Del(ctx, "1:Widget:7:total:"), "deleting a missing key is not an error")
}

func TestUnsafeKeysCompacted(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestMemcache(t)

	key := "1:Widget:find:has space"
	_, err := p.Set(ctx, key, []byte("v"), 1, 0)
	require.NoError(t, err)
	b, ok, err := p.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)
}

func TestIncr(t *testing.T) {
	ctx := context.Background()
	p, f := newTestMemcache(t)

	// missing key is created by add
	v, err := p.Incr(ctx, "Cache:Cache:version", 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	v, err = p.Incr(ctx, "Cache:Cache:version", 4, time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 5, v)
	require.EqualValues(t, 3600, f.expiry("Cache:Cache:version"))

	v, err = p.Incr(ctx, "Cache:Cache:version", -2, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	b, ok, err := p.Get(ctx, "Cache:Cache:version")
	require.NoError(t, err)
	require.True(t, ok)
	n, err := pr.ParseCounter(b)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestIncrNotCounter(t *testing.T) {
	p, f := newTestMemcache(t)
	f.put("s", "text")

	_, err := p.Incr(context.Background(), "s", 1, 0)
	require.ErrorIs(t, err, pr.ErrNotCounter)
}
