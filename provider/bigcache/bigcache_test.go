package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoundTripAndIncr(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, CleanWindow: time.Minute})
	require.NoError(t, err)
	defer p.Close(ctx)

	_, ok, err := p.Get(ctx, "nope")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = p.Set(ctx, "k", []byte("payload"), 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	b, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "payload", string(b))

	require.NoError(t, p.Del(ctx, "k"))
	require.NoError(t, p.Del(ctx, "k"), "deleting a missing key is not an error")

	v, err := p.Incr(ctx, "ctr", 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, v)
	v, err = p.Incr(ctx, "ctr", 2, 0)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)
}
