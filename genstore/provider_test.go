package genstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cacheable/provider/otter"
)

func newProviderStore(t *testing.T) (*ProviderGenStore, *otter.Provider) {
	t.Helper()
	p, err := otter.New(otter.Config{MaxSize: 100})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return NewProviderGenStore(p), p
}

func TestProviderSeedAndBump(t *testing.T) {
	ctx := context.Background()
	s, _ := newProviderStore(t)
	const key = "Cache:Cache:version"

	_, ok, err := s.Snapshot(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	g, err := s.Seed(ctx, key, 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, g)

	g, err = s.Bump(ctx, key, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, g)

	// re-seeding after a bump keeps the bumped value
	g, err = s.Seed(ctx, key, 1, 0)
	require.NoError(t, err)
	require.EqualValues(t, 2, g)

	g, err = s.Seed(ctx, key, 7, 0)
	require.NoError(t, err)
	require.EqualValues(t, 7, g)

	g, ok, err = s.Snapshot(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, g)
}

func TestProviderSnapshotCorrupt(t *testing.T) {
	ctx := context.Background()
	s, p := newProviderStore(t)

	_, err := p.Set(ctx, "bad", []byte("xyz"), 1, 0)
	require.NoError(t, err)

	_, _, err = s.Snapshot(ctx, "bad")
	require.Error(t, err)
}
