package feed

import (
	"os"
	"testing"
	"time"

	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestMemoryCacheGetPut(t *testing.T) {
	store := NewMemoryCacheStore()

	_, hit, err := store.Get("u1", model.FeedTypeForYou, 20, 0)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"a", "b"}, 20, 0, time.Minute))

	ids, hit, err := store.Get("u1", model.FeedTypeForYou, 20, 0)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"a", "b"}, ids)

	// Pages are independent keys.
	_, hit, err = store.Get("u1", model.FeedTypeForYou, 20, 1)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestMemoryCacheKeyedByLimit(t *testing.T) {
	store := NewMemoryCacheStore()

	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"a", "b"}, 2, 0, time.Minute))

	// Page 0 at a different page size is a different window, never the same
	// entry.
	_, hit, err := store.Get("u1", model.FeedTypeForYou, 50, 0)
	require.NoError(t, err)
	require.False(t, hit)

	ids, hit, err := store.Get("u1", model.FeedTypeForYou, 2, 0)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"a", "b"}, ids)
}

func TestMemoryCachePutReplacesEntry(t *testing.T) {
	store := NewMemoryCacheStore()

	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"a"}, 20, 0, time.Minute))
	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"b", "c"}, 20, 0, time.Minute))

	ids, hit, err := store.Get("u1", model.FeedTypeForYou, 20, 0)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, []string{"b", "c"}, ids)
}

func TestMemoryCacheExpiry(t *testing.T) {
	store := NewMemoryCacheStore()

	require.NoError(t, store.Put("u1", model.FeedTypeTrending, []string{"a"}, 20, 0, -time.Second))

	// Expired entries read as misses without being deleted by the read.
	_, hit, err := store.Get("u1", model.FeedTypeTrending, 20, 0)
	require.NoError(t, err)
	require.False(t, hit)
	require.Len(t, store.entries, 1)

	require.NoError(t, store.ClearExpired())
	require.Empty(t, store.entries)
}

func TestMemoryCacheInvalidateScoped(t *testing.T) {
	store := NewMemoryCacheStore()

	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"a"}, 20, 0, time.Minute))
	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"b"}, 50, 0, time.Minute))
	require.NoError(t, store.Put("u1", model.FeedTypeFollowing, []string{"c"}, 20, 0, time.Minute))
	require.NoError(t, store.Put("u2", model.FeedTypeForYou, []string{"d"}, 20, 0, time.Minute))

	require.NoError(t, store.Invalidate("u1", model.FeedTypeForYou))

	// Entries of every limit/page under the feed type are dropped.
	_, hit, _ := store.Get("u1", model.FeedTypeForYou, 20, 0)
	require.False(t, hit)
	_, hit, _ = store.Get("u1", model.FeedTypeForYou, 50, 0)
	require.False(t, hit)
	_, hit, _ = store.Get("u1", model.FeedTypeFollowing, 20, 0)
	require.True(t, hit)
	_, hit, _ = store.Get("u2", model.FeedTypeForYou, 20, 0)
	require.True(t, hit)
}

func TestMemoryCacheInvalidateAllForUser(t *testing.T) {
	store := NewMemoryCacheStore()

	require.NoError(t, store.Put("u1", model.FeedTypeForYou, []string{"a"}, 20, 0, time.Minute))
	require.NoError(t, store.Put("u1", model.FeedTypeShorts, []string{"b"}, 20, 0, time.Minute))
	require.NoError(t, store.Put("u2", model.FeedTypeShorts, []string{"c"}, 20, 0, time.Minute))

	require.NoError(t, store.Invalidate("u1", ""))

	_, hit, _ := store.Get("u1", model.FeedTypeForYou, 20, 0)
	require.False(t, hit)
	_, hit, _ = store.Get("u1", model.FeedTypeShorts, 20, 0)
	require.False(t, hit)
	_, hit, _ = store.Get("u2", model.FeedTypeShorts, 20, 0)
	require.True(t, hit)
}

func TestPageOf(t *testing.T) {
	require.Equal(t, 0, pageOf(20, 0))
	require.Equal(t, 0, pageOf(20, 19))
	require.Equal(t, 1, pageOf(20, 20))
	require.Equal(t, 2, pageOf(20, 45))
	require.Equal(t, 0, pageOf(0, 45))
}
