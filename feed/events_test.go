package feed

import (
	"context"
	"testing"
	"time"

	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/socialgraph"
	"github.com/ripplehq/ripple/utils"
	"github.com/stretchr/testify/require"
)

func TestInvalidationWorker(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	creator := utils.TestCreateUser(t, db, "creator")
	follower := utils.TestCreateUser(t, db, "follower")
	bystander := utils.TestCreateUser(t, db, "bystander")
	utils.TestCreateFollow(t, db, creator.Id, follower.Id)

	cache := NewMemoryCacheStore()
	require.NoError(t, cache.Put(follower.Id, model.FeedTypeFollowing, []string{"a"}, 20, 0, time.Minute))
	require.NoError(t, cache.Put(follower.Id, model.FeedTypeForYou, []string{"b"}, 20, 0, time.Minute))
	require.NoError(t, cache.Put(bystander.Id, model.FeedTypeFollowing, []string{"c"}, 20, 0, time.Minute))

	bus := NewEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := NewInvalidationWorker(bus, cache, socialgraph.NewDBGraph(db))
	go worker.Run(ctx)

	// The bus drops events published before the worker subscribed, so keep
	// publishing until the invalidation lands. Invalidation is idempotent.
	require.Eventually(t, func() bool {
		require.NoError(t, PublishContentPublished(bus, ContentPublishedEvent{
			ContentItemID: "item-1",
			AuthorID:      creator.Id,
		}))
		_, hit, _ := cache.Get(follower.Id, model.FeedTypeFollowing, 20, 0)
		return !hit
	}, 5*time.Second, 50*time.Millisecond)

	// Other surfaces and other users keep their entries.
	_, hit, _ := cache.Get(follower.Id, model.FeedTypeForYou, 20, 0)
	require.True(t, hit)
	_, hit, _ = cache.Get(bystander.Id, model.FeedTypeFollowing, 20, 0)
	require.True(t, hit)
}
