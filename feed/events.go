package feed

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/socialgraph"
	. "github.com/ripplehq/ripple/utils/log"
)

// ContentPublishedTopic carries one event per content item publish.
const ContentPublishedTopic = "content.published"

// ContentPublishedEvent fans out to follower feed invalidation.
type ContentPublishedEvent struct {
	ContentItemID string `json:"content_item_id"`
	AuthorID      string `json:"author_id"`
}

// NewEventBus builds the in-process pub/sub bus shared by the publisher side
// (interaction package) and the invalidation worker.
func NewEventBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
}

// PublishContentPublished emits the publish event onto the bus. Failures are
// surfaced to the caller, a lost event only delays invalidation until the
// cache TTL backstop.
func PublishContentPublished(bus *gochannel.GoChannel, event ContentPublishedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "fail to encode publish event")
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return errors.Wrap(bus.Publish(ContentPublishedTopic, msg), "fail to publish content event")
}

// InvalidationWorker invalidates the following feed of every follower when
// someone they follow publishes. New content plausibly changes those feeds'
// composition, so the system prefers eager invalidation over serving stale
// pages until TTL expiry.
type InvalidationWorker struct {
	Bus   *gochannel.GoChannel
	Cache CacheStore
	Graph socialgraph.Graph
}

func NewInvalidationWorker(bus *gochannel.GoChannel, cache CacheStore, graph socialgraph.Graph) *InvalidationWorker {
	return &InvalidationWorker{Bus: bus, Cache: cache, Graph: graph}
}

// Run consumes publish events until the context is cancelled.
func (w *InvalidationWorker) Run(ctx context.Context) error {
	messages, err := w.Bus.Subscribe(ctx, ContentPublishedTopic)
	if err != nil {
		return errors.Wrap(err, "fail to subscribe to publish events")
	}

	for msg := range messages {
		w.handle(msg)
		msg.Ack()
	}
	return nil
}

func (w *InvalidationWorker) handle(msg *message.Message) {
	var event ContentPublishedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		Log.Error("drop malformed publish event: ", err)
		return
	}

	followerIds, err := w.Graph.FollowerIds(event.AuthorID)
	if err != nil {
		Log.Error("fail to resolve followers for invalidation: ", err)
		return
	}

	for _, followerId := range followerIds {
		if err := w.Cache.Invalidate(followerId, model.FeedTypeFollowing); err != nil {
			Log.Error("fail to invalidate following feed for user ", followerId, ": ", err)
		}
	}
}
