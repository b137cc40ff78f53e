package interaction

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/engagement"
	"github.com/ripplehq/ripple/feed"
	"github.com/ripplehq/ripple/hashtag"
	"github.com/ripplehq/ripple/interest"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/socialgraph"
	. "github.com/ripplehq/ripple/utils/log"
	"gorm.io/gorm"
)

// A view counts as a complete view at 95 percent watched, and as an interest
// signal above 50.
const (
	completeViewPercentage   = 95.0
	interestSignalPercentage = 50.0
)

/*

Recorder ingests raw interaction events and owns the explicit call sequence

    mutate counter -> append interaction log -> recompute scores

inside one logical handler per event. Counter mutations are always atomic
column increments. Side-effect updates (interest profile, reach attribution)
are best effort: they log failures and never fail the primary action. A
failed score recomputation is logged and counted, the interaction itself
still stands.

Bus is optional, when set the publish flow emits fan-out events for follower
feed invalidation.

*/
type Recorder struct {
	DB    *gorm.DB
	Graph socialgraph.Graph
	Bus   *gochannel.GoChannel
}

func NewRecorder(db *gorm.DB, graph socialgraph.Graph, bus *gochannel.GoChannel) *Recorder {
	return &Recorder{DB: db, Graph: graph, Bus: bus}
}

// ViewInput is one raw view event, validated by the request-handling layer.
type ViewInput struct {
	ContentItemID    string
	ViewerID         *string
	SessionID        *string
	WatchTimeSeconds int
	WatchPercentage  float64
	Source           model.ViewSource
	DeviceType       *string
}

// RecordView ingests one view: replay detection, the immutable view row,
// atomic view/watch-time counters, reach attribution and interest signals,
// then a score recompute. A view of a deleted item is a silent no-op.
func (r *Recorder) RecordView(input ViewInput) (*model.View, error) {
	var item model.ContentItem
	if err := r.DB.Preload("Hashtags").Where("id = ?", input.ContentItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "fail to load content item for view")
	}

	// Anonymous views carry no identity to match, they are never replays.
	isReplay := false
	if input.ViewerID != nil {
		var prior int64
		err := r.DB.Model(&model.View{}).
			Where("content_item_id = ? AND viewer_id = ?", item.Id, *input.ViewerID).
			Count(&prior).Error
		if err != nil {
			return nil, errors.Wrap(err, "fail to check prior views")
		}
		isReplay = prior > 0
	}

	view := model.View{
		Id:               uuid.New().String(),
		CreatedAt:        time.Now(),
		ContentItemID:    item.Id,
		ViewerID:         input.ViewerID,
		SessionID:        input.SessionID,
		WatchTimeSeconds: input.WatchTimeSeconds,
		WatchPercentage:  input.WatchPercentage,
		IsCompleteView:   input.WatchPercentage >= completeViewPercentage,
		IsReplay:         isReplay,
		Source:           input.Source,
		DeviceType:       input.DeviceType,
	}
	if err := r.DB.Create(&view).Error; err != nil {
		return nil, errors.Wrap(err, "fail to record view")
	}

	updates := map[string]interface{}{
		"views_count": gorm.Expr("views_count + 1"),
	}
	if input.WatchTimeSeconds > 0 {
		updates["watch_time_seconds"] = gorm.Expr("watch_time_seconds + ?", input.WatchTimeSeconds)
	}
	if err := r.DB.Model(&model.ContentItem{}).Where("id = ?", item.Id).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "fail to increment view counters")
	}

	if input.ViewerID != nil && *input.ViewerID != item.AuthorID {
		r.attributeReach(&item, *input.ViewerID)
	}

	if input.ViewerID != nil && input.WatchPercentage > interestSignalPercentage {
		r.recordInterestSignals(&item, *input.ViewerID)
	}

	r.recompute(item.Id)
	return &view, nil
}

// attributeReach buckets the view into follower vs non-follower reach.
// Best effort, graph lookups failing must not fail the view.
func (r *Recorder) attributeReach(item *model.ContentItem, viewerID string) {
	follows, err := r.Graph.IsFollower(item.AuthorID, viewerID)
	if err != nil {
		Log.Error("skip reach attribution, follower lookup failed: ", err)
		return
	}

	column := "reach_non_followers"
	if follows {
		column = "reach_followers"
	}
	err = r.DB.Model(&model.ContentItem{}).Where("id = ?", item.Id).
		Update(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		Log.Error("fail to increment reach counter: ", err)
	}
}

// recordInterestSignals feeds the viewer's interest profile with the item's
// creator, hashtags and category. Best effort.
func (r *Recorder) recordInterestSignals(item *model.ContentItem, viewerID string) {
	if err := interest.RecordInteraction(r.DB, viewerID, model.InterestTypeCreator, item.AuthorID, interest.DefaultStrength); err != nil {
		Log.Error("fail to record creator interest: ", err)
	}
	for _, h := range item.Hashtags {
		if err := interest.RecordInteraction(r.DB, viewerID, model.InterestTypeHashtag, h.NormalizedName, interest.DefaultStrength); err != nil {
			Log.Error("fail to record hashtag interest: ", err)
		}
	}
	if item.ContentCategory != nil && *item.ContentCategory != "" {
		if err := interest.RecordInteraction(r.DB, viewerID, model.InterestTypeCategory, *item.ContentCategory, interest.DefaultStrength); err != nil {
			Log.Error("fail to record category interest: ", err)
		}
	}
}

// recompute triggers the engagement scorer. The failure is logged, not
// propagated: the interaction already succeeded and recomputation is
// idempotent, the next interaction will rerun it.
func (r *Recorder) recompute(contentItemID string) {
	if err := engagement.Recalculate(r.DB, contentItemID); err != nil {
		Log.Error("fail to recompute scores for ", contentItemID, ": ", err)
	}
}

// adjustCounter applies one atomic counter mutation, appends the interaction
// log row when the kind participates in the trending window, then triggers
// recomputation. A missing (or soft-deleted) item is a silent no-op.
func (r *Recorder) adjustCounter(contentItemID string, column string, delta int, kind model.InteractionKind, userID *string) error {
	res := r.DB.Model(&model.ContentItem{}).Where("id = ?", contentItemID).
		Update(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "fail to adjust %s", column)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if kind != "" {
		record := model.InteractionRecord{
			Id:            uuid.New().String(),
			CreatedAt:     time.Now(),
			ContentItemID: contentItemID,
			UserID:        userID,
			Kind:          kind,
			Delta:         delta,
		}
		if err := r.DB.Create(&record).Error; err != nil {
			Log.Error("fail to append interaction record: ", err)
		}
	}

	r.recompute(contentItemID)
	return nil
}

func (r *Recorder) RecordLike(contentItemID string, userID string) error {
	return r.adjustCounter(contentItemID, "likes_count", 1, model.InteractionKindLike, &userID)
}

func (r *Recorder) RecordUnlike(contentItemID string, userID string) error {
	return r.adjustCounter(contentItemID, "likes_count", -1, model.InteractionKindLike, &userID)
}

func (r *Recorder) RecordComment(contentItemID string, userID string) error {
	return r.adjustCounter(contentItemID, "comments_count", 1, model.InteractionKindComment, &userID)
}

func (r *Recorder) RecordUncomment(contentItemID string, userID string) error {
	return r.adjustCounter(contentItemID, "comments_count", -1, model.InteractionKindComment, &userID)
}

// RecordReply counts a threaded reply under an existing comment. Replies
// carry their own log kind: they weigh into the engagement score but the
// trending velocity window only counts likes, comments and views.
func (r *Recorder) RecordReply(contentItemID string, userID string) error {
	return r.adjustCounter(contentItemID, "replies_count", 1, model.InteractionKindReply, &userID)
}

func (r *Recorder) RecordShare(contentItemID string, userID string) error {
	return r.adjustCounter(contentItemID, "shares_count", 1, model.InteractionKindShare, &userID)
}

// RecordSave saves the item, optionally into a named collection whose
// membership counter is kept alongside.
func (r *Recorder) RecordSave(contentItemID string, userID string, collectionID *string) error {
	if err := r.adjustCounter(contentItemID, "saves_count", 1, model.InteractionKindSave, &userID); err != nil {
		return err
	}
	if collectionID != nil {
		err := r.DB.Model(&model.PostCollection{}).Where("id = ?", *collectionID).
			Update("posts_count", gorm.Expr("posts_count + 1")).Error
		if err != nil {
			Log.Error("fail to increment collection counter: ", err)
		}
	}
	return nil
}

func (r *Recorder) RecordUnsave(contentItemID string, userID string, collectionID *string) error {
	if err := r.adjustCounter(contentItemID, "saves_count", -1, model.InteractionKindSave, &userID); err != nil {
		return err
	}
	if collectionID != nil {
		err := r.DB.Model(&model.PostCollection{}).Where("id = ?", *collectionID).
			Update("posts_count", gorm.Expr("posts_count - 1")).Error
		if err != nil {
			Log.Error("fail to decrement collection counter: ", err)
		}
	}
	return nil
}

// RecordImpressions bulk-increments impression counters for items delivered
// on a feed page. Impressions feed the virality engagement rate but do not
// trigger a recompute of their own.
func (r *Recorder) RecordImpressions(contentItemIDs []string) error {
	if len(contentItemIDs) == 0 {
		return nil
	}
	err := r.DB.Model(&model.ContentItem{}).
		Where("id IN ?", contentItemIDs).
		Update("impressions_count", gorm.Expr("impressions_count + 1")).Error
	return errors.Wrap(err, "fail to record impressions")
}

// PublishInput is a fully formed content item from the authoring subsystem.
type PublishInput struct {
	AuthorID        string
	Body            string
	ContentType     model.ContentType
	Privacy         model.PrivacyLevel
	ContentCategory *string
	ContentTags     []byte
}

// PublishContent creates the published item, extracts and links its
// hashtags, and emits the publish event for follower feed invalidation.
func (r *Recorder) PublishContent(input PublishInput) (*model.ContentItem, error) {
	item := model.ContentItem{
		Id:              uuid.New().String(),
		CreatedAt:       time.Now(),
		AuthorID:        input.AuthorID,
		Body:            input.Body,
		ContentType:     input.ContentType,
		Privacy:         input.Privacy,
		Status:          model.ContentStatusPublished,
		ContentCategory: input.ContentCategory,
		ContentTags:     input.ContentTags,
	}
	if err := r.DB.Create(&item).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create content item")
	}

	if err := hashtag.ExtractAndSync(r.DB, input.Body, item.Id); err != nil {
		Log.Error("fail to sync hashtags on publish: ", err)
	}

	if r.Bus != nil {
		err := feed.PublishContentPublished(r.Bus, feed.ContentPublishedEvent{
			ContentItemID: item.Id,
			AuthorID:      item.AuthorID,
		})
		if err != nil {
			Log.Error("fail to emit publish event: ", err)
		}
	}
	return &item, nil
}
