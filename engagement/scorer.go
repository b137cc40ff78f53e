package engagement

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"gorm.io/gorm"
)

// Scoring weights per interaction kind. Replies are the strongest signal,
// raw views the weakest.
const (
	replyWeight   = 3.0
	shareWeight   = 2.5
	commentWeight = 2.0
	saveWeight    = 1.8
	likeWeight    = 1.0
	viewWeight    = 0.1

	// Average watch seconds per view is worth half a point each for video
	// content.
	watchTimeBonusWeight = 0.5

	// Engagement score halves every 6 hours.
	decayHalfLifeHours = 6.0

	// Trending velocity window.
	trendingWindow = 24 * time.Hour

	// Freshness boost of the trending score is capped at 2x so very young
	// items cannot dominate purely from the normalizer.
	maxAgeNormalizer = 2.0

	// Virality thresholds, both strict.
	viralRawScoreThreshold       = 100.0
	viralEngagementRateThreshold = 0.05
)

// RawScore is the weighted, undecayed, unboosted interaction score of an
// item, including the average-watch-time bonus for video content. This is
// the value the virality check compares against its fixed threshold, which
// makes virality implicitly harder for boosted content types. Preserved as
// observed product behavior.
func RawScore(item *model.ContentItem) float64 {
	score := float64(item.RepliesCount)*replyWeight +
		float64(item.SharesCount)*shareWeight +
		float64(item.CommentsCount)*commentWeight +
		float64(item.SavesCount)*saveWeight +
		float64(item.LikesCount)*likeWeight +
		float64(item.ViewsCount)*viewWeight

	if isVideo(item.ContentType) && item.ViewsCount > 0 {
		avgWatch := float64(item.WatchTimeSeconds) / float64(item.ViewsCount)
		score += avgWatch * watchTimeBonusWeight
	}
	return score
}

// MediaBoost is the content-type multiplier applied to the raw score.
// Short-form video takes precedence over the generic video boost.
func MediaBoost(t model.ContentType) float64 {
	switch t {
	case model.ContentTypeShortVideo:
		return 2.0
	case model.ContentTypeVideo:
		return 1.5
	case model.ContentTypePhoto:
		return 1.2
	}
	return 1.0
}

// DecayFactor is 0.5^(hoursOld/6). Negative ages (clock skew, scheduled
// posts) are clamped to zero.
func DecayFactor(hoursOld float64) float64 {
	if hoursOld < 0 {
		hoursOld = 0
	}
	return math.Pow(0.5, hoursOld/decayHalfLifeHours)
}

// ageNormalizer scales the velocity window sum by item freshness,
// min(24/max(hoursOld, 1), 2).
func ageNormalizer(hoursOld float64) float64 {
	return math.Min(trendingWindow.Hours()/math.Max(hoursOld, 1), maxAgeNormalizer)
}

func isVideo(t model.ContentType) bool {
	return t == model.ContentTypeVideo || t == model.ContentTypeShortVideo
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

// IsViral applies the rate-based virality classification, both comparisons
// strict. Recomputed fresh every time, the flag may flip off when counters
// regress relative to a growing impression base.
func IsViral(rawScore float64, engagementRate float64) bool {
	return rawScore > viralRawScoreThreshold && engagementRate > viralEngagementRateThreshold
}

// EngagementRate is (likes+comments+shares)/impressions, zero when the item
// has no impressions yet.
func EngagementRate(item *model.ContentItem) float64 {
	if item.ImpressionsCount <= 0 {
		return 0
	}
	return float64(item.LikesCount+item.CommentsCount+item.SharesCount) / float64(item.ImpressionsCount)
}

// recentWindowScore sums the trailing-24h interaction log:
// likes*1.0 + comments*2.0 + views*0.1.
func recentWindowScore(db *gorm.DB, contentItemID string, now time.Time) (float64, error) {
	since := now.Add(-trendingWindow)

	var recentViews int64
	if err := db.Model(&model.View{}).
		Where("content_item_id = ? AND created_at > ?", contentItemID, since).
		Count(&recentViews).Error; err != nil {
		return 0, errors.Wrap(err, "fail to count recent views")
	}

	type kindSum struct {
		Kind  model.InteractionKind
		Total int64
	}
	var sums []kindSum
	if err := db.Model(&model.InteractionRecord{}).
		Select("kind, COALESCE(SUM(delta), 0) as total").
		Where("content_item_id = ? AND created_at > ?", contentItemID, since).
		Group("kind").
		Scan(&sums).Error; err != nil {
		return 0, errors.Wrap(err, "fail to sum recent interactions")
	}

	var recentLikes, recentComments int64
	for _, s := range sums {
		switch s.Kind {
		case model.InteractionKindLike:
			recentLikes = s.Total
		case model.InteractionKindComment:
			recentComments = s.Total
		}
	}

	return float64(recentLikes)*likeWeight +
		float64(recentComments)*commentWeight +
		float64(recentViews)*viewWeight, nil
}

// Recalculate recomputes engagement score, trending score and the virality
// flag for one content item and writes all three in a single update.
//
// The computation is a pure function of the item's counters, its age and the
// trailing 24h interaction window, so recomputations are idempotent and safe
// to re-run with a stale counter snapshot. Concurrent recomputations are
// last-writer-wins. A missing item (deleted between interaction and
// recompute) is a silent no-op.
func Recalculate(db *gorm.DB, contentItemID string) error {
	return RecalculateAt(db, contentItemID, time.Now())
}

// RecalculateAt is Recalculate with an injectable clock.
func RecalculateAt(db *gorm.DB, contentItemID string, now time.Time) error {
	var item model.ContentItem
	if err := db.Where("id = ?", contentItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to recompute.
			return nil
		}
		return errors.Wrap(err, "fail to load content item for recompute")
	}

	hoursOld := now.Sub(item.CreatedAt).Hours()
	if hoursOld < 0 {
		hoursOld = 0
	}

	rawScore := RawScore(&item)
	engagementScore := round4(rawScore * MediaBoost(item.ContentType) * DecayFactor(hoursOld))

	recentScore, err := recentWindowScore(db, contentItemID, now)
	if err != nil {
		return err
	}
	trendingScore := round4(recentScore * ageNormalizer(hoursOld))

	isViral := IsViral(rawScore, EngagementRate(&item))

	// All three derived fields land together, no partial writes.
	err = db.Model(&model.ContentItem{}).
		Where("id = ?", contentItemID).
		Updates(map[string]interface{}{
			"engagement_score": engagementScore,
			"trending_score":   trendingScore,
			"is_viral":         isViral,
		}).Error
	return errors.Wrap(err, "fail to persist derived scores")
}
