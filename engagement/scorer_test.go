package engagement

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/utils"
	"github.com/ripplehq/ripple/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestRawScoreWeights(t *testing.T) {
	item := model.ContentItem{
		ContentType:   model.ContentTypeText,
		RepliesCount:  1,
		SharesCount:   1,
		CommentsCount: 1,
		SavesCount:    1,
		LikesCount:    1,
		ViewsCount:    1,
	}
	require.InDelta(t, 3.0+2.5+2.0+1.8+1.0+0.1, RawScore(&item), 1e-9)
}

func TestRawScoreWatchTimeBonus(t *testing.T) {
	item := model.ContentItem{
		ContentType:      model.ContentTypeVideo,
		ViewsCount:       50,
		WatchTimeSeconds: 1500,
	}
	// 50 views * 0.1 + (1500/50) * 0.5
	require.InDelta(t, 5.0+15.0, RawScore(&item), 1e-9)

	// No bonus without views, and none for non-video content.
	item.ViewsCount = 0
	require.InDelta(t, 0, RawScore(&item), 1e-9)

	text := model.ContentItem{
		ContentType:      model.ContentTypeText,
		ViewsCount:       50,
		WatchTimeSeconds: 1500,
	}
	require.InDelta(t, 5.0, RawScore(&text), 1e-9)
}

func TestMediaBoostPrecedence(t *testing.T) {
	require.Equal(t, 2.0, MediaBoost(model.ContentTypeShortVideo))
	require.Equal(t, 1.5, MediaBoost(model.ContentTypeVideo))
	require.Equal(t, 1.2, MediaBoost(model.ContentTypePhoto))
	require.Equal(t, 1.0, MediaBoost(model.ContentTypeText))
	require.Equal(t, 1.0, MediaBoost(model.ContentTypePoll))
}

func TestDecayFactor(t *testing.T) {
	// Half-life: exactly 0.5 at 6 hours, 0.25 at 12.
	require.InDelta(t, 1.0, DecayFactor(0), 1e-9)
	require.InDelta(t, 0.5, DecayFactor(6), 1e-9)
	require.InDelta(t, 0.25, DecayFactor(12), 1e-9)

	// Strictly decreasing in age.
	prev := DecayFactor(0)
	for h := 1.0; h <= 48; h++ {
		cur := DecayFactor(h)
		require.Less(t, cur, prev)
		prev = cur
	}

	// Negative age (scheduled publish, clock skew) clamps to no decay.
	require.InDelta(t, 1.0, DecayFactor(-3), 1e-9)
}

func TestIsViralBoundaries(t *testing.T) {
	// Both comparisons are strict.
	require.False(t, IsViral(100, 0.5))
	require.False(t, IsViral(100.01, 0.05))
	require.False(t, IsViral(500, 0.05))
	require.True(t, IsViral(101, 0.051))
	require.True(t, IsViral(100.01, 0.0501))
}

func TestEngagementRate(t *testing.T) {
	item := model.ContentItem{
		LikesCount:       10,
		CommentsCount:    5,
		SharesCount:      5,
		ImpressionsCount: 400,
	}
	require.InDelta(t, 0.05, EngagementRate(&item), 1e-9)

	item.ImpressionsCount = 0
	require.InDelta(t, 0, EngagementRate(&item), 1e-9)
}

// The canonical scenario: a short video published at T, scored at T+1h after
// 50 views (1500s total watch), 10 likes, 2 comments, 1 share, 1 save.
func TestRecalculateShortVideoScenario(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	author := utils.TestCreateUser(t, db, "author")
	createdAt := time.Now().Add(-time.Hour)
	item := utils.TestCreateContentItem(t, db, author.Id, model.ContentTypeShortVideo, model.PrivacyPublic, createdAt)

	require.NoError(t, db.Model(&model.ContentItem{}).Where("id = ?", item.Id).
		Updates(map[string]interface{}{
			"views_count":        50,
			"watch_time_seconds": 1500,
			"likes_count":        10,
			"comments_count":     2,
			"shares_count":       1,
			"saves_count":        1,
		}).Error)

	// Interactions land inside the trailing 24h window.
	viewer := "viewer"
	for i := 0; i < 50; i++ {
		require.NoError(t, db.Create(&model.View{
			Id:            uuid.New().String(),
			CreatedAt:     time.Now().Add(-30 * time.Minute),
			ContentItemID: item.Id,
			ViewerID:      &viewer,
		}).Error)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, db.Create(&model.InteractionRecord{
			Id:            uuid.New().String(),
			CreatedAt:     time.Now().Add(-30 * time.Minute),
			ContentItemID: item.Id,
			Kind:          model.InteractionKindLike,
			Delta:         1,
		}).Error)
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&model.InteractionRecord{
			Id:            uuid.New().String(),
			CreatedAt:     time.Now().Add(-30 * time.Minute),
			ContentItemID: item.Id,
			Kind:          model.InteractionKindComment,
			Delta:         1,
		}).Error)
	}

	require.NoError(t, RecalculateAt(db, item.Id, createdAt.Add(time.Hour)))

	var got model.ContentItem
	require.NoError(t, db.Where("id = ?", item.Id).First(&got).Error)

	// raw = 10 + 4 + 2.5 + 1.8 + 5 + avg-watch bonus 15 = 38.3
	// engagement = 38.3 * 2.0 * 0.5^(1/6) = 68.2428...
	require.InDelta(t, 68.2428, got.EngagementScore, 0.001)

	// recent = 10*1.0 + 2*2.0 + 50*0.1 = 19, normalizer at 1h caps at 2x.
	require.InDelta(t, 38.0, got.TrendingScore, 0.001)

	// raw 38.3 is below the viral threshold regardless of rate.
	require.False(t, got.IsViral)
}

func TestRecalculateDecayMonotonic(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	author := utils.TestCreateUser(t, db, "author")
	createdAt := time.Now().Add(-time.Hour)
	item := utils.TestCreateContentItem(t, db, author.Id, model.ContentTypeText, model.PrivacyPublic, createdAt)
	require.NoError(t, db.Model(&model.ContentItem{}).Where("id = ?", item.Id).
		Update("likes_count", 100).Error)

	var previous float64
	for i, age := range []time.Duration{time.Hour, 6 * time.Hour, 12 * time.Hour, 24 * time.Hour} {
		require.NoError(t, RecalculateAt(db, item.Id, createdAt.Add(age)))
		var got model.ContentItem
		require.NoError(t, db.Where("id = ?", item.Id).First(&got).Error)
		if i > 0 {
			require.Less(t, got.EngagementScore, previous)
		}
		previous = got.EngagementScore
	}

	// At the half-life the decayed score is exactly half the raw score.
	require.NoError(t, RecalculateAt(db, item.Id, createdAt.Add(6*time.Hour)))
	var got model.ContentItem
	require.NoError(t, db.Where("id = ?", item.Id).First(&got).Error)
	require.InDelta(t, 50.0, got.EngagementScore, 0.001)
}

func TestRecalculateMissingItemIsNoop(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	require.NoError(t, Recalculate(db, "does-not-exist"))
}

func TestRecalculateViralFlagFlipsBothWays(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	author := utils.TestCreateUser(t, db, "author")
	item := utils.TestCreateContentItem(t, db, author.Id, model.ContentTypeText, model.PrivacyPublic, time.Now())

	require.NoError(t, db.Model(&model.ContentItem{}).Where("id = ?", item.Id).
		Updates(map[string]interface{}{
			"likes_count":       200, // raw 200
			"impressions_count": 1000,
		}).Error)
	require.NoError(t, Recalculate(db, item.Id))

	var got model.ContentItem
	require.NoError(t, db.Where("id = ?", item.Id).First(&got).Error)
	require.True(t, got.IsViral)

	// The impression base grows, the rate drops below 5%, the flag drops.
	// Virality is a current rate, not a historical peak.
	require.NoError(t, db.Model(&model.ContentItem{}).Where("id = ?", item.Id).
		Update("impressions_count", 100000).Error)
	require.NoError(t, Recalculate(db, item.Id))
	require.NoError(t, db.Where("id = ?", item.Id).First(&got).Error)
	require.False(t, got.IsViral)
}
