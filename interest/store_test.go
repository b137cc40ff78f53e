package interest

import (
	"os"
	"testing"

	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/utils"
	"github.com/ripplehq/ripple/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestRecordInteractionDiminishingReturns(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	var entry model.UserInterest
	previous := 0.0
	for i := 0; i < 200; i++ {
		require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeHashtag, "golang", DefaultStrength))
		require.NoError(t, db.Where("user_id = ?", "u1").First(&entry).Error)

		// Monotonically non-decreasing, never exceeding 1.0.
		require.GreaterOrEqual(t, entry.Weight, previous)
		require.LessOrEqual(t, entry.Weight, 1.0)
		previous = entry.Weight
	}

	require.Equal(t, int64(200), entry.InteractionCount)
	// After 200 signals at 0.1 strength the weight is essentially saturated.
	require.Greater(t, entry.Weight, 0.99)
}

func TestRecordInteractionFirstSignal(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeCreator, "author-1", 0.3))

	var entry model.UserInterest
	require.NoError(t, db.Where("user_id = ?", "u1").First(&entry).Error)
	require.InDelta(t, 0.3, entry.Weight, 1e-9)
	require.Equal(t, int64(1), entry.InteractionCount)
	require.False(t, entry.LastInteractionAt.IsZero())
}

func TestDecayWeightsPrunesFloor(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeHashtag, "strong", 0.9))
	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeHashtag, "weak", 0.01))

	require.NoError(t, DecayWeights(db, DefaultDecayRate))

	var entries []model.UserInterest
	require.NoError(t, db.Where("user_id = ?", "u1").Find(&entries).Error)
	// 0.01 * 0.95 falls below the 0.01 floor and is pruned, 0.9 survives.
	require.Len(t, entries, 1)
	require.Equal(t, "strong", entries[0].InterestValue)
	require.InDelta(t, 0.9*DefaultDecayRate, entries[0].Weight, 1e-9)
}

func TestTopInterestsOrdering(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeHashtag, "mid", 0.5))
	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeCreator, "top", 0.9))
	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeCategory, "low", 0.1))
	require.NoError(t, RecordInteraction(db, "u2", model.InterestTypeHashtag, "other-user", 0.99))

	entries, err := TopInterests(db, "u1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "top", entries[0].InterestValue)
	require.Equal(t, "mid", entries[1].InterestValue)
}

func TestInterestsByType(t *testing.T) {
	db, _ := utils.CreateTempDB(t)

	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeHashtag, "golang", 0.8))
	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeHashtag, "music", 0.4))
	require.NoError(t, RecordInteraction(db, "u1", model.InterestTypeCreator, "author-1", 0.9))

	values, err := InterestsByType(db, "u1", model.InterestTypeHashtag, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"golang", "music"}, values)
}
