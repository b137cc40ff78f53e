package interest

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"gorm.io/gorm"
)

const (
	// DefaultStrength is the per-signal weight bump before diminishing
	// returns.
	DefaultStrength = 0.1

	// DefaultDecayRate is the multiplicative factor the scheduled decay job
	// applies to every weight.
	DefaultDecayRate = 0.95

	// Entries decayed below this floor are pruned.
	minWeight = 0.01
)

// RecordInteraction bumps the (user, type, value) affinity entry with
// diminishing returns: weight = min(1.0, weight + strength*(1-weight)).
// Repeated signals approach 1.0 asymptotically and never overshoot. The
// update runs as a single SQL expression, interest rows of popular creators
// are a fan-in hot spot.
func RecordInteraction(db *gorm.DB, userID string, interestType model.InterestType, value string, strength float64) error {
	now := time.Now()

	res := db.Model(&model.UserInterest{}).
		Where("user_id = ? AND interest_type = ? AND interest_value = ?", userID, interestType, value).
		Updates(map[string]interface{}{
			"weight":              gorm.Expr("LEAST(1.0, weight + ? * (1 - weight))", strength),
			"interaction_count":   gorm.Expr("interaction_count + 1"),
			"last_interaction_at": now,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "fail to update interest entry")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	entry := model.UserInterest{
		Id:                uuid.New().String(),
		CreatedAt:         now,
		UserID:            userID,
		InterestType:      interestType,
		InterestValue:     value,
		Weight:            strength, // min(1, 0 + strength*(1-0))
		InteractionCount:  1,
		LastInteractionAt: now,
	}
	if err := db.Create(&entry).Error; err != nil {
		// Lost a create race, fold this signal into the winner's row.
		retry := db.Model(&model.UserInterest{}).
			Where("user_id = ? AND interest_type = ? AND interest_value = ?", userID, interestType, value).
			Updates(map[string]interface{}{
				"weight":              gorm.Expr("LEAST(1.0, weight + ? * (1 - weight))", strength),
				"interaction_count":   gorm.Expr("interaction_count + 1"),
				"last_interaction_at": now,
			})
		if retry.Error != nil || retry.RowsAffected == 0 {
			return errors.Wrap(err, "fail to create interest entry")
		}
	}
	return nil
}

// DecayWeights multiplies every weight by decayRate and prunes entries that
// fall below the floor. Scheduled (e.g. daily) batch job, deliberately off
// the hot interaction path so recency still dominates ranking over time.
func DecayWeights(db *gorm.DB, decayRate float64) error {
	err := db.Model(&model.UserInterest{}).
		Where("weight > 0").
		Update("weight", gorm.Expr("weight * ?", decayRate)).Error
	if err != nil {
		return errors.Wrap(err, "fail to decay interest weights")
	}

	err = db.Where("weight < ?", minWeight).Delete(&model.UserInterest{}).Error
	return errors.Wrap(err, "fail to prune decayed interest entries")
}

// TopInterests returns the user's entries by descending weight.
func TopInterests(db *gorm.DB, userID string, limit int) ([]model.UserInterest, error) {
	var entries []model.UserInterest
	err := db.Where("user_id = ?", userID).
		Order("weight desc").
		Limit(limit).
		Find(&entries).Error
	return entries, errors.Wrap(err, "fail to query top interests")
}

// InterestsByType returns just the values of the user's strongest entries of
// one type, e.g. the creator ids a user is most attached to.
func InterestsByType(db *gorm.DB, userID string, interestType model.InterestType, limit int) ([]string, error) {
	var values []string
	err := db.Model(&model.UserInterest{}).
		Where("user_id = ? AND interest_type = ?", userID, interestType).
		Order("weight desc").
		Limit(limit).
		Pluck("interest_value", &values).Error
	return values, errors.Wrap(err, "fail to query interests by type")
}
