package model

import "time"

// InterestType is the dimension an interest signal is keyed on.
type InterestType string

const (
	InterestTypeHashtag  InterestType = "hashtag"
	InterestTypeCategory InterestType = "category"
	InterestTypeCreator  InterestType = "creator"
)

/*

UserInterest is one entry of a user's interest profile: a weighted affinity
for one (type, value) key, e.g. (creator, <author id>) or (hashtag, "golang").

Weight lives in [0, 1] and grows with diminishing returns:
    weight = min(1.0, weight + strength * (1 - weight))
so repeated signals approach 1.0 asymptotically and never overshoot. A
scheduled decay job multiplies all weights by a decay rate and prunes entries
whose weight falls below 0.01.

*/
type UserInterest struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID        string       `gorm:"uniqueIndex:idx_user_interest_key"`
	InterestType  InterestType `gorm:"uniqueIndex:idx_user_interest_key"`
	InterestValue string       `gorm:"uniqueIndex:idx_user_interest_key"`

	Weight            float64 `gorm:"index"`
	InteractionCount  int64
	LastInteractionAt time.Time
}
