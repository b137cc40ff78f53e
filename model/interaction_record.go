package model

import "time"

// InteractionKind tags one row of the interaction log.
type InteractionKind string

const (
	InteractionKindLike    InteractionKind = "like"
	InteractionKindComment InteractionKind = "comment"
	InteractionKindReply   InteractionKind = "reply"
	InteractionKindShare   InteractionKind = "share"
	InteractionKindSave    InteractionKind = "save"
)

/*

InteractionRecord is the append-only log of non-view interactions, used by
the engagement scorer to aggregate the trailing 24h velocity window. Undo
actions (unlike, uncomment, unsave) append a compensating row with Delta -1
rather than deleting, so window sums stay correct.

Raw counters on ContentItem remain the authoritative totals. This log only
answers "how much happened recently".

*/
type InteractionRecord struct {
	Id            string    `gorm:"primaryKey"`
	CreatedAt     time.Time `gorm:"index"`
	ContentItemID string    `gorm:"index"`
	UserID        *string
	Kind          InteractionKind
	Delta         int
}
