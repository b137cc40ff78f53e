package model

import "time"

// PostCollection is a user-named folder of saved content items. Only the
// membership counter lives here, the saved items themselves are tracked by
// the interaction recorder.
type PostCollection struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	OwnerID   string `gorm:"index"`
	Name      string

	PostsCount int64
}
