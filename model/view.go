package model

import "time"

// ViewSource is the surface a view originated from.
type ViewSource string

const (
	ViewSourceFeed     ViewSource = "feed"
	ViewSourceProfile  ViewSource = "profile"
	ViewSourceDiscover ViewSource = "discover"
	ViewSourceSearch   ViewSource = "search"
	ViewSourceShare    ViewSource = "share"
	ViewSourceShorts   ViewSource = "shorts"
)

/*

View is an immutable record of one view of a content item. Views are an
append-only log: rows are never updated or deleted. The engagement scorer
aggregates the trailing 24h of this log for the trending velocity score.

ViewerID is nullable, anonymous views carry no identity.
SessionID groups views from one client session.
IsCompleteView is set when WatchPercentage >= 95.
IsReplay is true iff the same viewer already has a prior view row for the
same content item. Anonymous views are never replays.

*/
type View struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time `gorm:"index"`
	ContentItemID string    `gorm:"index:idx_views_item_viewer"`
	ViewerID      *string   `gorm:"index:idx_views_item_viewer"`
	SessionID     *string

	WatchTimeSeconds int
	WatchPercentage  float64
	IsCompleteView   bool
	IsReplay         bool
	Source           ViewSource
	DeviceType       *string
}
