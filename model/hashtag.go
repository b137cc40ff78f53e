package model

import "time"

/*

Hashtag is a normalized tag extracted from content item bodies

Name: display name, casing from the first occurrence ever seen
NormalizedName: lowercased form, unique, all matching is done on this column
PostsCount: total number of content items that ever used this tag
UsageCount24h / UsageCount7d: rolling usage counters, zeroed by the daily /
weekly reset jobs. Increments and resets are not transactionally ordered, an
increment racing a reset may be lost. Accepted, these are soft trending
signals.
IsTrending: advisory flag recomputed by RefreshTrendingStatus, top 50 by 24h
usage. Not authoritative, may lag behind the counters.
IsBlocked: blocked tags are excluded from trending and search

*/
type Hashtag struct {
	Id             string `gorm:"primaryKey"`
	CreatedAt      time.Time
	Name           string
	NormalizedName string `gorm:"uniqueIndex"`

	PostsCount    int64
	UsageCount24h int64 `gorm:"index"`
	UsageCount7d  int64
	IsTrending    bool
	IsBlocked     bool

	ContentItems []*ContentItem `gorm:"many2many:content_hashtags;"`
}
