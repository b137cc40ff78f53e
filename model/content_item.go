package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentType is the media shape of a content item. short_video gets the
// largest media boost during scoring, plain text gets none.
type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypePhoto      ContentType = "photo"
	ContentTypeVideo      ContentType = "video"
	ContentTypeShortVideo ContentType = "short_video"
	ContentTypeAudio      ContentType = "audio"
	ContentTypeAudioText  ContentType = "audio_text"
	ContentTypeImageText  ContentType = "image_text"
	ContentTypePoll       ContentType = "poll"
	ContentTypeShared     ContentType = "shared"
)

// PrivacyLevel controls which feeds a content item is eligible for.
type PrivacyLevel string

const (
	PrivacyPublic  PrivacyLevel = "public"
	PrivacyFriends PrivacyLevel = "friends"
	PrivacyPrivate PrivacyLevel = "private"
)

// ContentStatus is the publication lifecycle state. Only published items are
// ever ranked into feeds.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

/*

ContentItem is a unit of user generated content (a post)

Id: primary key
CreatedAt: time when entity is created, also the anchor for time decay
DeletedAt: soft delete marker, soft deleted items are excluded from all feeds
AuthorID:
Author: user who published this item, "belongs-to" relation

Body: raw content text, scanned for hashtags on publish
ContentType: media shape, see ContentType enum
Privacy: visibility level, see PrivacyLevel enum
Status: publication lifecycle, see ContentStatus enum
ContentCategory: optional editorial/ML classification, feeds interest signals
ContentTags: free-form tag list attached by the authoring subsystem

Raw counters (LikesCount ... ReachNonFollowers) are mutated only by the
interaction recorder, always through atomic column increments.

Derived fields (EngagementScore, TrendingScore, IsViral) are mutated only by
the engagement scorer and are always written together in a single update.
They are a pure function of the raw counters, the creation time and the
trailing 24h view/interaction window at recomputation time. They may be stale
between recomputations but never diverge from the formula.

Hashtags: normalized hashtags extracted from Body, "many-to-many" relation

*/
type ContentItem struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt
	AuthorID  string `gorm:"index"`
	Author    User

	Body            string
	ContentType     ContentType   `gorm:"index"`
	Privacy         PrivacyLevel  `gorm:"index"`
	Status          ContentStatus `gorm:"index"`
	ContentCategory *string
	ContentTags     datatypes.JSON

	LikesCount        int64
	CommentsCount     int64
	SharesCount       int64
	ViewsCount        int64
	ImpressionsCount  int64
	WatchTimeSeconds  int64
	SavesCount        int64
	RepliesCount      int64
	ReachFollowers    int64
	ReachNonFollowers int64

	EngagementScore float64 `gorm:"index"`
	TrendingScore   float64 `gorm:"index"`
	IsViral         bool

	Hashtags []*Hashtag `gorm:"many2many:content_hashtags;"`
}
