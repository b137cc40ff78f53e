package model

// FeedType names one of the ranked/chronological feed surfaces. It is part
// of the feed cache key space, partitioned by (user, feed type, page).
type FeedType string

const (
	FeedTypeForYou    FeedType = "for_you"
	FeedTypeFollowing FeedType = "following"
	FeedTypeTrending  FeedType = "trending"
	FeedTypeDiscover  FeedType = "discover"
	FeedTypeShorts    FeedType = "shorts"
)

// ValidFeedType reports whether t is one of the known feed surfaces.
func ValidFeedType(t FeedType) bool {
	switch t {
	case FeedTypeForYou, FeedTypeFollowing, FeedTypeTrending, FeedTypeDiscover, FeedTypeShorts:
		return true
	}
	return false
}
