package feed

import (
	"time"

	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/socialgraph"
	. "github.com/ripplehq/ripple/utils/log"
	"gorm.io/gorm"
)

// TrendingWindow is how far back the trending feed reaches for candidates,
// exclusive at the edge: an item exactly this old is out.
const TrendingWindow = 7 * 24 * time.Hour

/*

Assembler composes the ranked / chronological feed surfaces on top of the
scores the engagement scorer persisted. Every feed is read-through cached:
consult the cache, on miss run the candidate query, store the ordering.

Cache failures only remove the performance benefit: a broken cache never
fails a feed read, the assembler logs and recomputes directly.

All score-ordered feeds tie-break on creation time descending so pagination
is deterministic across repeated calls with identical scores.

*/
type Assembler struct {
	DB    *gorm.DB
	Cache CacheStore
	Graph socialgraph.Graph
}

func NewAssembler(db *gorm.DB, cache CacheStore, graph socialgraph.Graph) *Assembler {
	return &Assembler{DB: db, Cache: cache, Graph: graph}
}

// pageOf maps limit/offset pagination onto the cache's page key space.
func pageOf(limit int, offset int) int {
	if limit <= 0 {
		return 0
	}
	return offset / limit
}

func (a *Assembler) readThrough(userID string, feedType model.FeedType, limit int, offset int, compute func() ([]string, error)) ([]string, error) {
	page := pageOf(limit, offset)

	// Offsets that don't land on a page boundary request a window the page
	// key space cannot represent. Serve them uncached rather than handing
	// back the aligned page's entry.
	if limit <= 0 || offset%limit != 0 {
		return compute()
	}

	ids, hit, err := a.Cache.Get(userID, feedType, limit, page)
	if err != nil {
		Log.Error("feed cache read failed, serving uncached: ", err)
	} else if hit {
		return ids, nil
	}

	ids, err = compute()
	if err != nil {
		return nil, err
	}

	if err := a.Cache.Put(userID, feedType, ids, limit, page, DefaultCacheTTL); err != nil {
		Log.Error("feed cache write failed: ", err)
	}
	return ids, nil
}

// ForYou is the main discovery feed: public, published items not authored by
// the requester, ranked by 0.4*trending + 0.6*engagement. Personalization
// enters through the interaction history that already shaped the persisted
// scores, the formula itself does not re-weight by interest profile.
func (a *Assembler) ForYou(userID string, limit int, offset int) ([]string, error) {
	return a.readThrough(userID, model.FeedTypeForYou, limit, offset, func() ([]string, error) {
		var ids []string
		err := a.DB.Model(&model.ContentItem{}).
			Where("privacy = ? AND status = ? AND author_id <> ?",
				model.PrivacyPublic, model.ContentStatusPublished, userID).
			Order("(trending_score * 0.4 + engagement_score * 0.6) desc, created_at desc").
			Limit(limit).
			Offset(offset).
			Pluck("content_items.id", &ids).Error
		return ids, errors.Wrap(err, "fail to assemble for_you feed")
	})
}

// Following is deliberately chronological, not algorithmic: everything the
// followed users published under public or friends privacy, newest first.
func (a *Assembler) Following(userID string, limit int, offset int) ([]string, error) {
	return a.readThrough(userID, model.FeedTypeFollowing, limit, offset, func() ([]string, error) {
		friendIds, err := a.Graph.FriendIds(userID)
		if err != nil {
			return nil, err
		}
		if len(friendIds) == 0 {
			return []string{}, nil
		}

		var ids []string
		err = a.DB.Model(&model.ContentItem{}).
			Where("author_id IN ? AND privacy IN ? AND status = ?",
				friendIds,
				[]model.PrivacyLevel{model.PrivacyPublic, model.PrivacyFriends},
				model.ContentStatusPublished).
			Order("created_at desc").
			Limit(limit).
			Offset(offset).
			Pluck("content_items.id", &ids).Error
		return ids, errors.Wrap(err, "fail to assemble following feed")
	})
}

// Shorts ranks public published short-form video 50/50 between trending and
// engagement.
func (a *Assembler) Shorts(userID string, limit int, offset int) ([]string, error) {
	return a.readThrough(userID, model.FeedTypeShorts, limit, offset, func() ([]string, error) {
		var ids []string
		err := a.DB.Model(&model.ContentItem{}).
			Where("privacy = ? AND status = ? AND content_type = ? AND author_id <> ?",
				model.PrivacyPublic, model.ContentStatusPublished, model.ContentTypeShortVideo, userID).
			Order("(trending_score * 0.5 + engagement_score * 0.5) desc, created_at desc").
			Limit(limit).
			Offset(offset).
			Pluck("content_items.id", &ids).Error
		return ids, errors.Wrap(err, "fail to assemble shorts feed")
	})
}

// Trending is the global surface: public published items from the trailing 7
// days by trending score alone. Not user-scoped, cached under a shared key
// and only invalidated by TTL.
func (a *Assembler) Trending(limit int, offset int) ([]string, error) {
	return a.readThrough(GlobalFeedUser, model.FeedTypeTrending, limit, offset, func() ([]string, error) {
		cutoff := time.Now().Add(-TrendingWindow)

		var ids []string
		err := a.DB.Model(&model.ContentItem{}).
			Where("privacy = ? AND status = ? AND created_at > ?",
				model.PrivacyPublic, model.ContentStatusPublished, cutoff).
			Order("trending_score desc, created_at desc").
			Limit(limit).
			Offset(offset).
			Pluck("content_items.id", &ids).Error
		return ids, errors.Wrap(err, "fail to assemble trending feed")
	})
}

// Discover is the for_you candidate set without the self-author exclusion,
// used by the explore surface.
func (a *Assembler) Discover(userID string, limit int, offset int) ([]string, error) {
	return a.readThrough(userID, model.FeedTypeDiscover, limit, offset, func() ([]string, error) {
		var ids []string
		err := a.DB.Model(&model.ContentItem{}).
			Where("privacy = ? AND status = ?", model.PrivacyPublic, model.ContentStatusPublished).
			Order("(trending_score * 0.4 + engagement_score * 0.6) desc, created_at desc").
			Limit(limit).
			Offset(offset).
			Pluck("content_items.id", &ids).Error
		return ids, errors.Wrap(err, "fail to assemble discover feed")
	})
}
