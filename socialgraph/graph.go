// Package socialgraph is the boundary to the social-graph subsystem. The
// engagement core only ever asks two questions of it: reach attribution
// (does the viewer follow the author) and the following-feed candidate set.
package socialgraph

import (
	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"gorm.io/gorm"
)

type Graph interface {
	// IsFollower reports whether followerID follows followeeID.
	IsFollower(followeeID string, followerID string) (bool, error)
	// FriendIds returns the ids of the users userID follows.
	FriendIds(userID string) ([]string, error)
	// FollowerIds returns the ids of the users following userID, used for
	// publish-time feed invalidation fan-out.
	FollowerIds(userID string) ([]string, error)
}

// DBGraph answers from the local user_follows table.
type DBGraph struct {
	DB *gorm.DB
}

func NewDBGraph(db *gorm.DB) *DBGraph {
	return &DBGraph{DB: db}
}

func (g *DBGraph) IsFollower(followeeID string, followerID string) (bool, error) {
	var count int64
	err := g.DB.Model(&model.UserFollow{}).
		Where("followee_id = ? AND follower_id = ?", followeeID, followerID).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "fail to look up follow edge")
}

func (g *DBGraph) FriendIds(userID string) ([]string, error) {
	var ids []string
	err := g.DB.Model(&model.UserFollow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, errors.Wrap(err, "fail to list followees")
}

func (g *DBGraph) FollowerIds(userID string) ([]string, error) {
	var ids []string
	err := g.DB.Model(&model.UserFollow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, errors.Wrap(err, "fail to list followers")
}
