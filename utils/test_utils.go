package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ripplehq/ripple/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestCreateUser inserts a user row for tests.
func TestCreateUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	user := model.User{
		Id:        uuid.New().String(),
		CreatedAt: time.Now(),
		Name:      name,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// TestCreateFollow makes follower follow followee.
func TestCreateFollow(t *testing.T, db *gorm.DB, followeeID string, followerID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserFollow{
		FolloweeID: followeeID,
		FollowerID: followerID,
		CreatedAt:  time.Now(),
	}).Error)
}

// TestCreateContentItem inserts a published content item backdated to
// createdAt, so decay and window tests can control item age.
func TestCreateContentItem(t *testing.T, db *gorm.DB, authorID string, contentType model.ContentType, privacy model.PrivacyLevel, createdAt time.Time) *model.ContentItem {
	t.Helper()
	item := model.ContentItem{
		Id:          uuid.New().String(),
		CreatedAt:   createdAt,
		AuthorID:    authorID,
		ContentType: contentType,
		Privacy:     privacy,
		Status:      model.ContentStatusPublished,
	}
	require.NoError(t, db.Create(&item).Error)
	require.NoError(t, db.Model(&model.ContentItem{}).Where("id = ?", item.Id).
		UpdateColumn("created_at", createdAt).Error)
	return &item
}
