package hashtag

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/ripplehq/ripple/model"
	"gorm.io/gorm"
)

// Unicode-aware: letters/digits/underscore of any script.
var tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Top N hashtags by 24h usage get the advisory trending flag.
const trendingTopN = 50

// ExtractTags scans text for hashtags and returns the distinct display forms
// in first-occurrence order. Distinctness is case-insensitive, the display
// casing of the first occurrence wins.
func ExtractTags(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	seen := map[string]bool{}
	tags := []string{}
	for _, m := range matches {
		norm := Normalize(m[1])
		if seen[norm] {
			continue
		}
		seen[norm] = true
		tags = append(tags, m[1])
	}
	return tags
}

// Normalize lowercases a tag for matching and uniqueness.
func Normalize(tag string) string {
	return strings.ToLower(tag)
}

// ExtractAndSync extracts hashtags from content text and makes the content
// item's hashtag associations exactly the extracted set. Usage counters are
// only incremented for associations that are new to this item, so re-syncing
// identical text is idempotent on the counters. Text with no hashtags clears
// all associations.
func ExtractAndSync(db *gorm.DB, contentText string, contentItemID string) error {
	var item model.ContentItem
	if err := db.Preload("Hashtags").Where("id = ?", contentItemID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.Wrap(err, "fail to load content item for hashtag sync")
	}

	existing := map[string]bool{}
	for _, h := range item.Hashtags {
		existing[h.NormalizedName] = true
	}

	tags := ExtractTags(contentText)
	hashtags := make([]*model.Hashtag, 0, len(tags))
	for _, display := range tags {
		h, err := getOrCreate(db, display)
		if err != nil {
			return err
		}

		if !existing[h.NormalizedName] {
			// Atomic column increments, never read-modify-write: hashtag rows
			// are a contention hot spot under viral fan-in.
			err = db.Model(&model.Hashtag{}).Where("id = ?", h.Id).
				Updates(map[string]interface{}{
					"posts_count":     gorm.Expr("posts_count + 1"),
					"usage_count_24h": gorm.Expr("usage_count_24h + 1"),
					"usage_count_7d":  gorm.Expr("usage_count_7d + 1"),
				}).Error
			if err != nil {
				return errors.Wrap(err, "fail to increment hashtag counters")
			}
		}
		hashtags = append(hashtags, h)
	}

	// Replace, not append: tags no longer present in the text are unlinked.
	if err := db.Model(&item).Association("Hashtags").Replace(hashtags); err != nil {
		return errors.Wrap(err, "fail to replace hashtag associations")
	}
	return nil
}

func getOrCreate(db *gorm.DB, displayName string) (*model.Hashtag, error) {
	norm := Normalize(displayName)

	var h model.Hashtag
	err := db.Where("normalized_name = ?", norm).First(&h).Error
	if err == nil {
		return &h, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "fail to look up hashtag")
	}

	h = model.Hashtag{
		Id:             uuid.New().String(),
		CreatedAt:      time.Now(),
		Name:           displayName,
		NormalizedName: norm,
	}
	if err := db.Create(&h).Error; err != nil {
		// Lost a create race, the row exists now.
		if lookupErr := db.Where("normalized_name = ?", norm).First(&h).Error; lookupErr == nil {
			return &h, nil
		}
		return nil, errors.Wrap(err, "fail to create hashtag")
	}
	return &h, nil
}

// Trending returns non-blocked hashtags ordered by 24h usage.
func Trending(db *gorm.DB, limit int) ([]model.Hashtag, error) {
	var tags []model.Hashtag
	err := db.Where("is_blocked = ?", false).
		Order("usage_count_24h desc").
		Limit(limit).
		Find(&tags).Error
	return tags, errors.Wrap(err, "fail to query trending hashtags")
}

// likeEscaper neutralizes LIKE metacharacters so user queries always match
// literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search does a case-insensitive prefix match on the normalized name among
// non-blocked hashtags, most used first.
func Search(db *gorm.DB, prefixQuery string, limit int) ([]model.Hashtag, error) {
	var tags []model.Hashtag
	err := db.Where("is_blocked = ? AND normalized_name LIKE ?", false, likeEscaper.Replace(Normalize(prefixQuery))+"%").
		Order("posts_count desc").
		Limit(limit).
		Find(&tags).Error
	return tags, errors.Wrap(err, "fail to search hashtags")
}

// RefreshTrendingStatus flags the top 50 non-blocked hashtags by 24h usage as
// trending and clears everything else. Idempotent, and safe to run while
// increments are in flight: the flag is advisory, not authoritative.
func RefreshTrendingStatus(db *gorm.DB) error {
	var topIds []string
	err := db.Model(&model.Hashtag{}).
		Where("is_blocked = ? AND usage_count_24h > 0", false).
		Order("usage_count_24h desc").
		Limit(trendingTopN).
		Pluck("id", &topIds).Error
	if err != nil {
		return errors.Wrap(err, "fail to pick trending hashtags")
	}

	if err := db.Model(&model.Hashtag{}).
		Where("is_trending = ?", true).
		Update("is_trending", false).Error; err != nil {
		return errors.Wrap(err, "fail to clear trending flags")
	}
	if len(topIds) == 0 {
		return nil
	}
	err = db.Model(&model.Hashtag{}).
		Where("id IN ?", topIds).
		Update("is_trending", true).Error
	return errors.Wrap(err, "fail to set trending flags")
}

// ResetDailyCounts zeroes every 24h usage counter. Runs on a daily schedule
// owned by an external scheduler. An increment racing the reset may be lost,
// accepted for soft trending signals.
func ResetDailyCounts(db *gorm.DB) error {
	err := db.Model(&model.Hashtag{}).
		Where("usage_count_24h <> 0").
		Update("usage_count_24h", 0).Error
	return errors.Wrap(err, "fail to reset daily hashtag counts")
}

// ResetWeeklyCounts zeroes every 7d usage counter, weekly schedule.
func ResetWeeklyCounts(db *gorm.DB) error {
	err := db.Model(&model.Hashtag{}).
		Where("usage_count_7d <> 0").
		Update("usage_count_7d", 0).Error
	return errors.Wrap(err, "fail to reset weekly hashtag counts")
}
