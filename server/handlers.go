package server

import (
	"net/http"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/ripplehq/ripple/feed"
	"github.com/ripplehq/ripple/hashtag"
	"github.com/ripplehq/ripple/interaction"
	"github.com/ripplehq/ripple/interest"
	"github.com/ripplehq/ripple/model"
	"github.com/ripplehq/ripple/utils"
	. "github.com/ripplehq/ripple/utils/log"
	"gorm.io/gorm"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// APIHandler wires the engagement core behind the REST surface. Input
// validation happens here at the boundary, the core assumes validated
// inputs.
type APIHandler struct {
	DB        *gorm.DB
	Recorder  *interaction.Recorder
	Assembler *feed.Assembler
	Cache     feed.CacheStore
	Statsd    *statsd.Client
}

// Register binds every route onto the router.
func (h *APIHandler) Register(router *gin.Engine) {
	v1 := router.Group("/v1")

	v1.POST("/content", h.publishContent)
	v1.POST("/content/:id/views", h.recordView)
	v1.POST("/content/:id/likes", h.interactionHandler(h.Recorder.RecordLike, "like"))
	v1.DELETE("/content/:id/likes", h.interactionHandler(h.Recorder.RecordUnlike, "unlike"))
	v1.POST("/content/:id/comments", h.interactionHandler(h.Recorder.RecordComment, "comment"))
	v1.DELETE("/content/:id/comments", h.interactionHandler(h.Recorder.RecordUncomment, "uncomment"))
	v1.POST("/content/:id/replies", h.interactionHandler(h.Recorder.RecordReply, "reply"))
	v1.POST("/content/:id/shares", h.interactionHandler(h.Recorder.RecordShare, "share"))
	v1.POST("/content/:id/saves", h.recordSave)
	v1.DELETE("/content/:id/saves", h.recordUnsave)
	v1.POST("/impressions", h.recordImpressions)

	v1.GET("/feeds/:type", h.getFeed)

	v1.GET("/hashtags/trending", h.trendingHashtags)
	v1.GET("/hashtags/search", h.searchHashtags)

	v1.GET("/interests", h.topInterests)

	// Maintenance operations, invoked by the external scheduler, never by an
	// in-process timer.
	jobs := router.Group("/internal/jobs")
	jobs.POST("/hashtag-trending-refresh", h.jobHandler(hashtag.RefreshTrendingStatus))
	jobs.POST("/hashtag-daily-reset", h.jobHandler(hashtag.ResetDailyCounts))
	jobs.POST("/hashtag-weekly-reset", h.jobHandler(hashtag.ResetWeeklyCounts))
	jobs.POST("/interest-decay", h.interestDecay)
	jobs.POST("/feedcache-sweep", h.feedCacheSweep)
}

// userID resolves the authenticated user set by the JWT middleware.
func userID(c *gin.Context) string {
	return c.Request.Header.Get("sub")
}

func (h *APIHandler) count(metric string, tags ...string) {
	if h.Statsd == nil {
		return
	}
	if err := h.Statsd.Incr(metric, tags, 1); err != nil {
		Log.Info("cannot report metric ", metric)
	}
}

type publishRequest struct {
	Body            string  `json:"body"`
	ContentType     string  `json:"content_type" binding:"required"`
	Privacy         string  `json:"privacy" binding:"required"`
	ContentCategory *string `json:"content_category"`
}

func (h *APIHandler) publishContent(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": err.Error()})
		return
	}

	item, err := h.Recorder.PublishContent(interaction.PublishInput{
		AuthorID:        userID(c),
		Body:            req.Body,
		ContentType:     model.ContentType(req.ContentType),
		Privacy:         model.PrivacyLevel(req.Privacy),
		ContentCategory: req.ContentCategory,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to publish"})
		return
	}

	h.count("ripple.content.published")
	c.JSON(http.StatusCreated, gin.H{"id": item.Id})
}

type viewRequest struct {
	SessionID        *string `json:"session_id"`
	WatchTimeSeconds int     `json:"watch_time_seconds"`
	WatchPercentage  float64 `json:"watch_percentage"`
	Source           string  `json:"source"`
	DeviceType       *string `json:"device_type"`
}

func (h *APIHandler) recordView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": err.Error()})
		return
	}
	// Boundary validation, the core does not re-validate.
	if req.WatchTimeSeconds < 0 || req.WatchPercentage < 0 || req.WatchPercentage > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": "invalid watch time or percentage"})
		return
	}

	var viewerID *string
	if uid := userID(c); uid != "" {
		viewerID = &uid
	}

	view, err := h.Recorder.RecordView(interaction.ViewInput{
		ContentItemID:    c.Param("id"),
		ViewerID:         viewerID,
		SessionID:        req.SessionID,
		WatchTimeSeconds: req.WatchTimeSeconds,
		WatchPercentage:  req.WatchPercentage,
		Source:           model.ViewSource(req.Source),
		DeviceType:       req.DeviceType,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to record view"})
		return
	}
	if view == nil {
		// Item is gone, nothing to record.
		c.Status(http.StatusNoContent)
		return
	}

	h.count("ripple.interaction", "kind:view")
	c.JSON(http.StatusCreated, gin.H{"id": view.Id, "is_replay": view.IsReplay})
}

// interactionHandler adapts the one-shot counter mutators that share the
// (contentItemID, userID) signature.
func (h *APIHandler) interactionHandler(record func(contentItemID string, userID string) error, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := record(c.Param("id"), userID(c)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to record interaction"})
			return
		}
		h.count("ripple.interaction", "kind:"+kind)
		c.Status(http.StatusNoContent)
	}
}

type saveRequest struct {
	CollectionID *string `json:"collection_id"`
}

func (h *APIHandler) recordSave(c *gin.Context) {
	var req saveRequest
	c.ShouldBindJSON(&req)
	if err := h.Recorder.RecordSave(c.Param("id"), userID(c), req.CollectionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to record save"})
		return
	}
	h.count("ripple.interaction", "kind:save")
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) recordUnsave(c *gin.Context) {
	var req saveRequest
	c.ShouldBindJSON(&req)
	if err := h.Recorder.RecordUnsave(c.Param("id"), userID(c), req.CollectionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to record unsave"})
		return
	}
	h.count("ripple.interaction", "kind:unsave")
	c.Status(http.StatusNoContent)
}

type impressionsRequest struct {
	ContentItemIds []string `json:"content_item_ids" binding:"required"`
}

func (h *APIHandler) recordImpressions(c *gin.Context) {
	var req impressionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": err.Error()})
		return
	}
	if err := h.Recorder.RecordImpressions(req.ContentItemIds); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to record impressions"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) getFeed(c *gin.Context) {
	feedType := model.FeedType(c.Param("type"))
	if !model.ValidFeedType(feedType) {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": "unknown feed type"})
		return
	}

	limit := intQuery(c, "limit", defaultFeedLimit)
	offset := intQuery(c, "offset", 0)
	if limit <= 0 || limit > maxFeedLimit || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": "invalid pagination"})
		return
	}

	uid := userID(c)
	var ids []string
	var err error
	switch feedType {
	case model.FeedTypeForYou:
		ids, err = h.Assembler.ForYou(uid, limit, offset)
	case model.FeedTypeFollowing:
		ids, err = h.Assembler.Following(uid, limit, offset)
	case model.FeedTypeShorts:
		ids, err = h.Assembler.Shorts(uid, limit, offset)
	case model.FeedTypeTrending:
		ids, err = h.Assembler.Trending(limit, offset)
	case model.FeedTypeDiscover:
		ids, err = h.Assembler.Discover(uid, limit, offset)
	}
	if err != nil {
		// Prefer an empty page over an opaque failure for feed reads.
		Log.Error("fail to assemble ", feedType, " feed: ", err)
		ids = []string{}
	}
	if ids == nil {
		ids = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"post_ids": ids})
}

type hashtagResponse struct {
	Name          string `json:"name"`
	PostsCount    int64  `json:"posts_count"`
	UsageCount24h int64  `json:"usage_count_24h"`
	IsTrending    bool   `json:"is_trending"`
}

func (h *APIHandler) trendingHashtags(c *gin.Context) {
	tags, err := hashtag.Trending(h.DB, intQuery(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to load trending hashtags"})
		return
	}
	var resp []hashtagResponse
	copier.Copy(&resp, &tags)
	c.JSON(http.StatusOK, gin.H{"hashtags": resp})
}

func (h *APIHandler) searchHashtags(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": utils.ErrorInvalidRequest, "msg": "missing query"})
		return
	}
	tags, err := hashtag.Search(h.DB, query, intQuery(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to search hashtags"})
		return
	}
	var resp []hashtagResponse
	copier.Copy(&resp, &tags)
	c.JSON(http.StatusOK, gin.H{"hashtags": resp})
}

func (h *APIHandler) topInterests(c *gin.Context) {
	entries, err := interest.TopInterests(h.DB, userID(c), intQuery(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": "fail to load interests"})
		return
	}

	type interestResponse struct {
		InterestType  model.InterestType `json:"interest_type"`
		InterestValue string             `json:"interest_value"`
		Weight        float64            `json:"weight"`
	}
	var resp []interestResponse
	copier.Copy(&resp, &entries)
	c.JSON(http.StatusOK, gin.H{"interests": resp})
}

func (h *APIHandler) jobHandler(job func(db *gorm.DB) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := job(h.DB); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": err.Error()})
			return
		}
		h.count("ripple.job.run")
		c.Status(http.StatusNoContent)
	}
}

func (h *APIHandler) interestDecay(c *gin.Context) {
	rate := floatQuery(c, "rate", interest.DefaultDecayRate)
	if err := interest.DecayWeights(h.DB, rate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *APIHandler) feedCacheSweep(c *gin.Context) {
	if err := h.Cache.ClearExpired(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": utils.ErrorInternal, "msg": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
