package handlers

import (
	"net/http"

	"commentfeed/internal/services"
	"commentfeed/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	feed     *services.FeedService
	comments *services.CommentService
	log      *zap.Logger
}

func NewFeedHandler(feed *services.FeedService, comments *services.CommentService, log *zap.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, comments: comments, log: log}
}

// Page 评论页，支持 ?sort=created_at|user_name|email&order=asc|desc
func (h *FeedHandler) Page(c *gin.Context) {
	field, dir := h.feed.ParseSort(c.Query("sort"), c.Query("order"))

	nodes, err := h.feed.Thread(c.Request.Context(), field, dir)
	if err != nil {
		h.log.Error("load feed", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "评论加载失败，请稍后再试")
		return
	}

	description := ""
	if len(nodes) > 0 {
		description = nodes[0].Excerpt
	}

	Render(c, http.StatusOK, "feed.html", gin.H{
		"Title":       "Comments",
		"Description": description,
		"Comments":    nodes,
		"Sort":        string(field),
		"Order":       string(dir),
	})
}

// List 返回原始的扁平记录
func (h *FeedHandler) List(c *gin.Context) {
	records, err := h.feed.Records(c.Request.Context())
	if err != nil {
		abortJSON(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": records, "total": len(records)})
}

// Tree 返回排序、清洗后的评论树
func (h *FeedHandler) Tree(c *gin.Context) {
	field, dir := h.feed.ParseSort(c.Query("sort"), c.Query("order"))

	nodes, err := h.feed.Thread(c.Request.Context(), field, dir)
	if err != nil {
		abortJSON(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sort":     field,
		"order":    dir,
		"roots":    len(nodes),
		"comments": nodes,
	})
}

// Get 返回单条记录
func (h *FeedHandler) Get(c *gin.Context) {
	comment, err := h.comments.Get(c.Request.Context(), utils.ParseID(c.Param("id")))
	if err != nil {
		abortJSON(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, h.feed.Render(*comment))
}
