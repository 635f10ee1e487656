package controller

import (
	"victorina_backend/internal/model"
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedController struct {
	FeedService *service.FeedService
}

func NewFeedController(feedService *service.FeedService) *FeedController {
	return &FeedController{FeedService: feedService}
}

type publishRequest struct {
	AttemptID uint `json:"attemptId" binding:"required"`
}

// Publish godoc
// @Summary Share a completed attempt in the feed
// @Tags Feed
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body publishRequest true "Attempt"
// @Success 201 {object} util.Response{data=model.FeedItem}
// @Failure 409 {object} util.Response "Already published"
// @Router /api/feed/publish [post]
func (c *FeedController) Publish(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req publishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	item, err := c.FeedService.Publish(ctx.Request.Context(), claims.UserID, req.AttemptID)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("attempt_id", req.AttemptID))
		return
	}
	util.Created(ctx, item)
}

func respondFeedPage(ctx *gin.Context, page, limit int, items []model.FeedItem, total int64, err error) {
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: items, Total: total, Page: page, Limit: limit})
}

// All godoc
// @Summary Whole feed, newest first
// @Tags Feed
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/feed [get]
func (c *FeedController) All(ctx *gin.Context) {
	page, limit := pageQuery(ctx)
	items, total, err := c.FeedService.ListAll(ctx.Request.Context(), page, limit)
	respondFeedPage(ctx, page, limit, items, total, err)
}

// Friends godoc
// @Summary Feed of the current user's friends
// @Tags Feed
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/feed/friends [get]
func (c *FeedController) Friends(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	page, limit := pageQuery(ctx)
	items, total, err := c.FeedService.ListFriends(ctx.Request.Context(), claims.UserID, page, limit)
	respondFeedPage(ctx, page, limit, items, total, err)
}

// User godoc
// @Summary Feed entries of one user
// @Tags Feed
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/feed/users/{id} [get]
func (c *FeedController) User(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	page, limit := pageQuery(ctx)
	items, total, err := c.FeedService.ListUser(ctx.Request.Context(), id, page, limit)
	respondFeedPage(ctx, page, limit, items, total, err)
}
