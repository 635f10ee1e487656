package controller

import (
	"strconv"
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RatingController struct {
	RatingService *service.UserRatingService
}

func NewRatingController(ratingService *service.UserRatingService) *RatingController {
	return &RatingController{RatingService: ratingService}
}

// Top godoc
// @Summary Leaderboard ordered by average score
// @Tags Ratings
// @Produce json
// @Param limit query int false "Number of entries, default 10, max 100"
// @Success 200 {object} util.Response{data=[]model.UserRating}
// @Router /api/ratings/top [get]
func (c *RatingController) Top(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	ratings, err := c.RatingService.Top(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, ratings)
}

// MyRating godoc
// @Summary Current user's rating and rank
// @Tags Ratings
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.RatingWithRank}
// @Router /api/ratings/me [get]
func (c *RatingController) MyRating(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	c.respondRating(ctx, claims.UserID)
}

// UserRating godoc
// @Summary Rating and rank of a user
// @Tags Ratings
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} util.Response{data=service.RatingWithRank}
// @Failure 404 {object} util.Response
// @Router /api/ratings/users/{id} [get]
func (c *RatingController) UserRating(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	c.respondRating(ctx, id)
}

func (c *RatingController) respondRating(ctx *gin.Context, userID uint) {
	rating, err := c.RatingService.Get(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("user_id", userID))
		return
	}
	util.Success(ctx, rating)
}

// Recalculate godoc
// @Summary Rebuild a user's rating from their attempts
// @Tags Ratings
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response{data=model.UserRating}
// @Router /api/admin/ratings/{id}/recalculate [post]
func (c *RatingController) Recalculate(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rating, err := c.RatingService.Recalculate(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("user_id", id))
		return
	}
	util.Success(ctx, rating)
}
