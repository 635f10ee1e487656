package controller

import (
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuizController struct {
	QuizService   *service.QuizService
	RatingService *service.QuizRatingService
}

func NewQuizController(quizService *service.QuizService, ratingService *service.QuizRatingService) *QuizController {
	return &QuizController{
		QuizService:   quizService,
		RatingService: ratingService,
	}
}

type rateQuizRequest struct {
	Rating int `json:"rating" binding:"required"`
}

func quizFilter(ctx *gin.Context) repository.QuizFilter {
	page, limit := pageQuery(ctx)
	return repository.QuizFilter{
		Category: ctx.Query("category"),
		QuizType: model.QuizType(ctx.Query("type")),
		Offset:   (page - 1) * limit,
		Limit:    limit,
	}
}

// CreateQuiz godoc
// @Summary Create a quiz
// @Description Standard quizzes get four score bands generated from the question count; personality quizzes need at least one result.
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.CreateQuizRequest true "Quiz definition"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response "Invalid quiz"
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Create(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("user_id", claims.UserID))
		return
	}
	util.Created(ctx, quiz)
}

// ListQuizzes godoc
// @Summary List public quizzes
// @Tags Quizzes
// @Produce json
// @Param category query string false "Category"
// @Param type query string false "STANDARD or PERSONALITY"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	f := quizFilter(ctx)
	items, total, err := c.QuizService.ListPublic(ctx.Request.Context(), f)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: items, Total: total, Page: f.Offset/f.Limit + 1, Limit: f.Limit})
}

// MyQuizzes godoc
// @Summary Quizzes authored by the current user
// @Tags Quizzes
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/quizzes/my [get]
func (c *QuizController) MyQuizzes(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	f := quizFilter(ctx)
	items, total, err := c.QuizService.ListByAuthor(ctx.Request.Context(), claims.UserID, f)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: items, Total: total, Page: f.Offset/f.Limit + 1, Limit: f.Limit})
}

// GetQuiz godoc
// @Summary Quiz with questions, options and results
// @Tags Quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	quiz, err := c.QuizService.Get(ctx.Request.Context(), id, claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary Delete a quiz
// @Tags Quizzes
// @Security ApiKeyAuth
// @Param id path int true "Quiz ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "Not the author"
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.QuizService.Delete(ctx.Request.Context(), id, claims); err != nil {
		util.HandleError(ctx, err, zap.Uint("quiz_id", id))
		return
	}
	util.Success(ctx, nil)
}

// UploadImage godoc
// @Summary Upload an image for a quiz, question, option or result
// @Tags Quizzes
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "Image"
// @Success 200 {object} util.Response{data=object} "URL"
// @Router /api/quizzes/images [post]
func (c *QuizController) UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	url, err := c.QuizService.UploadImage(ctx.Request.Context(), file)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}

// RateQuiz godoc
// @Summary Rate a quiz from 1 to 5
// @Tags Quizzes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Quiz ID"
// @Param body body rateQuizRequest true "Rating"
// @Success 200 {object} util.Response{data=service.QuizRatingSummary}
// @Router /api/quizzes/{id}/rate [post]
func (c *QuizController) RateQuiz(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req rateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	summary, err := c.RatingService.Rate(ctx.Request.Context(), claims.UserID, id, req.Rating)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// MyQuizRating godoc
// @Summary Current user's rating of a quiz
// @Tags Quizzes
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.QuizRatingSummary}
// @Router /api/quizzes/{id}/rating/my [get]
func (c *QuizController) MyQuizRating(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	summary, err := c.RatingService.MyRating(ctx.Request.Context(), claims.UserID, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
