package controller

import (
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuizAttemptController struct {
	AttemptService *service.QuizAttemptService
}

func NewQuizAttemptController(attemptService *service.QuizAttemptService) *QuizAttemptController {
	return &QuizAttemptController{AttemptService: attemptService}
}

// StartQuiz godoc
// @Summary Start an attempt
// @Description Creates a new active attempt. Fails with 409 while the caller already has an active attempt for the quiz; use the active-attempt endpoint to resume it.
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.AttemptResponse}
// @Failure 404 {object} util.Response "Quiz not found"
// @Failure 409 {object} util.Response "Active attempt already exists, or another start is in progress"
// @Router /api/quiz-attempts/start/{quizId} [post]
func (c *QuizAttemptController) StartQuiz(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}
	resp, err := c.AttemptService.StartQuiz(ctx.Request.Context(), claims.UserID, quizID)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("user_id", claims.UserID), zap.Uint("quiz_id", quizID))
		return
	}
	util.Success(ctx, resp)
}

// SubmitQuiz godoc
// @Summary Submit answers and complete an attempt
// @Tags Attempts
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.SubmitAttemptRequest true "Answers keyed by question position"
// @Success 200 {object} util.Response{data=service.AttemptResponse}
// @Failure 400 {object} util.Response "Attempt already completed or not owned"
// @Router /api/quiz-attempts/submit [post]
func (c *QuizAttemptController) SubmitQuiz(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req service.SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	resp, err := c.AttemptService.SubmitQuiz(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("user_id", claims.UserID), zap.Uint("attempt_id", req.AttemptID))
		return
	}
	util.Success(ctx, resp)
}

// MyAttempts godoc
// @Summary Completed attempts of the current user
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.AttemptResponse}
// @Router /api/quiz-attempts/my [get]
func (c *QuizAttemptController) MyAttempts(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	attempts, err := c.AttemptService.GetUserAttempts(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err, zap.Uint("user_id", claims.UserID))
		return
	}
	util.Success(ctx, attempts)
}

// ActiveAttempt godoc
// @Summary Active attempt for a quiz, null when there is none
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int true "Quiz ID"
// @Success 200 {object} util.Response{data=service.AttemptResponse}
// @Router /api/quiz-attempts/my/active/{quizId} [get]
func (c *QuizAttemptController) ActiveAttempt(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}
	resp, err := c.AttemptService.GetActiveAttempt(ctx.Request.Context(), claims.UserID, quizID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// HasActiveAttempt godoc
// @Summary Whether an active attempt exists for a quiz
// @Tags Attempts
// @Produce json
// @Security ApiKeyAuth
// @Param quizId path int true "Quiz ID"
// @Success 200 {object} util.Response{data=object} "hasActive"
// @Router /api/quiz-attempts/has-active/{quizId} [get]
func (c *QuizAttemptController) HasActiveAttempt(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	quizID, ok := idParam(ctx, "quizId")
	if !ok {
		return
	}
	active, err := c.AttemptService.HasActiveAttempt(ctx.Request.Context(), claims.UserID, quizID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"hasActive": active})
}
