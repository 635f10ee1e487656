package controller

import (
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// Search godoc
// @Summary Search users by username or email
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Param query query string true "Search text"
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/users/search [get]
func (c *UserController) Search(ctx *gin.Context) {
	claims, ok := currentUser(ctx)
	if !ok {
		return
	}
	users, err := c.UserService.Search(ctx.Query("query"), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// GetUser godoc
// @Summary Public profile of a user
// @Tags Users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Router /api/users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	user, err := c.UserService.GetUserByID(id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
