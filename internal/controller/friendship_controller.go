package controller

import (
	"victorina_backend/internal/model"
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FriendshipController struct {
	FriendshipService *service.FriendshipService
}

func NewFriendshipController(friendshipService *service.FriendshipService) *FriendshipController {
	return &FriendshipController{FriendshipService: friendshipService}
}

type SendFriendRequestRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Message    string `json:"message"`
}

type HandleFriendRequestRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// SendFriendRequest godoc
// @Summary Send a friend request
// @Description A pending request in the opposite direction is accepted instead.
// @Tags Friends
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SendFriendRequestRequest true "Receiver"
// @Success 201 {object} util.Response{data=model.FriendRequest}
// @Failure 409 {object} util.Response "Already friends or request pending"
// @Router /api/friends/requests [post]
func (ctrl *FriendshipController) SendFriendRequest(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	fr, err := ctrl.FriendshipService.SendFriendRequest(c.Request.Context(), claims.UserID, req.ReceiverID, req.Message)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, fr)
}

// HandleFriendRequest godoc
// @Summary Accept or reject a friend request
// @Tags Friends
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Request ID"
// @Param body body HandleFriendRequestRequest true "accept or reject"
// @Success 200 {object} util.Response
// @Router /api/friends/requests/{id} [put]
func (ctrl *FriendshipController) HandleFriendRequest(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req HandleFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	accept := req.Action == "accept"
	if err := ctrl.FriendshipService.HandleFriendRequest(c.Request.Context(), c.Param("id"), claims.UserID, accept); err != nil {
		util.HandleError(c, err)
		return
	}

	status := model.FriendRequestRejected
	if accept {
		status = model.FriendRequestAccepted
	}
	util.Success(c, gin.H{"status": status})
}

// GetFriendRequests godoc
// @Summary Friend requests sent or received by the current user
// @Tags Friends
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "pending, accepted or rejected"
// @Success 200 {object} util.Response{data=[]model.FriendRequest}
// @Router /api/friends/requests [get]
func (ctrl *FriendshipController) GetFriendRequests(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	requests, err := ctrl.FriendshipService.GetFriendRequests(c.Request.Context(), claims.UserID, c.Query("status"))
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, requests)
}

// GetFriends godoc
// @Summary Friends of the current user
// @Tags Friends
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.User}
// @Router /api/friends [get]
func (ctrl *FriendshipController) GetFriends(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	friends, err := ctrl.FriendshipService.GetFriends(c.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, friends)
}

// DeleteFriend godoc
// @Summary Remove a friend
// @Tags Friends
// @Security ApiKeyAuth
// @Param id path int true "Friend user ID"
// @Success 200 {object} util.Response
// @Router /api/friends/{id} [delete]
func (ctrl *FriendshipController) DeleteFriend(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	friendID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.FriendshipService.DeleteFriend(c.Request.Context(), claims.UserID, friendID); err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, nil)
}
