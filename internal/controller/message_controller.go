package controller

import (
	"victorina_backend/internal/service"
	"victorina_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MessageController struct {
	MessageService *service.MessageService
}

func NewMessageController(messageService *service.MessageService) *MessageController {
	return &MessageController{MessageService: messageService}
}

type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// SendMessage godoc
// @Summary Send a direct message to a friend
// @Tags Messages
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SendMessageRequest true "Message"
// @Success 201 {object} util.Response{data=model.Message}
// @Failure 400 {object} util.Response "Not friends or empty content"
// @Router /api/messages [post]
func (ctrl *MessageController) SendMessage(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}
	msg, err := ctrl.MessageService.Send(c.Request.Context(), claims.UserID, req.ReceiverID, req.Content)
	if err != nil {
		util.HandleError(c, err)
		return
	}
	util.Created(c, msg)
}

// Conversation godoc
// @Summary Messages exchanged with a user, oldest first
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Param userId path int true "Partner user ID"
// @Success 200 {object} util.Response{data=[]model.Message}
// @Router /api/messages/with/{userId} [get]
func (ctrl *MessageController) Conversation(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	otherID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	msgs, err := ctrl.MessageService.Conversation(c.Request.Context(), claims.UserID, otherID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, msgs)
}

// MarkRead godoc
// @Summary Mark a received message as read
// @Tags Messages
// @Security ApiKeyAuth
// @Param id path string true "Message ID"
// @Success 200 {object} util.Response
// @Router /api/messages/{id}/read [post]
func (ctrl *MessageController) MarkRead(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ctrl.MessageService.MarkRead(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		util.HandleError(c, err)
		return
	}
	util.Success(c, nil)
}

// UnreadCount godoc
// @Summary Number of unread messages
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/messages/unread [get]
func (ctrl *MessageController) UnreadCount(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := ctrl.MessageService.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, gin.H{"unread": n})
}

// Chats godoc
// @Summary Chat list with last message and unread count per partner
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.ChatSummary}
// @Router /api/messages/chats [get]
func (ctrl *MessageController) Chats(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	chats, err := ctrl.MessageService.Chats(c.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(c, err)
		return
	}
	util.Success(c, chats)
}
