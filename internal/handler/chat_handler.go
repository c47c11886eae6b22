package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/agdesk/agdesk/internal/model"
	"github.com/agdesk/agdesk/internal/pkg/errcode"
	"github.com/agdesk/agdesk/internal/pkg/response"
	"github.com/agdesk/agdesk/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		response.Error(c, errcode.ErrInvalid, "messages are required")
		return
	}
	blocks, err := h.chat.Chat(c.Request.Context(), getUserID(c), getRole(c), req.Messages)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"content": []contentBlock{{Type: "text", Text: service.Answer(blocks)}},
	})
}
