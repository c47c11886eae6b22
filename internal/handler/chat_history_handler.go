package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/agdesk/agdesk/internal/model"
	"github.com/agdesk/agdesk/internal/pkg/errcode"
	"github.com/agdesk/agdesk/internal/pkg/response"
	"github.com/agdesk/agdesk/internal/service"
)

type ChatHistoryHandler struct {
	histories *service.ChatHistoryService
}

func NewChatHistoryHandler(histories *service.ChatHistoryService) *ChatHistoryHandler {
	return &ChatHistoryHandler{histories: histories}
}

func (h *ChatHistoryHandler) List(c *gin.Context) {
	histories, err := h.histories.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"histories": histories})
}

func (h *ChatHistoryHandler) Get(c *gin.Context) {
	history, err := h.histories.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, history)
}

func (h *ChatHistoryHandler) Save(c *gin.Context) {
	var history model.ChatHistory
	if err := c.ShouldBindJSON(&history); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid history payload")
		return
	}
	saved, err := h.histories.Save(c.Request.Context(), getUserID(c), &history)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, saved)
}

func (h *ChatHistoryHandler) Delete(c *gin.Context) {
	if err := h.histories.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}
