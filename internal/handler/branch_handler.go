package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/agdesk/agdesk/internal/model"
	"github.com/agdesk/agdesk/internal/pkg/errcode"
	"github.com/agdesk/agdesk/internal/pkg/response"
	"github.com/agdesk/agdesk/internal/service"
)

type BranchHandler struct {
	branches *service.BranchService
}

func NewBranchHandler(branches *service.BranchService) *BranchHandler {
	return &BranchHandler{branches: branches}
}

func (h *BranchHandler) List(c *gin.Context) {
	branches, err := h.branches.List(c.Request.Context(), getRole(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"branches": branches})
}

func (h *BranchHandler) Get(c *gin.Context) {
	branch, err := h.branches.Get(c.Request.Context(), getRole(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, branch)
}

func (h *BranchHandler) Create(c *gin.Context) {
	var branch model.Branch
	if err := c.ShouldBindJSON(&branch); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid branch payload")
		return
	}
	created, err := h.branches.Create(c.Request.Context(), &branch)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, created)
}

func (h *BranchHandler) Update(c *gin.Context) {
	var branch model.Branch
	if err := c.ShouldBindJSON(&branch); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid branch payload")
		return
	}
	branch.ID = c.Param("id")
	updated, err := h.branches.Update(c.Request.Context(), &branch)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, updated)
}

func (h *BranchHandler) Delete(c *gin.Context) {
	if err := h.branches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}
