package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/agdesk/agdesk/internal/middleware"
	"github.com/agdesk/agdesk/internal/pkg/errcode"
	"github.com/agdesk/agdesk/internal/pkg/response"
	"github.com/agdesk/agdesk/internal/service"
)

type RouterDeps struct {
	Chat        *ChatHandler
	Documents   *DocumentHandler
	Branches    *BranchHandler
	ChatHistory *ChatHistoryHandler
	JWTSecret   []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/chat", deps.Chat.Chat)

	authGroup.POST("/documents", requireAdmin(), deps.Documents.Upload)
	authGroup.GET("/documents/jobs/:id", requireAdmin(), deps.Documents.JobStatus)

	authGroup.GET("/chat-history", deps.ChatHistory.List)
	authGroup.POST("/chat-history", deps.ChatHistory.Save)
	authGroup.GET("/chat-history/:id", deps.ChatHistory.Get)
	authGroup.DELETE("/chat-history/:id", deps.ChatHistory.Delete)

	authGroup.GET("/branches", deps.Branches.List)
	authGroup.GET("/branches/:id", deps.Branches.Get)
	authGroup.POST("/branches", requireAdmin(), deps.Branches.Create)
	authGroup.PUT("/branches/:id", requireAdmin(), deps.Branches.Update)
	authGroup.DELETE("/branches/:id", requireAdmin(), deps.Branches.Delete)
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if getRole(c) != service.RoleAdmin {
			response.Error(c, errcode.ErrForbidden, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
