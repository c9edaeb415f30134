package chat

import "github.com/gin-gonic/gin"

// RegisterRoutes registers chat routes under the protected group
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	chat := r.Group("/chat")
	{
		chat.GET("/threads", h.ListThreads)
		chat.POST("/threads", h.EnsureThread)
		chat.GET("/threads/:id", h.GetThread)
		chat.POST("/threads/:id/read", h.MarkRead)
		chat.POST("/messages", h.SendMessage)
	}
}

// RegisterAdminRoutes mounts the manual sync trigger under an admin group.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.POST("/chat/sync", h.Sync)
}
