package refund

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts refund review under a group already limited to
// admins.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	refunds := rg.Group("/refunds")
	{
		refunds.GET("", h.List)
		refunds.POST("", h.Create)
		refunds.GET("/:id", h.Get)
		refunds.PATCH("/:id/status", h.UpdateStatus)
	}
}
