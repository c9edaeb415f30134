package booking

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers booking routes under the authenticated group.
// Which actor may run a command is decided by the state machine.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings/:id/events", h.GetEvents)

	// Teacher decisions
	rg.POST("/bookings/:id/approve", h.Approve)
	rg.POST("/bookings/:id/propose", h.ProposeReschedule)
	rg.POST("/bookings/:id/decline", h.Decline)

	// Student answers to a proposal
	rg.POST("/bookings/:id/accept", h.AcceptProposal)
	rg.POST("/bookings/:id/reject", h.RejectProposal)

	rg.POST("/bookings/:id/cancel", h.Cancel)
}

// RegisterInternalRoutes registers the payment callback under a group
// protected by the internal token.
func (h *Handler) RegisterInternalRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/confirm", h.ConfirmPayment)
}
