package refund

import (
	"errors"
	"net/http"

	"lessonhub/internal/docstore"
	"lessonhub/internal/pkg/response"
	"lessonhub/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// List godoc
// @Summary List refund tickets
// @Tags Refunds
// @Security BearerAuth
// @Param booking_id query string false "Booking ID"
// @Param status query string false "pending|approved|declined"
// @Router /refunds [get]
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}

	tickets, err := h.store.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	items := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if q.BookingID != "" && t.BookingID != q.BookingID {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		items = append(items, t)
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Get(c *gin.Context) {
	t, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": t})
}

// Create opens a ticket by hand. A second call for the same booking returns
// the existing ticket with 200.
func (h *Handler) Create(c *gin.Context) {
	var p CreatePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.store.Create(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	if res.Mode == ModeCreated {
		status = http.StatusCreated
	}
	response.Success(c, status, res)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status must be approved or declined")
		return
	}

	t, err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": t})
}

func (h *Handler) fail(c *gin.Context, err error) {
	var fields validator.FieldErrors
	switch {
	case errors.As(err, &fields):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid refund payload", fields)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Refund ticket not found")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, docstore.ErrStorage):
		_ = c.Error(err)
		response.Retryable(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Refund storage is unavailable, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process refund")
	}
}
