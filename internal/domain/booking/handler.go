package booking

import (
	"errors"
	"io"
	"net/http"

	"lessonhub/internal/docstore"
	"lessonhub/internal/middleware"
	"lessonhub/internal/pkg/response"
	"lessonhub/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListBookings godoc
// @Summary List bookings visible to the caller
// @Tags Bookings
// @Security BearerAuth
// @Param teacher_id query string false "Teacher ID"
// @Param student_id query string false "Student ID"
// @Param status query string false "Status"
// @Router /bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query")
		return
	}
	switch middleware.Role(c) {
	case middleware.RoleStudent:
		q.StudentID = middleware.UserID(c)
	case middleware.RoleTeacher:
		q.TeacherID = middleware.UserID(c)
	}

	all, err := h.service.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	items := make([]LessonBookingRequest, 0, len(all))
	for _, b := range all {
		if q.TeacherID != "" && b.TeacherID != q.TeacherID {
			continue
		}
		if q.StudentID != "" && b.StudentID != q.StudentID {
			continue
		}
		if q.Status != "" && b.Status != q.Status {
			continue
		}
		items = append(items, b)
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": items})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) GetEvents(c *gin.Context) {
	events, err := h.service.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// CreateBooking godoc
// @Summary Request a lesson slot
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body CreateBookingRequest true "Lesson request"
// @Router /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	actor, ok := actorFor(c)
	if !ok {
		return
	}

	out, err := h.service.Apply(c.Request.Context(), actor, "", Request{
		TeacherID:       req.TeacherID,
		TeacherName:     req.TeacherName,
		StudentID:       middleware.UserID(c),
		StudentName:     middleware.UserName(c),
		CourseID:        req.CourseID,
		Subject:         req.Subject,
		Slot:            req.Slot,
		StartAt:         req.StartAt,
		DurationMinutes: req.DurationMinutes,
		AmountRubles:    req.AmountRubles,
		Message:         req.Message,
		Source:          req.Source,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) Approve(c *gin.Context) {
	var req MessageRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, Approve{Message: req.Message})
}

func (h *Handler) ProposeReschedule(c *gin.Context) {
	var req ProposeRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, ProposeReschedule{Slot: req.Slot, StartAt: req.StartAt, Message: req.Message})
}

func (h *Handler) Decline(c *gin.Context) {
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, Decline{Reason: req.Reason})
}

func (h *Handler) AcceptProposal(c *gin.Context) {
	h.apply(c, AcceptProposal{})
}

func (h *Handler) RejectProposal(c *gin.Context) {
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, RejectProposal{Reason: req.Reason})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, Cancel{Reason: req.Reason})
}

// ConfirmPayment is the payment provider callback. It runs as the system
// actor behind the internal token.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	var req PaymentConfirmation
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "booking_id is required")
		return
	}
	cmd := ConfirmPayment{}
	if req.PaidAt != nil {
		cmd.PaidAt = *req.PaidAt
	}

	out, err := h.service.Apply(c.Request.Context(), ActorSystem, req.BookingID, cmd)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) apply(c *gin.Context, cmd Command) {
	actor, ok := actorFor(c)
	if !ok {
		return
	}
	out, err := h.service.Apply(c.Request.Context(), actor, c.Param("id"), cmd)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func actorFor(c *gin.Context) (Actor, bool) {
	switch middleware.Role(c) {
	case middleware.RoleStudent:
		return ActorStudent, true
	case middleware.RoleTeacher:
		return ActorTeacher, true
	case "":
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	default:
		response.Error(c, http.StatusForbidden, "FORBIDDEN_ACTOR", "Only students and teachers act on bookings")
	}
	return "", false
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func handleError(c *gin.Context, err error) {
	var fields validator.FieldErrors
	switch {
	case errors.As(err, &fields):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking fields", fields)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrForbiddenActor):
		response.Error(c, http.StatusForbidden, "FORBIDDEN_ACTOR", err.Error())
	case errors.Is(err, ErrSlotTaken):
		response.Error(c, http.StatusConflict, "SLOT_TAKEN", err.Error())
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, docstore.ErrStorage):
		_ = c.Error(err)
		response.Retryable(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Booking storage is unavailable; re-read before retrying")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process booking")
	}
}
