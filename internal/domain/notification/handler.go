package notification

import (
	"context"
	"errors"
	"io"
	"net/http"

	"lessonhub/internal/docstore"
	"lessonhub/internal/middleware"
	"lessonhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Feeds interface {
	ReadForRole(ctx context.Context, aud Audience) (*Feed, error)
	MarkRead(ctx context.Context, aud Audience, id string) error
	MarkAllRead(ctx context.Context, aud Audience, ids []string) (int, error)
}

type Handler struct {
	feeds Feeds
}

func NewHandler(feeds Feeds) *Handler {
	return &Handler{feeds: feeds}
}

// GetNotifications godoc
// @Summary Derived notification feed of the caller
// @Tags Notifications
// @Security BearerAuth
// @Router /notifications [get]
func (h *Handler) GetNotifications(c *gin.Context) {
	aud, ok := audience(c)
	if !ok {
		return
	}
	feed, err := h.feeds.ReadForRole(c.Request.Context(), aud)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, feed)
}

func (h *Handler) GetUnreadCount(c *gin.Context) {
	aud, ok := audience(c)
	if !ok {
		return
	}
	feed, err := h.feeds.ReadForRole(c.Request.Context(), aud)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": feed.UnreadCount})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	aud, ok := audience(c)
	if !ok {
		return
	}
	if err := h.feeds.MarkRead(c.Request.Context(), aud, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllAsRead acknowledges the given ids, or the whole current feed
// when the body is empty.
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	aud, ok := audience(c)
	if !ok {
		return
	}
	var req markAllRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	n, err := h.feeds.MarkAllRead(c.Request.Context(), aud, req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": n})
}

func audience(c *gin.Context) (Audience, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return Audience{}, false
	}
	role := Role(middleware.Role(c))
	if !role.Valid() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Notifications are available to students and teachers")
		return Audience{}, false
	}
	return Audience{Role: role, ActorID: userID}, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidAudience):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, docstore.ErrStorage):
		_ = c.Error(err)
		response.Retryable(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Notifications are temporarily unavailable, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load notifications")
	}
}
