package chat

import (
	"context"
	"errors"
	"net/http"

	"lessonhub/internal/docstore"
	"lessonhub/internal/middleware"
	"lessonhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Threads is the thread API served over HTTP. Both *Store and *Replica
// implement it.
type Threads interface {
	List(ctx context.Context) ([]Thread, error)
	Get(ctx context.Context, threadID string) (*Thread, error)
	Ensure(ctx context.Context, pair Pair, meta Metadata) (*Result, error)
	Send(ctx context.Context, in SendInput) (*Result, error)
	MarkRead(ctx context.Context, threadID string, viewer Sender) ([]Thread, error)
}

// Syncer runs one reconciliation between the two thread copies.
type Syncer interface {
	Sync(ctx context.Context) (int, error)
}

// Handler handles HTTP requests for the chat domain
type Handler struct {
	threads Threads
	syncer  Syncer
}

func NewHandler(threads Threads, syncer Syncer) *Handler {
	return &Handler{threads: threads, syncer: syncer}
}

// ListThreads godoc
// @Summary List my threads
// @Tags Chat
// @Security BearerAuth
// @Produce json
// @Router /chat/threads [get]
func (h *Handler) ListThreads(c *gin.Context) {
	viewer, ok := mustViewer(c)
	if !ok {
		return
	}
	threads, err := h.threads.List(c.Request.Context())
	if err != nil {
		handleThreadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"threads": visibleTo(threads, viewer, middleware.UserID(c))})
}

func (h *Handler) GetThread(c *gin.Context) {
	viewer, ok := mustViewer(c)
	if !ok {
		return
	}
	t, err := h.threads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleThreadError(c, err)
		return
	}
	if len(visibleTo([]Thread{*t}, viewer, middleware.UserID(c))) == 0 {
		handleThreadError(c, ErrThreadNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"thread": t})
}

// EnsureThread godoc
// @Summary Start or get the thread with a counterpart
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Router /chat/threads [post]
func (h *Handler) EnsureThread(c *gin.Context) {
	viewer, ok := mustViewer(c)
	if !ok {
		return
	}
	var req ensureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "counterpart_id is required")
		return
	}

	pair := pairFor(viewer, middleware.UserID(c), req.CounterpartID)
	res, err := h.threads.Ensure(c.Request.Context(), pair, withCallerName(req.Metadata, viewer, middleware.UserName(c)))
	if err != nil {
		handleThreadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"thread": res.Thread, "threads": visibleTo(res.Threads, viewer, middleware.UserID(c))})
}

// SendMessage godoc
// @Summary Send a message to a counterpart
// @Tags Chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Router /chat/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	viewer, ok := mustViewer(c)
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "counterpart_id is required")
		return
	}

	res, err := h.threads.Send(c.Request.Context(), SendInput{
		Pair:     pairFor(viewer, middleware.UserID(c), req.CounterpartID),
		Sender:   viewer,
		Text:     req.Text,
		Metadata: withCallerName(req.Metadata, viewer, middleware.UserName(c)),
	})
	if err != nil {
		handleThreadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"thread": res.Thread, "threads": visibleTo(res.Threads, viewer, middleware.UserID(c))})
}

func (h *Handler) MarkRead(c *gin.Context) {
	viewer, ok := mustViewer(c)
	if !ok {
		return
	}
	threads, err := h.threads.MarkRead(c.Request.Context(), c.Param("id"), viewer)
	if err != nil {
		handleThreadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"threads": visibleTo(threads, viewer, middleware.UserID(c))})
}

// Sync runs a reconciliation on demand.
func (h *Handler) Sync(c *gin.Context) {
	if h.syncer == nil {
		response.Error(c, http.StatusNotImplemented, "SYNC_DISABLED", "Chat sync is not configured")
		return
	}
	n, err := h.syncer.Sync(c.Request.Context())
	if err != nil {
		handleThreadError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"threads": n})
}

func handleThreadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrThreadNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Thread not found")
	case errors.Is(err, docstore.ErrStorage):
		_ = c.Error(err)
		response.Retryable(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Chat storage is unavailable, please retry")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func mustViewer(c *gin.Context) (Sender, bool) {
	if middleware.UserID(c) == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return "", false
	}
	viewer := Sender(middleware.Role(c))
	if !viewer.Valid() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only students and teachers have threads")
		return "", false
	}
	return viewer, true
}

func pairFor(viewer Sender, userID, counterpartID string) Pair {
	if viewer == SenderTeacher {
		return Pair{TeacherID: userID, StudentID: counterpartID}
	}
	return Pair{TeacherID: counterpartID, StudentID: userID}
}

func withCallerName(meta Metadata, viewer Sender, name string) Metadata {
	if name == "" {
		return meta
	}
	if viewer == SenderTeacher && meta.TeacherName == "" {
		meta.TeacherName = name
	}
	if viewer == SenderStudent && meta.StudentName == "" {
		meta.StudentName = name
	}
	return meta
}

// visibleTo keeps the threads where userID is the viewer's side.
func visibleTo(threads []Thread, viewer Sender, userID string) []Thread {
	out := make([]Thread, 0, len(threads))
	for _, t := range threads {
		if (viewer == SenderTeacher && t.TeacherID == userID) || (viewer == SenderStudent && t.StudentID == userID) {
			out = append(out, t)
		}
	}
	return out
}
