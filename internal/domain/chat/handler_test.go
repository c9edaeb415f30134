package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lessonhub/internal/docstore"
	"lessonhub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(NewStore(docstore.NewMemory(), nil), nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User-ID"); userID != "" {
			c.Set(middleware.ContextUserID, userID)
			c.Set(middleware.ContextRole, c.GetHeader("X-Test-Role"))
		}
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterAdminRoutes(r.Group("/api/v1/admin"))
	return r
}

func doAs(r http.Handler, userID, role, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User-ID", userID)
		req.Header.Set("X-Test-Role", role)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

type threadsEnvelope struct {
	Data struct {
		Thread  Thread   `json:"thread"`
		Threads []Thread `json:"threads"`
	} `json:"data"`
}

func TestHandler_SendAndRead(t *testing.T) {
	r := setupRouter(t)

	rr := doAs(r, "t1", "teacher", http.MethodPost, "/api/v1/chat/messages", map[string]any{"counterpart_id": "s1", "text": "See you tomorrow"})
	require.Equal(t, http.StatusOK, rr.Code)

	var sent threadsEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sent))
	assert.Equal(t, ThreadID("t1", "s1"), sent.Data.Thread.ID)
	assert.Equal(t, 1, sent.Data.Thread.UnreadForStudent)

	rr = doAs(r, "s1", "student", http.MethodGet, "/api/v1/chat/threads", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var listed threadsEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Threads, 1)

	rr = doAs(r, "s1", "student", http.MethodPost, "/api/v1/chat/threads/"+sent.Data.Thread.ID+"/read", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var read threadsEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &read))
	require.Len(t, read.Data.Threads, 1)
	assert.Equal(t, 0, read.Data.Threads[0].UnreadForStudent)

	// Another student does not see the thread.
	rr = doAs(r, "s2", "student", http.MethodGet, "/api/v1/chat/threads/"+sent.Data.Thread.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_RejectsCallersWithoutThreads(t *testing.T) {
	r := setupRouter(t)

	rr := doAs(r, "", "", http.MethodGet, "/api/v1/chat/threads", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doAs(r, "a1", "admin", http.MethodGet, "/api/v1/chat/threads", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doAs(r, "t1", "teacher", http.MethodPost, "/api/v1/chat/messages", map[string]any{"text": "no counterpart"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_SyncDisabled(t *testing.T) {
	r := setupRouter(t)

	rr := doAs(r, "a1", "admin", http.MethodPost, "/api/v1/admin/chat/sync", nil)
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
}
