package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lessonhub/internal/docstore"
	"lessonhub/internal/domain/chat"
	"lessonhub/internal/domain/refund"
	"lessonhub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	docs := docstore.NewMemory()
	svc := NewService(NewStore(docs), NewEventLog(docs), chat.NewStore(docs, nil), refund.NewStore(docs), nil, zap.NewNop())
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User-ID"); userID != "" {
			c.Set(middleware.ContextUserID, userID)
			c.Set(middleware.ContextRole, c.GetHeader("X-Test-Role"))
			c.Set(middleware.ContextUserName, "Test User")
		}
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	h.RegisterInternalRoutes(r.Group("/internal"))
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

type outcomeEnvelope struct {
	Success bool    `json:"success"`
	Data    Outcome `json:"data"`
}

func createBooking(t *testing.T, r http.Handler) string {
	t.Helper()
	rr := doAs(r, "s1", "student", http.MethodPost, "/api/v1/bookings", map[string]any{
		"teacher_id":    "t1",
		"teacher_name":  "Anna Petrova",
		"course_id":     "c1",
		"slot":          "2026-04-07 09:00",
		"amount_rubles": 1800,
		"source":        "catalog",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var env outcomeEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Data.Booking.ID
}

func TestHandler_CreateAndApprove(t *testing.T) {
	r := setupRouter(t)
	id := createBooking(t, r)
	assert.Equal(t, BookingID("t1", "c1", "2026-04-07 09:00"), id)

	// Bodyless approve is fine.
	rr := doAs(r, "t1", "teacher", http.MethodPost, "/api/v1/bookings/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var env outcomeEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, StatusAwaitingPayment, env.Data.Booking.Status)
	require.NotNil(t, env.Data.Event)
	assert.Equal(t, "teacher_approved", env.Data.Event.Action)

	rr = doAs(r, "t1", "teacher", http.MethodGet, "/api/v1/bookings/"+id+"/events", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "student_requested")
}

func TestHandler_ActorRules(t *testing.T) {
	r := setupRouter(t)
	id := createBooking(t, r)

	rr := doAs(r, "s1", "student", http.MethodPost, "/api/v1/bookings/"+id+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doAs(r, "a1", "admin", http.MethodPost, "/api/v1/bookings/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doAs(r, "s1", "student", http.MethodPost, "/api/v1/bookings/"+id+"/accept", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doAs(r, "t1", "teacher", http.MethodPost, "/api/v1/bookings/missing/approve", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_PaymentCallback(t *testing.T) {
	r := setupRouter(t)
	id := createBooking(t, r)

	rr := doAs(r, "", "", http.MethodPost, "/internal/payments/confirm", map[string]any{"booking_id": id})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doAs(r, "t1", "teacher", http.MethodPost, "/api/v1/bookings/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doAs(r, "", "", http.MethodPost, "/internal/payments/confirm", map[string]any{"booking_id": id})
	require.Equal(t, http.StatusOK, rr.Code)
	var env outcomeEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, StatusPaid, env.Data.Booking.Status)
}

func TestHandler_ListIsScopedToCaller(t *testing.T) {
	r := setupRouter(t)
	createBooking(t, r)

	rr := doAs(r, "s2", "student", http.MethodGet, "/api/v1/bookings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"bookings":[]`)

	rr = doAs(r, "t1", "teacher", http.MethodGet, "/api/v1/bookings?status=pending", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"teacher_id":"t1"`)
}

func TestHandler_CreateValidation(t *testing.T) {
	r := setupRouter(t)

	rr := doAs(r, "s1", "student", http.MethodPost, "/api/v1/bookings", map[string]any{"teacher_id": "t1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doAs(r, "s1", "student", http.MethodPost, "/api/v1/bookings", map[string]any{
		"teacher_id": "t1", "course_id": "c1", "slot": "soon",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
