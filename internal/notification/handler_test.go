package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/cityreports/internal/user"
	"github.com/fkhayef/cityreports/pkg/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()
	svc := NewService(NewInMemory(user.NewInMemory()))
	r := chi.NewRouter()
	r.Use(middleware.TestUserMiddleware)
	r.Mount("/notifications", NewHandler(svc, nil).Routes())
	return r, svc
}

func do(t *testing.T, h http.Handler, method, path, userID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Test-User-ID", userID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandlerList(t *testing.T) {
	h, svc := newTestRouter(t)
	ctx := t.Context()
	_, err := svc.CreateNotification(ctx, CreateParams{UserID: "u-1", ReportID: "r-1", Title: "older", Message: "m"})
	require.NoError(t, err)
	_, err = svc.CreateNotification(ctx, CreateParams{UserID: "u-1", ReportID: "r-2", Title: "newer", Message: "m"})
	require.NoError(t, err)
	_, err = svc.CreateNotification(ctx, CreateParams{UserID: "u-2", ReportID: "r-3", Title: "not mine", Message: "m"})
	require.NoError(t, err)

	rec, body := do(t, h, http.MethodGet, "/notifications", "u-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []NotificationResponse
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "newer", items[0].Title)
	assert.Equal(t, "older", items[1].Title)
}

func TestHandlerMarkAsRead(t *testing.T) {
	h, svc := newTestRouter(t)
	n, err := svc.CreateNotification(t.Context(), CreateParams{UserID: "u-1", ReportID: "r-1", Title: "t", Message: "m"})
	require.NoError(t, err)

	t.Run("recipient can mark twice", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodPatch, "/notifications/"+n.ID+"/read", "u-1")
		assert.Equal(t, http.StatusOK, rec.Code)
		rec, _ = do(t, h, http.MethodPost, "/notifications/"+n.ID+"/read", "u-1")
		assert.Equal(t, http.StatusOK, rec.Code)

		_, body := do(t, h, http.MethodGet, "/notifications/unread-count", "u-1")
		assert.JSONEq(t, `{"unread_count":0}`, string(body.Data))
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		rec, body := do(t, h, http.MethodPatch, "/notifications/"+n.ID+"/read", "u-2")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "FORBIDDEN", body.Error.Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		rec, body := do(t, h, http.MethodPatch, "/notifications/does-not-exist/read", "u-1")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestHandlerMarkAllAsRead(t *testing.T) {
	h, svc := newTestRouter(t)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateNotification(t.Context(), CreateParams{UserID: "u-1", Title: "t", Message: "m"})
		require.NoError(t, err)
	}

	_, body := do(t, h, http.MethodGet, "/notifications/unread-count", "u-1")
	assert.JSONEq(t, `{"unread_count":3}`, string(body.Data))

	rec, _ := do(t, h, http.MethodPost, "/notifications/read-all", "u-1")
	require.Equal(t, http.StatusOK, rec.Code)

	_, body = do(t, h, http.MethodGet, "/notifications/unread-count", "u-1")
	assert.JSONEq(t, `{"unread_count":0}`, string(body.Data))
}
