package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/delivery-backend/internal/catalog"
	"github.com/ignatzorin/delivery-backend/internal/config"
	"github.com/ignatzorin/delivery-backend/internal/db"
	"github.com/ignatzorin/delivery-backend/internal/http/handlers"
	"github.com/ignatzorin/delivery-backend/internal/logger"
	"github.com/ignatzorin/delivery-backend/internal/notify"
	"github.com/ignatzorin/delivery-backend/internal/repository"
	"github.com/ignatzorin/delivery-backend/internal/service"
	"github.com/ignatzorin/delivery-backend/internal/storage"
	"github.com/ignatzorin/delivery-backend/internal/ws"
)

const (
	testAdminEmail    = "admin@delivery.test"
	testAdminPassword = "secret-pass"
)

// pngHeader минимальная сигнатура PNG, по которой filetype распознаёт изображение.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

type testApp struct {
	engine *gin.Engine
	hub    *ws.Hub
	queue  *notify.Queue
	media  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conn, err := db.NewSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn, "../../../migrations/sqlite"))

	media := t.TempDir()
	cfg := &config.Config{
		Env:              "test",
		StorageBackend:   config.StorageBackendSQLite,
		MediaStoragePath: media,
		AllowedOrigins:   []string{"http://localhost:5173"},
	}

	photos, err := storage.NewPhotoStorage(media, "/media", 1)
	require.NoError(t, err)

	tokens := service.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	auth := service.NewAuthService(repository.NewAdminRepository(conn), tokens)
	require.NoError(t, auth.EnsureAdmin(ctx, testAdminEmail, testAdminPassword, false))

	hub := ws.NewHub(ctx)
	go hub.Run()

	queue := notify.NewQueue(time.Minute, ws.NewNotificationSink(hub))
	t.Cleanup(queue.Close)

	requests := service.NewRequestService(
		repository.NewDeliveryRequestRepository(conn),
		catalog.Default,
		photos,
		hub,
		queue,
		time.Second,
	)

	engine := SetupRouter(cfg, Handlers{
		Health:   handlers.NewHealthHandler(conn, cfg.StorageBackend),
		Catalog:  handlers.NewCatalogHandler(catalog.Default),
		Requests: handlers.NewRequestHandler(requests, photos.MaxUploadBytes()),
		Auth:     handlers.NewAuthHandler(auth),
		Session:  handlers.NewSessionHandler(),
		Admin:    handlers.NewAdminHandler(requests, queue),
		WS:       handlers.NewWSHandler(hub, nil),
	}, auth)

	return &testApp{engine: engine, hub: hub, queue: queue, media: media}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (a *testApp) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (a *testApp) login(t *testing.T) (access, refresh string) {
	t.Helper()

	w, env := a.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Tokens.AccessToken, out.Tokens.RefreshToken
}

func validSubmission() map[string]any {
	return map[string]any{
		"client_name":  "Marie Dupont",
		"client_phone": "+33 6 12 34 56 78",
		"description":  "Paracétamol 500mg",
		"category":     "pharmacy",
		"budget":       "15.50",
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"healthy"`)
	assert.Contains(t, w.Body.String(), `"storage_backend":"sqlite"`)
}

func TestCatalogEndpoints(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cats struct {
		Categories []catalog.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	assert.Len(t, cats.Categories, 10)
	assert.Equal(t, "beverage", cats.Categories[0].ID)

	w, _ = app.do(t, http.MethodGet, "/api/statuses", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pending"`)
	assert.Contains(t, w.Body.String(), `"completed"`)
}

func TestSubmitRequest_JSON(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/requests", validSubmission(), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)

	var out service.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotNil(t, out.Request)
	assert.NotEmpty(t, out.Request.ID)
	assert.Equal(t, "pending", string(out.Request.Status))
	assert.InDelta(t, 15.5, out.Request.Budget, 0.0001)
	assert.Equal(t, notify.KindSuccess, out.Notification.Kind)
}

func TestSubmitRequest_NumericBudget(t *testing.T) {
	app := newTestApp(t)

	body := validSubmission()
	body["budget"] = 20
	w, _ := app.do(t, http.MethodPost, "/api/requests", body, "")

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSubmitRequest_ValidationErrors(t *testing.T) {
	app := newTestApp(t)

	body := validSubmission()
	body["client_name"] = "   "
	body["client_phone"] = "abc"
	body["budget"] = "-5"
	body["category"] = "unknown"

	w, env := app.do(t, http.MethodPost, "/api/requests", body, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "client_name")
	assert.Contains(t, env.Error.Fields, "client_phone")
	assert.Contains(t, env.Error.Fields, "budget")
	assert.Contains(t, env.Error.Fields, "category")
}

func TestSubmitRequest_MalformedJSON(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/requests", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_REQUEST")
}

func TestSubmitRequest_MultipartWithPhoto(t *testing.T) {
	app := newTestApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range validSubmission() {
		require.NoError(t, mw.WriteField(k, v.(string)))
	}
	part, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(pngHeader)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/requests", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var out service.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotNil(t, out.Request.Image)
	assert.Contains(t, *out.Request.Image, "/media/")

	entries, err := os.ReadDir(filepath.Join(app.media, "requests"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Сохранённая фотография раздаётся статикой
	w = httptest.NewRecorder()
	app.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, *out.Request.Image, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitRequest_RejectsNonImage(t *testing.T) {
	app := newTestApp(t)

	body := validSubmission()
	body["image"] = "data:text/plain;base64,aGVsbG8gd29ybGQ="
	w, env := app.do(t, http.MethodPost, "/api/requests", body, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Fields, "image")
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/admin/requests"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPut, "/api/admin/requests/abc/status"},
		{http.MethodGet, "/api/admin/notifications"},
		{http.MethodGet, "/api/ws"},
	} {
		w, _ := app.do(t, tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}

	w, _ := app.do(t, http.MethodGet, "/api/admin/requests", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_ReturnsDashboardGate(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Session struct {
			View   string `json:"view"`
			Auth   string `json:"auth"`
			Screen string `json:"screen"`
			Admin  *struct {
				Email string `json:"email"`
			} `json:"admin"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "admin", out.Session.View)
	assert.Equal(t, "authenticated", out.Session.Auth)
	assert.Equal(t, "dashboard", out.Session.Screen)
	require.NotNil(t, out.Session.Admin)
	assert.Equal(t, testAdminEmail, out.Session.Admin.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": "wrong",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestAdminFlow_ListFilterAndUpdateStatus(t *testing.T) {
	app := newTestApp(t)
	access, _ := app.login(t)

	w, env := app.do(t, http.MethodPost, "/api/requests", validSubmission(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created service.SubmitResult
	require.NoError(t, json.Unmarshal(env.Data, &created))

	other := validSubmission()
	other["description"] = "Pneus hiver"
	other["category"] = "autopart"
	w, _ = app.do(t, http.MethodPost, "/api/requests", other, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = app.do(t, http.MethodPut, "/api/admin/requests/"+created.Request.ID+"/status",
		map[string]string{"status": "delivering"}, access)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated service.StatusResult
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "delivering", string(updated.Request.Status))
	assert.True(t, updated.Request.UpdatedAt.After(created.Request.UpdatedAt))

	w, env = app.do(t, http.MethodGet, "/api/admin/requests?status=delivering", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Requests []struct {
			ID           string `json:"id"`
			CategoryName string `json:"category_name"`
			StatusLabel  string `json:"status_label"`
		} `json:"requests"`
		Stats struct {
			Total      int `json:"total"`
			Pending    int `json:"pending"`
			Delivering int `json:"delivering"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Requests, 1)
	assert.Equal(t, created.Request.ID, view.Requests[0].ID)
	assert.Equal(t, "Pharmacie", view.Requests[0].CategoryName)
	assert.Equal(t, 2, view.Stats.Total)
	assert.Equal(t, 1, view.Stats.Pending)
	assert.Equal(t, 1, view.Stats.Delivering)

	w, env = app.do(t, http.MethodGet, "/api/admin/requests?q=PNEUS", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Requests, 1)
	assert.NotEqual(t, created.Request.ID, view.Requests[0].ID)

	w, _ = app.do(t, http.MethodGet, "/api/admin/stats", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w, env = app.do(t, http.MethodGet, "/api/admin/notifications", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	var active []notify.Notification
	require.NoError(t, json.Unmarshal(env.Data, &active))
	assert.Len(t, active, 3)

	w, _ = app.do(t, http.MethodDelete, "/api/admin/notifications/"+active[0].ID, nil, access)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, app.queue.Active(), 2)
}

func TestAdminUpdateStatus_Errors(t *testing.T) {
	app := newTestApp(t)
	access, _ := app.login(t)

	w, env := app.do(t, http.MethodPut, "/api/admin/requests/req_42/status",
		map[string]string{"status": "completed"}, access)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	w, _ = app.do(t, http.MethodPut, "/api/admin/requests/req_42/status",
		map[string]string{"status": "lost"}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPut, "/api/admin/requests/req_42/status", map[string]string{}, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/admin/requests?status=archived", nil, access)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSession_Gate(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/api/session?view=admin", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var gate struct {
		View   string `json:"view"`
		Auth   string `json:"auth"`
		Screen string `json:"screen"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &gate))
	assert.Equal(t, "unauthenticated", gate.Auth)
	assert.Equal(t, "login", gate.Screen)

	access, _ := app.login(t)
	w, env = app.do(t, http.MethodGet, "/api/session?view=admin", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &gate))
	assert.Equal(t, "authenticated", gate.Auth)
	assert.Equal(t, "dashboard", gate.Screen)

	w, env = app.do(t, http.MethodGet, "/api/session", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &gate))
	assert.Equal(t, "user", gate.Screen)

	w, _ = app.do(t, http.MethodGet, "/api/session?view=other", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	app := newTestApp(t)
	access, refresh := app.login(t)

	w, env := app.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.NotEqual(t, refresh, out.Tokens.RefreshToken)

	// Старый refresh токен больше не действует
	w, _ = app.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = app.do(t, http.MethodPost, "/api/auth/logout", map[string]string{"refresh_token": out.Tokens.RefreshToken}, access)
	require.Equal(t, http.StatusOK, w.Code)
	var gate struct {
		View   string `json:"view"`
		Auth   string `json:"auth"`
		Screen string `json:"screen"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &gate))
	assert.Equal(t, "user", gate.View)
	assert.Equal(t, "unauthenticated", gate.Auth)
	assert.Equal(t, "user", gate.Screen)

	w, _ = app.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refresh_token": out.Tokens.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocket_ReceivesRefreshSignal(t *testing.T) {
	app := newTestApp(t)
	access, _ := app.login(t)

	server := httptest.NewServer(app.engine)
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] + "/api/ws?token=" + access
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	w, _ := app.do(t, http.MethodPost, "/api/requests", validSubmission(), "")
	require.Equal(t, http.StatusCreated, w.Code)

	seen := map[string]bool{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for !(seen[ws.EventRequestsChanged] && seen[ws.EventNotification]) {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		seen[msg.Type] = true
	}
}
