package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taskmaster/tracker/internal/adapters/repository"
	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/idgen"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "Task Tracker", Environment: "test"},
		Server: config.ServerConfig{Port: 4000, ShutdownTimeout: time.Second},
		Logger: config.LoggerConfig{Level: "error", Format: "json", Output: "stdout"},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  100,
			RateLimitWindow:    time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
		Store:   config.StoreConfig{IDGenerator: "nanoid", IDLength: 10},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	n := 0
	ids := idgen.Func(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	})
	srv, err := New(cfg, repository.NewTaskRepository(ids), logger.NewNop())
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTask(t *testing.T, rec *httptest.ResponseRecorder) entities.Task {
	t.Helper()
	var task entities.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	return task
}

func TestTaskLifecycle(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodPost, "/api/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "pending", raw["status"])
	assert.Equal(t, "", raw["description"])
	assert.Contains(t, raw, "dueDate")
	assert.Nil(t, raw["dueDate"])
	assert.Equal(t, raw["createdAt"], raw["updatedAt"])

	created := decodeTask(t, rec)

	rec = do(t, h, http.MethodPatch, "/api/tasks/"+created.ID, `{"status":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decodeTask(t, rec)
	assert.Equal(t, entities.TaskStatusDone, patched.Status)
	assert.Equal(t, "Buy milk", patched.Title)

	rec = do(t, h, http.MethodDelete, "/api/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decodeTask(t, rec)
	assert.Equal(t, created.ID, removed.ID)
	assert.Equal(t, entities.TaskStatusDone, removed.Status)

	rec = do(t, h, http.MethodGet, "/api/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTask_Validation(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodPost, "/api/tasks", `{"title":"  ","status":"blocked","dueDate":"not-a-date"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":[
		"title is required (non-empty string)",
		"status must be one of pending, in-progress, done",
		"dueDate must be a valid date string"
	]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/tasks", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":["title is required (non-empty string)"]}`, rec.Body.String())
}

func TestMalformedBody(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodPost, "/api/tasks", `{"title":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":["invalid JSON body"]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/tasks", `["not","an","object"]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":["invalid JSON body"]}`, rec.Body.String())

	created := decodeTask(t, do(t, h, http.MethodPost, "/api/tasks", `{"title":"x"}`))
	rec = do(t, h, http.MethodPatch, "/api/tasks/"+created.ID, `{oops}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":["invalid JSON body"]}`, rec.Body.String())
}

func TestReplaceTask(t *testing.T) {
	h := newTestServer(t, testConfig())

	created := decodeTask(t, do(t, h, http.MethodPost, "/api/tasks",
		`{"title":"Buy milk","description":"2 litres","status":"in-progress","dueDate":"2024-06-01"}`))

	rec := do(t, h, http.MethodPut, "/api/tasks/"+created.ID, `{"title":" Buy bread "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	replaced := decodeTask(t, rec)
	assert.Equal(t, "Buy bread", replaced.Title)
	assert.Equal(t, "", replaced.Description)
	assert.Equal(t, entities.TaskStatusPending, replaced.Status)
	assert.Nil(t, replaced.DueDate)
	assert.True(t, created.CreatedAt.Equal(replaced.CreatedAt))

	rec = do(t, h, http.MethodPut, "/api/tasks/"+created.ID, `{"description":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/tasks/missing", `{"status":"blocked"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasks(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, body := range []string{
		`{"title":"first","status":"done"}`,
		`{"title":"second"}`,
		`{"title":"third","status":"done"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/tasks", body).Code)
	}

	titles := func(rec *httptest.ResponseRecorder) []string {
		var tasks []entities.Task
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.Title
		}
		return out
	}

	assert.Equal(t, []string{"third", "second", "first"}, titles(do(t, h, http.MethodGet, "/api/tasks", "")))
	assert.Equal(t, []string{"third", "first"}, titles(do(t, h, http.MethodGet, "/api/tasks?status=done", "")))
	assert.Equal(t, []string{"second"}, titles(do(t, h, http.MethodGet, "/api/tasks?status=pending", "")))
	assert.Equal(t, []string{"third", "second", "first"}, titles(do(t, h, http.MethodGet, "/api/tasks?status=blocked", "")))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig())

	tests := []struct {
		method string
		path   string
		allow  string
	}{
		{method: http.MethodPut, path: "/api/tasks", allow: "GET,POST"},
		{method: http.MethodDelete, path: "/api/tasks", allow: "GET,POST"},
		{method: http.MethodPost, path: "/api/tasks/abc", allow: "GET,PATCH,PUT,DELETE"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, tt.allow, rec.Header().Get("Allow"))
			assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())
		})
	}
}

func TestUnmatchedPath(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
}

func TestTaskPaths_TrailingSlashAndNesting(t *testing.T) {
	h := newTestServer(t, testConfig())

	created := decodeTask(t, do(t, h, http.MethodPost, "/api/tasks/", `{"title":"Buy milk"}`))
	assert.Equal(t, "Buy milk", created.Title)

	rec := do(t, h, http.MethodGet, "/api/tasks/"+created.ID+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeTask(t, rec).ID)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			rec := do(t, h, method, "/api/tasks/"+created.ID+"/x", "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
		})
	}

	// the nested DELETE above must not have removed the task
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/tasks/"+created.ID, "").Code)
}

func TestHealthRoutes_OtherMethodsNotFound(t *testing.T) {
	h := newTestServer(t, testConfig())

	for _, path := range []string{"/api/health", "/ready"} {
		for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodPut} {
			t.Run(method+" "+path, func(t *testing.T) {
				rec := do(t, h, method, path, "")
				assert.Equal(t, http.StatusNotFound, rec.Code)
				assert.Empty(t, rec.Header().Get("Allow"))
				assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())
			})
		}
	}
}

func TestOptions(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodOptions, "/api/tasks", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET,POST,OPTIONS", rec.Header().Get("Allow"))

	rec = do(t, h, http.MethodOptions, "/api/tasks/t1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET,PATCH,PUT,DELETE,OPTIONS", rec.Header().Get("Allow"))

	// CORS preflight is still answered by the CORS middleware
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/t1", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestHealthAndReadiness(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health struct {
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Positive(t, health.Timestamp)

	rec = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, testConfig())

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/tasks", `{"title":"a","status":"done"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/tasks", `{"title":"b"}`).Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `tasks_stored{status="done"} 1`)
	assert.Contains(t, body, `tasks_stored{status="pending"} 1`)
	assert.Contains(t, body, `tasks_stored{status="in-progress"} 0`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/tasks",status="201"} 2`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	h := newTestServer(t, cfg)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitEnabled = true
	cfg.Security.RateLimitRequests = 2
	cfg.Security.RateLimitWindow = time.Hour
	h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/tasks", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/tasks", "").Code)

	rec := do(t, h, http.MethodGet, "/api/tasks", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestSwaggerDocument(t *testing.T) {
	h := newTestServer(t, testConfig())

	rec := do(t, h, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Task Tracker API")
}

func TestInternalErrorIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sameID := idgen.Func(func() string { return "dup" })
	srv, err := New(testConfig(), repository.NewTaskRepository(sameID), logger.FromZap(zap.New(core)))
	require.NoError(t, err)
	h := srv.Handler()

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/tasks", `{"title":"a"}`).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"b"}`))
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())

	entries := logs.FilterMessage("Internal server error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "/api/tasks", fields["path"])
	assert.Contains(t, fields["error"], entities.ErrIDSpaceExhausted.Error())
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{
			name: "wrapped not found",
			err:  fmt.Errorf("get task x: %w", entities.ErrTaskNotFound),
			code: http.StatusNotFound,
			body: `{"error":"Task not found"}`,
		},
		{
			name: "validation",
			err:  entities.NewValidationError([]string{"a", "b"}),
			code: http.StatusBadRequest,
			body: `{"errors":["a","b"]}`,
		},
		{
			name: "id exhaustion is internal",
			err:  fmt.Errorf("failed to create task: %w", entities.ErrIDSpaceExhausted),
			code: http.StatusInternalServerError,
			body: `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := errorResponse(tt.err)
			assert.Equal(t, tt.code, code)
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			assert.JSONEq(t, tt.body, string(encoded))
		})
	}
}
