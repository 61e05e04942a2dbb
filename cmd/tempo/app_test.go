package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/api"
	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/config"
	"github.com/phrazzld/tempo/internal/mocks"
	"github.com/phrazzld/tempo/internal/platform/logger"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-test-secret-of-at-least-32-bytes"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "debug"},
		Auth:   config.AuthConfig{JWTSecret: testSecret, TokenTTLMinutes: 60},
		LLM: config.LLMConfig{
			GeminiAPIKey:      "unused",
			ModelName:         "gemini-2.0-flash",
			TimeoutSeconds:    1,
			RetryDelaySeconds: 1,
		},
		Scheduling: config.SchedulingConfig{Timezone: "UTC", HorizonDays: 7, GraceMinutes: 30},
	}
}

type testApp struct {
	app    *application
	store  *mocks.MemoryStore
	router http.Handler
	now    time.Time
	logs   *logger.TestLogBuffer
}

func newTestApp(t *testing.T, cfg *config.Config, fs afero.Fs) *testApp {
	t.Helper()

	log, buf := logger.GetTestLogger(t)
	mem := mocks.NewMemoryStore()
	ta := &testApp{logs: buf, store: mem, now: time.Date(2026, time.March, 2, 8, 30, 0, 0, time.UTC)}

	app, err := newApplication(cfg, log, backends{
		tasks:    mem.Tasks(),
		profiles: mem.Profiles(),
		uow:      mem,
		client:   mocks.NewMockOracleClientWithError(errors.New("oracle offline")),
		fs:       fs,
	}, service.WithClock(func() time.Time { return ta.now }))
	require.NoError(t, err)

	ta.app = app
	ta.router = app.setupRouter()
	return ta
}

func (ta *testApp) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	return rec
}

func (ta *testApp) token(t *testing.T, owner uuid.UUID) string {
	t.Helper()
	token, err := ta.app.jwt.GenerateToken(context.Background(), owner)
	require.NoError(t, err)
	return token
}

func TestNewApplication_Validation(t *testing.T) {
	t.Parallel()

	log, _ := logger.GetTestLogger(t)

	_, err := newApplication(nil, log, backends{})
	assert.Error(t, err)

	_, err = newApplication(testConfig(), nil, backends{})
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Scheduling.Timezone = "Mars/Olympus_Mons"
	mem := mocks.NewMemoryStore()
	_, err = newApplication(cfg, log, backends{
		tasks: mem.Tasks(), profiles: mem.Profiles(), uow: mem, client: &mocks.MockOracleClient{},
	})
	assert.ErrorContains(t, err, "timezone")

	cfg = testConfig()
	cfg.Auth.JWTSecret = "short"
	_, err = newApplication(cfg, log, backends{
		tasks: mem.Tasks(), profiles: mem.Profiles(), uow: mem, client: &mocks.MockOracleClient{},
	})
	assert.ErrorContains(t, err, "JWT")
}

func TestNewApplication_LoadsFilesFromFs(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/tempo/questions.yaml", []byte(`
onboarding:
  - id: wake
    question: When do you wake up?
    type: text
`), 0o644))

	cfg := testConfig()
	cfg.Scheduling.QuestionsPath = "/etc/tempo/questions.yaml"
	ta := newTestApp(t, cfg, fs)

	rec := ta.do(t, http.MethodGet, "/api/onboarding/questions", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var questions []api.QuestionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &questions))
	require.Len(t, questions, 1)
	assert.Equal(t, "wake", questions[0].ID)
}

func TestNewApplication_MissingQuestionsFile(t *testing.T) {
	t.Parallel()

	log, _ := logger.GetTestLogger(t)
	mem := mocks.NewMemoryStore()
	cfg := testConfig()
	cfg.Scheduling.QuestionsPath = "/missing.yaml"

	_, err := newApplication(cfg, log, backends{
		tasks:    mem.Tasks(),
		profiles: mem.Profiles(),
		uow:      mem,
		client:   &mocks.MockOracleClient{},
		fs:       afero.NewMemMapFs(),
	})
	assert.ErrorContains(t, err, "onboarding questions")
}

func TestRouter_TaskLifecycle(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, testConfig(), afero.NewMemMapFs())
	owner := uuid.New()
	token := ta.token(t, owner)

	rec := ta.do(t, http.MethodGet, "/api/tasks", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/tasks", api.CreateTaskRequest{Description: "go for a morning walk"}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(shared.TraceIDHeader))

	var created api.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "morning", created.Period)
	assert.Equal(t, 45, created.EstimatedDuration)
	assert.True(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC).Equal(created.StartTime))
	assert.True(t, time.Date(2026, time.March, 2, 9, 45, 0, 0, time.UTC).Equal(created.EndTime))

	rec = ta.do(t, http.MethodGet, "/api/tasks", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []api.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	intruder := ta.token(t, uuid.New())
	rec = ta.do(t, http.MethodGet, "/api/tasks/"+created.ID, nil, intruder)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/tasks", api.CreateTaskRequest{Description: "write report"}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var report api.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "afternoon", report.Period)
	assert.Equal(t, 2, report.Priority)

	rec = ta.do(t, http.MethodPut, "/api/tasks/"+created.ID+"/missed", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.do(t, http.MethodPut, "/api/tasks/"+created.ID+"/complete", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code, "a missed task must be reassigned first")

	rec = ta.do(t, http.MethodPut, "/api/tasks/"+created.ID+"/reassign", api.ReassignTaskRequest{Reason: "overslept"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reassigned api.ReassignmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reassigned))
	assert.Equal(t, "pending", reassigned.Task.Status)
	assert.Equal(t, "overslept", reassigned.Task.ReassignmentReason)
	assert.Equal(t, "defaulted", reassigned.TraitsSource)

	ta.now = time.Date(2026, time.March, 2, 12, 20, 0, 0, time.UTC)
	rec = ta.do(t, http.MethodPut, "/api/tasks/"+report.ID+"/complete", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var completed api.CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
	assert.Equal(t, "completed", completed.Task.Status)
	assert.Equal(t, 20, completed.Timing.Duration)
	assert.True(t, completed.Timing.IsOnTime)

	rec = ta.do(t, http.MethodPut, "/api/tasks/"+report.ID+"/complete", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/profile", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)

	logger.AssertLogField(t, ta.logs, "event_type", "task.completed")
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, testConfig(), afero.NewMemMapFs())

	rec := ta.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_RejectsForeignToken(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, testConfig(), afero.NewMemMapFs())

	other := testConfig()
	other.Auth.JWTSecret = "another-secret-that-is-also-32-bytes-long"
	foreign := newTestApp(t, other, afero.NewMemMapFs()).token(t, uuid.New())

	rec := ta.do(t, http.MethodGet, "/api/profile", nil, foreign)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplication_ServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, testConfig(), afero.NewMemMapFs())
	closed := false
	ta.app.closer = func() error {
		closed = true
		return nil
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ta.app.serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	ta.app.cleanup()
	assert.True(t, closed)
}
