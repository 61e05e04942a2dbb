package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/api/shared"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/onboarding"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/stretchr/testify/require"
)

// MockTaskService is a mock implementation of service.TaskService for testing
type MockTaskService struct {
	CreateTaskFn   func(ctx context.Context, ownerID uuid.UUID, description string) (*domain.Task, error)
	GetTaskFn      func(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)
	ListTasksFn    func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	CompleteTaskFn func(ctx context.Context, ownerID, taskID uuid.UUID) (*service.CompletionOutcome, error)
	MarkMissedFn   func(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)
	ReassignTaskFn func(ctx context.Context, ownerID, taskID uuid.UUID, reason string) (*service.ReassignmentOutcome, error)
}

var _ service.TaskService = (*MockTaskService)(nil)

func (m *MockTaskService) CreateTask(ctx context.Context, ownerID uuid.UUID, description string) (*domain.Task, error) {
	return m.CreateTaskFn(ctx, ownerID, description)
}

func (m *MockTaskService) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	return m.GetTaskFn(ctx, ownerID, taskID)
}

func (m *MockTaskService) ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return m.ListTasksFn(ctx, ownerID)
}

func (m *MockTaskService) CompleteTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
) (*service.CompletionOutcome, error) {
	return m.CompleteTaskFn(ctx, ownerID, taskID)
}

func (m *MockTaskService) MarkMissed(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	return m.MarkMissedFn(ctx, ownerID, taskID)
}

func (m *MockTaskService) ReassignTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	reason string,
) (*service.ReassignmentOutcome, error) {
	return m.ReassignTaskFn(ctx, ownerID, taskID, reason)
}

// MockProfileService is a mock implementation of service.ProfileService for testing
type MockProfileService struct {
	GetProfileFn func(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	QuestionsFn  func() []onboarding.Question
	OnboardFn    func(ctx context.Context, userID uuid.UUID, answers []oracle.Answer) (*service.OnboardingOutcome, error)
}

var _ service.ProfileService = (*MockProfileService)(nil)

func (m *MockProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	return m.GetProfileFn(ctx, userID)
}

func (m *MockProfileService) Questions() []onboarding.Question {
	return m.QuestionsFn()
}

func (m *MockProfileService) Onboard(
	ctx context.Context,
	userID uuid.UUID,
	answers []oracle.Answer,
) (*service.OnboardingOutcome, error) {
	return m.OnboardFn(ctx, userID, answers)
}

var (
	fixedUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fixedTaskID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	fixedTime   = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTask() *domain.Task {
	return &domain.Task{
		ID:                fixedTaskID,
		OwnerID:           fixedUserID,
		Description:       "go for a morning walk",
		Status:            domain.TaskStatusPending,
		Window:            domain.TimeWindow{Start: fixedTime, End: fixedTime.Add(45 * time.Minute)},
		Period:            domain.PeriodMorning,
		EstimatedDuration: 45,
		Priority:          1,
		CreatedAt:         fixedTime,
		UpdatedAt:         fixedTime,
	}
}

// newTestRouter mounts the handlers the way the server does, minus the auth
// middleware; authenticated requests carry the user ID directly.
func newTestRouter(tasks service.TaskService, profiles service.ProfileService) http.Handler {
	r := chi.NewRouter()
	if tasks != nil {
		h := NewTaskHandler(tasks, discardLogger())
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{id}", h.GetTask)
		r.Put("/tasks/{id}/complete", h.CompleteTask)
		r.Put("/tasks/{id}/missed", h.MarkMissed)
		r.Put("/tasks/{id}/reassign", h.ReassignTask)
	}
	if profiles != nil {
		h := NewProfileHandler(profiles, discardLogger())
		r.Get("/profile", h.GetProfile)
		r.Get("/onboarding/questions", h.GetQuestions)
		r.Post("/onboarding", h.Onboard)
	}
	return r
}

func doRequest(
	t *testing.T,
	router http.Handler,
	method, path string,
	body interface{},
	userID uuid.UUID,
) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
