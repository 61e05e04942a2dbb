package api

import (
	"time"

	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/onboarding"
	"github.com/phrazzld/tempo/internal/oracle"
	"github.com/phrazzld/tempo/internal/service"
)

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required,max=500"`
}

// ReassignTaskRequest defines the payload for moving a task.
type ReassignTaskRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// AnswerRequest is one answered onboarding question.
type AnswerRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
}

// OnboardingRequest defines the payload for onboarding.
type OnboardingRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

// TaskResponse is the JSON shape of a task.
type TaskResponse struct {
	ID                 string     `json:"id"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Period             string     `json:"period"`
	EstimatedDuration  int        `json:"estimated_duration"`
	Priority           int        `json:"priority"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	ActualDuration     *int       `json:"actual_duration,omitempty"`
	ReassignmentReason string     `json:"reassignment_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TimingResponse describes when a completed task ran.
type TimingResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"`
	IsOnTime  bool      `json:"is_on_time"`
}

// CompletionResponse is returned by the complete endpoint.
type CompletionResponse struct {
	Task          TaskResponse   `json:"task"`
	Timing        TimingResponse `json:"timing"`
	UpdatedTraits []string       `json:"updated_traits"`
	TraitsSource  string         `json:"traits_source"`
}

// ReassignmentResponse is returned by the reassign endpoint.
type ReassignmentResponse struct {
	Task              TaskResponse `json:"task"`
	UpdatedTraits     []string     `json:"updated_traits"`
	TraitsSource      string       `json:"traits_source"`
	SuggestedTimeSlot string       `json:"suggested_time_slot,omitempty"`
	Fallback          bool         `json:"fallback"`
}

// ProfileResponse is the JSON shape of a user profile.
type ProfileResponse struct {
	UserID           string    `json:"user_id"`
	Traits           []string  `json:"traits"`
	ProductivePeriod string    `json:"productive_period,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
	TraitsSource     string    `json:"traits_source,omitempty"`
}

// QuestionResponse is one onboarding question.
type QuestionResponse struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
}

func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                 task.ID.String(),
		Description:        task.Description,
		Status:             string(task.Status),
		StartTime:          task.Window.Start,
		EndTime:            task.Window.End,
		Period:             string(task.Period),
		EstimatedDuration:  task.EstimatedDuration,
		Priority:           task.Priority,
		CompletedAt:        task.CompletedAt,
		ActualDuration:     task.ActualDuration,
		ReassignmentReason: task.ReassignmentReason,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}

func completionToResponse(outcome *service.CompletionOutcome) CompletionResponse {
	return CompletionResponse{
		Task: taskToResponse(outcome.Task),
		Timing: TimingResponse{
			StartTime: outcome.Timing.StartTime,
			EndTime:   outcome.Timing.EndTime,
			Duration:  outcome.Timing.Duration,
			IsOnTime:  outcome.Timing.IsOnTime,
		},
		UpdatedTraits: domain.CopyTraits(outcome.Traits),
		TraitsSource:  string(outcome.TraitsSource),
	}
}

func reassignmentToResponse(outcome *service.ReassignmentOutcome) ReassignmentResponse {
	return ReassignmentResponse{
		Task:              taskToResponse(outcome.Task),
		UpdatedTraits:     domain.CopyTraits(outcome.Traits),
		TraitsSource:      string(outcome.TraitsSource),
		SuggestedTimeSlot: outcome.SuggestedTimeSlot,
		Fallback:          outcome.Fallback,
	}
}

func profileToResponse(profile *domain.UserProfile, source oracle.Source) ProfileResponse {
	resp := ProfileResponse{
		UserID:       profile.UserID.String(),
		Traits:       profile.TraitList(),
		UpdatedAt:    profile.UpdatedAt,
		TraitsSource: string(source),
	}
	if profile.ProductivePeriod != nil {
		resp.ProductivePeriod = string(*profile.ProductivePeriod)
	}
	return resp
}

func questionsToResponse(questions []onboarding.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionResponse{
			ID:       q.ID,
			Question: q.Question,
			Type:     string(q.Type),
			Options:  q.Options,
		})
	}
	return out
}

func (r OnboardingRequest) toAnswers() []oracle.Answer {
	answers := make([]oracle.Answer, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, oracle.Answer{Question: a.Question, Answer: a.Answer})
	}
	return answers
}
