package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func validSchedule() Schedule {
	return Schedule{
		Window:            NewTimeWindow(testNow.Add(time.Hour), 45),
		Period:            PeriodMorning,
		EstimatedDuration: 45,
		Priority:          PriorityExplicit,
	}
}

func TestNewTask(t *testing.T) {
	t.Parallel()
	ownerID := uuid.New()

	task, err := NewTask(ownerID, "  go for a morning walk ", validSchedule(), testNow)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if task.OwnerID != ownerID {
		t.Errorf("Expected owner ID %s, got %s", ownerID, task.OwnerID)
	}
	if task.Description != "go for a morning walk" {
		t.Errorf("Expected trimmed description, got %q", task.Description)
	}
	if task.Status != TaskStatusPending {
		t.Errorf("Expected status %s, got %s", TaskStatusPending, task.Status)
	}
	if task.CompletedAt != nil || task.ActualDuration != nil {
		t.Error("Expected completion metadata to be unset on a new task")
	}

	if _, err := NewTask(uuid.Nil, "walk", validSchedule(), testNow); err != ErrTaskOwnerIDEmpty {
		t.Errorf("Expected error %v, got %v", ErrTaskOwnerIDEmpty, err)
	}

	if _, err := NewTask(ownerID, "   ", validSchedule(), testNow); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for blank description, got %v", err)
	}
}

func TestScheduleValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(s *Schedule)
		want   error
	}{
		{name: "valid", mutate: func(s *Schedule) {}, want: nil},
		{name: "end equals start", mutate: func(s *Schedule) { s.Window.End = s.Window.Start }, want: ErrInvalidWindow},
		{name: "unknown period", mutate: func(s *Schedule) { s.Period = "brunch" }, want: ErrInvalidPeriod},
		{name: "zero duration", mutate: func(s *Schedule) { s.EstimatedDuration = 0 }, want: ErrTaskDurationZero},
		{name: "priority out of range", mutate: func(s *Schedule) { s.Priority = 3 }, want: ErrTaskPriority},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := validSchedule()
			tc.mutate(&s)
			if err := s.Validate(); err != tc.want {
				t.Errorf("Expected error %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("complete pending task", func(t *testing.T) {
		task, _ := NewTask(uuid.New(), "walk", validSchedule(), testNow)
		if err := task.Complete(testNow.Add(2*time.Hour), 50); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if task.Status != TaskStatusCompleted {
			t.Errorf("Expected status %s, got %s", TaskStatusCompleted, task.Status)
		}
		if task.ActualDuration == nil || *task.ActualDuration != 50 {
			t.Errorf("Expected actual duration 50, got %v", task.ActualDuration)
		}
		if err := task.Validate(); err != nil {
			t.Errorf("Expected completed task to validate, got %v", err)
		}
		if err := task.Complete(testNow, 1); err != ErrInvalidTransition {
			t.Errorf("Expected %v completing twice, got %v", ErrInvalidTransition, err)
		}
	})

	t.Run("missed then reassigned", func(t *testing.T) {
		task, _ := NewTask(uuid.New(), "walk", validSchedule(), testNow)
		if err := task.MarkMissed(testNow); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if err := task.MarkMissed(testNow); err != ErrInvalidTransition {
			t.Errorf("Expected %v marking missed twice, got %v", ErrInvalidTransition, err)
		}

		next := validSchedule()
		next.Period = PeriodEvening
		next.Window = NewTimeWindow(testNow.Add(10*time.Hour), 45)
		if err := task.Reassign(next, "  overslept  ", testNow); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if task.Status != TaskStatusPending {
			t.Errorf("Expected status %s, got %s", TaskStatusPending, task.Status)
		}
		if task.ReassignmentReason != "overslept" {
			t.Errorf("Expected recorded reason, got %q", task.ReassignmentReason)
		}
		if task.Period != PeriodEvening {
			t.Errorf("Expected period %s, got %s", PeriodEvening, task.Period)
		}
	})

	t.Run("missed task cannot be completed", func(t *testing.T) {
		task, _ := NewTask(uuid.New(), "walk", validSchedule(), testNow)
		if err := task.MarkMissed(testNow); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if err := task.Complete(testNow.Add(time.Hour), 60); err != ErrInvalidTransition {
			t.Errorf("Expected error %v, got %v", ErrInvalidTransition, err)
		}
		if task.Status != TaskStatusMissed {
			t.Errorf("Expected status %s, got %s", TaskStatusMissed, task.Status)
		}
		if task.CompletedAt != nil || task.ActualDuration != nil {
			t.Error("Expected completion metadata to stay unset")
		}
	})

	t.Run("reassign requires reason", func(t *testing.T) {
		task, _ := NewTask(uuid.New(), "walk", validSchedule(), testNow)
		if err := task.Reassign(validSchedule(), " ", testNow); err != ErrEmptyReason {
			t.Errorf("Expected error %v, got %v", ErrEmptyReason, err)
		}
	})

	t.Run("completed task cannot be reassigned", func(t *testing.T) {
		task, _ := NewTask(uuid.New(), "walk", validSchedule(), testNow)
		_ = task.Complete(testNow, 10)
		if err := task.Reassign(validSchedule(), "late", testNow); err != ErrInvalidTransition {
			t.Errorf("Expected error %v, got %v", ErrInvalidTransition, err)
		}
	})
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	if p, err := ParsePeriod("  Evening\n"); err != nil || p != PeriodEvening {
		t.Errorf("Expected evening, got %q (err %v)", p, err)
	}
	if _, err := ParsePeriod("teatime"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if len(Periods()) != 4 || Periods()[0] != PeriodMorning || Periods()[3] != PeriodMidnight {
		t.Errorf("Unexpected period order %v", Periods())
	}
}
