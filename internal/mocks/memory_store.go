package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tempo/internal/domain"
	"github.com/phrazzld/tempo/internal/service"
	"github.com/phrazzld/tempo/internal/store"
)

// MemoryStore is an in-memory implementation of store.TaskStore,
// store.ProfileStore and service.UnitOfWork for testing. A failing unit of
// work restores the state it started from.
type MemoryStore struct {
	mu       sync.Mutex
	tasks    map[uuid.UUID]domain.Task
	profiles map[uuid.UUID]domain.UserProfile

	// Err fields force the corresponding operation to fail
	CreateErr  error
	UpdateErr  error
	UpsertErr  error
	PendingErr error

	// Call tracking for verification
	LockedOwners []uuid.UUID
	Commits      int
	Rollbacks    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    make(map[uuid.UUID]domain.Task),
		profiles: make(map[uuid.UUID]domain.UserProfile),
	}
}

var (
	_ store.TaskStore    = (*memoryTasks)(nil)
	_ store.ProfileStore = (*memoryProfiles)(nil)
	_ service.UnitOfWork = (*MemoryStore)(nil)
)

// Tasks returns the task store view.
func (m *MemoryStore) Tasks() store.TaskStore { return &memoryTasks{m: m} }

// Profiles returns the profile store view.
func (m *MemoryStore) Profiles() store.ProfileStore { return &memoryProfiles{m: m} }

// Run implements service.UnitOfWork.
func (m *MemoryStore) Run(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	m.mu.Lock()
	tasks := make(map[uuid.UUID]domain.Task, len(m.tasks))
	for k, v := range m.tasks {
		tasks[k] = v
	}
	profiles := make(map[uuid.UUID]domain.UserProfile, len(m.profiles))
	for k, v := range m.profiles {
		profiles[k] = v
	}
	m.mu.Unlock()

	err := fn(ctx, service.Stores{
		Tasks:    &memoryTasks{m: m, inTx: true},
		Profiles: &memoryProfiles{m: m},
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.tasks = tasks
		m.profiles = profiles
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// PutTask stores a copy of task directly.
func (m *MemoryStore) PutTask(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = *task
}

// PutProfile stores a copy of profile directly.
func (m *MemoryStore) PutProfile(profile *domain.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *profile
	p.Traits = domain.CopyTraits(profile.Traits)
	m.profiles[p.UserID] = p
}

// Task returns a copy of the stored task, or nil.
func (m *MemoryStore) Task(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	return &t
}

// Profile returns a copy of the stored profile, or nil.
func (m *MemoryStore) Profile(userID uuid.UUID) *domain.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil
	}
	p.Traits = domain.CopyTraits(p.Traits)
	return &p
}

type memoryTasks struct {
	m    *MemoryStore
	inTx bool
}

func (s *memoryTasks) Create(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.CreateErr != nil {
		return s.m.CreateErr
	}
	if _, ok := s.m.tasks[task.ID]; ok {
		return store.ErrDuplicate
	}
	s.m.tasks[task.ID] = *task
	return nil
}

func (s *memoryTasks) Update(_ context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.UpdateErr != nil {
		return s.m.UpdateErr
	}
	if _, ok := s.m.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.m.tasks[task.ID] = *task
	return nil
}

func (s *memoryTasks) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return &t, nil
}

func (s *memoryTasks) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]*domain.Task, 0)
	for _, t := range s.m.tasks {
		if t.OwnerID == ownerID {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Window.Start.Before(out[j].Window.Start)
	})
	return out, nil
}

func (s *memoryTasks) PendingWindows(_ context.Context, ownerID, excludeID uuid.UUID) ([]domain.TimeWindow, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.PendingErr != nil {
		return nil, s.m.PendingErr
	}
	out := make([]domain.TimeWindow, 0)
	for _, t := range s.m.tasks {
		if t.OwnerID == ownerID && t.Status == domain.TaskStatusPending && t.ID != excludeID {
			out = append(out, t.Window)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *memoryTasks) LockOwner(_ context.Context, ownerID uuid.UUID) error {
	if !s.inTx {
		return nil
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.LockedOwners = append(s.m.LockedOwners, ownerID)
	return nil
}

func (s *memoryTasks) WithTx(*sql.Tx) store.TaskStore {
	return &memoryTasks{m: s.m, inTx: true}
}

type memoryProfiles struct {
	m *MemoryStore
}

func (s *memoryProfiles) Get(_ context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	p.Traits = domain.CopyTraits(p.Traits)
	return &p, nil
}

func (s *memoryProfiles) Upsert(_ context.Context, profile *domain.UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.UpsertErr != nil {
		return s.m.UpsertErr
	}
	p := *profile
	p.Traits = domain.CopyTraits(profile.Traits)
	s.m.profiles[p.UserID] = p
	return nil
}

func (s *memoryProfiles) WithTx(*sql.Tx) store.ProfileStore {
	return s
}
