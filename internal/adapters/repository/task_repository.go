package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/ports"
)

// maxIDAttempts bounds how many fresh ids Create draws before giving up on
// a generator that keeps colliding.
const maxIDAttempts = 8

type taskEntry struct {
	task *entities.Task
	seq  uint64
}

// TaskRepositoryImpl is the process-local task store. Nothing is persisted;
// the collection lives as long as the value does.
type TaskRepositoryImpl struct {
	mu      sync.RWMutex
	tasks   map[string]*taskEntry
	nextSeq uint64
	ids     ports.IDGenerator
	now     func() time.Time
}

// Option configures a TaskRepositoryImpl.
type Option func(*TaskRepositoryImpl)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *TaskRepositoryImpl) {
		r.now = now
	}
}

// NewTaskRepository creates an empty task store drawing ids from ids.
func NewTaskRepository(ids ports.IDGenerator, opts ...Option) *TaskRepositoryImpl {
	r := &TaskRepositoryImpl{
		tasks: make(map[string]*taskEntry),
		ids:   ids,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TaskRepositoryImpl) timestamp() time.Time {
	return r.now().UTC()
}

// List returns matching tasks, newest created first.
func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*taskEntry, 0, len(r.tasks))
	for _, e := range r.tasks {
		if filter.Matches(e.task) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})

	tasks := make([]*entities.Task, len(entries))
	for i, e := range entries {
		tasks[i] = e.task.Clone()
	}
	return tasks, nil
}

// Count returns the number of matching tasks.
func (r *TaskRepositoryImpl) Count(ctx context.Context, filter ports.TaskFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.tasks {
		if filter.Matches(e.task) {
			n++
		}
	}
	return n, nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return e.task.Clone(), nil
}

// Create stores a new task built from input. CreatedAt and UpdatedAt share
// the same instant.
func (r *TaskRepositoryImpl) Create(ctx context.Context, input entities.TaskInput) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.freshID()
	if err != nil {
		return nil, err
	}

	now := r.timestamp()
	task := &entities.Task{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     copyString(input.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.nextSeq++
	r.tasks[id] = &taskEntry{task: task, seq: r.nextSeq}

	return task.Clone(), nil
}

// Replace overwrites every mutable field of the task with input.
func (r *TaskRepositoryImpl) Replace(ctx context.Context, id string, input entities.TaskInput) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}

	updated := e.task.Clone()
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Status = input.Status
	updated.DueDate = copyString(input.DueDate)
	r.touch(updated)

	e.task = updated
	return updated.Clone(), nil
}

// Merge overwrites only the fields present in patch.
func (r *TaskRepositoryImpl) Merge(ctx context.Context, id string, patch entities.TaskPatch) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}

	updated := e.task.Clone()
	patch.Apply(updated)
	r.touch(updated)

	e.task = updated
	return updated.Clone(), nil
}

// Delete removes the task permanently and returns it.
func (r *TaskRepositoryImpl) Delete(ctx context.Context, id string) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return e.task, nil
}

// touch refreshes UpdatedAt, never moving it backwards.
func (r *TaskRepositoryImpl) touch(task *entities.Task) {
	now := r.timestamp()
	if now.Before(task.UpdatedAt) {
		now = task.UpdatedAt
	}
	task.UpdatedAt = now
}

// freshID must be called with the write lock held.
func (r *TaskRepositoryImpl) freshID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := r.ids.NewID()
		if id == "" {
			continue
		}
		if _, taken := r.tasks[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", entities.ErrIDSpaceExhausted, maxIDAttempts)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
