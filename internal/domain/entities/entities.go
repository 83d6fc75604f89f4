package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrMalformedBody    = errors.New("invalid JSON body")
	ErrIDSpaceExhausted = errors.New("could not generate a unique task id")
)

// ValidationError carries every rule a payload violated.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Problems, "; "))
}

// NewValidationError returns nil when there are no problems so callers can
// return it directly.
func NewValidationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskStatuses lists the accepted statuses in display order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusDone}
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// ParseTaskStatus returns the status named by raw, or false if raw is not a
// recognised status.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	s := TaskStatus(raw)
	if !s.IsValid() {
		return "", false
	}
	return s, true
}

// Task represents a tracked task
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     *string    `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// TaskInput is a complete, already validated payload used by create and
// full replace. Defaults have been applied.
type TaskInput struct {
	Title       string
	Description string
	Status      TaskStatus
	DueDate     *string
}

// TaskPatch holds the fields present in a partial update. A nil pointer
// means "leave unchanged". DueDate uses SetDueDate because null is a
// meaningful value for it.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	SetDueDate  bool
	DueDate     *string
}

// Apply copies the present fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.SetDueDate {
		if p.DueDate == nil {
			t.DueDate = nil
		} else {
			d := *p.DueDate
			t.DueDate = &d
		}
	}
}

// Fields is a decoded JSON request body. A key that is present with a JSON
// null maps to a nil value.
type Fields map[string]any

// Has reports whether the key was present in the body, null included.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}
