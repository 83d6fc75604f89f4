package ports

import (
	"context"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// TaskRepository owns the authoritative task collection. Every method either
// completes or returns entities.ErrTaskNotFound for a missing id.
type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Create(ctx context.Context, input entities.TaskInput) (*entities.Task, error)
	Replace(ctx context.Context, id string, input entities.TaskInput) (*entities.Task, error)
	Merge(ctx context.Context, id string, patch entities.TaskPatch) (*entities.Task, error)
	Delete(ctx context.Context, id string) (*entities.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
}

// IDGenerator produces identifiers for new tasks. Implementations only need
// practical uniqueness; the repository rejects collisions.
type IDGenerator interface {
	NewID() string
}

// TaskFilter narrows a task listing. A nil Status means no filtering.
type TaskFilter struct {
	Status *entities.TaskStatus
}

// StatusFilter builds a filter from a raw query value. Unknown or empty
// values produce an unfiltered listing.
func StatusFilter(raw string) TaskFilter {
	status, ok := entities.ParseTaskStatus(raw)
	if !ok {
		return TaskFilter{}
	}
	return TaskFilter{Status: &status}
}

// Matches reports whether the task passes the filter.
func (f TaskFilter) Matches(task *entities.Task) bool {
	return f.Status == nil || task.Status == *f.Status
}
