package ports

import (
	"context"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// TaskService interface for task management operations
type TaskService interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	GetTask(ctx context.Context, id string) (*entities.Task, error)
	CreateTask(ctx context.Context, fields entities.Fields) (*entities.Task, error)
	ReplaceTask(ctx context.Context, id string, fields entities.Fields) (*entities.Task, error)
	PatchTask(ctx context.Context, id string, fields entities.Fields) (*entities.Task, error)
	DeleteTask(ctx context.Context, id string) (*entities.Task, error)
}
