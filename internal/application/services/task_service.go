package services

import (
	"context"
	"fmt"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/domain/validation"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/ports"
)

var _ ports.TaskService = (*TaskService)(nil)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger.WithComponent("task_service"),
	}
}

// ListTasks returns tasks matching filter, newest first
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

// CreateTask validates a full payload and stores a new task
func (s *TaskService) CreateTask(ctx context.Context, fields entities.Fields) (*entities.Task, error) {
	if err := entities.NewValidationError(validation.Validate(fields, false)); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Create(ctx, validation.ToInput(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.LogTaskEvent("create", task.ID, map[string]interface{}{
		"title":  task.Title,
		"status": task.Status,
	})

	return task, nil
}

// ReplaceTask overwrites all mutable fields of an existing task
func (s *TaskService) ReplaceTask(ctx context.Context, id string, fields entities.Fields) (*entities.Task, error) {
	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("replace task %s: %w", id, err)
	}

	if err := entities.NewValidationError(validation.Validate(fields, false)); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Replace(ctx, id, validation.ToInput(fields))
	if err != nil {
		return nil, fmt.Errorf("replace task %s: %w", id, err)
	}

	s.logger.LogTaskEvent("replace", task.ID, map[string]interface{}{
		"status": task.Status,
	})

	return task, nil
}

// PatchTask changes only the fields present in the payload
func (s *TaskService) PatchTask(ctx context.Context, id string, fields entities.Fields) (*entities.Task, error) {
	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("patch task %s: %w", id, err)
	}

	if err := entities.NewValidationError(validation.Validate(fields, true)); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Merge(ctx, id, validation.ToPatch(fields))
	if err != nil {
		return nil, fmt.Errorf("patch task %s: %w", id, err)
	}

	changed := make([]string, 0, len(fields))
	for k := range fields {
		changed = append(changed, k)
	}
	s.logger.LogTaskEvent("merge", task.ID, map[string]interface{}{
		"fields": changed,
	})

	return task, nil
}

// DeleteTask removes a task and returns what was removed
func (s *TaskService) DeleteTask(ctx context.Context, id string) (*entities.Task, error) {
	task, err := s.taskRepo.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete task %s: %w", id, err)
	}

	s.logger.LogTaskEvent("delete", task.ID, nil)

	return task, nil
}
