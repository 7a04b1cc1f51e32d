package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
	now      Clock
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, logger *logger.Logger, clock Clock) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		logger:   logger,
		now:      clock.orNow(),
	}
}

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, entities.NewValidationError("title", "is required")
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, entities.NewValidationError("priority", fmt.Sprintf("unknown priority %q", priority))
	}

	task := &entities.Task{
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		CreatedAt:   s.now(),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "assigned_to", task.AssignedTo)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// ListTasks lists tasks matching filter
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CompleteTask marks a task done. Completing an already completed task
// overwrites who completed it and when.
func (s *TaskService) CompleteTask(ctx context.Context, id int64, completedBy *int64) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Complete(completedBy, s.now())

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	s.logger.Infow("Task completed", "task_id", task.ID, "completed_by", completedBy)

	return task, nil
}
