package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// DeadlineService handles dated reminders
type DeadlineService struct {
	deadlineRepo ports.DeadlineRepository
	logger       *logger.Logger
	now          Clock
}

func NewDeadlineService(deadlineRepo ports.DeadlineRepository, logger *logger.Logger, clock Clock) *DeadlineService {
	return &DeadlineService{
		deadlineRepo: deadlineRepo,
		logger:       logger,
		now:          clock.orNow(),
	}
}

func (s *DeadlineService) CreateDeadline(ctx context.Context, req ports.CreateDeadlineRequest) (*entities.Deadline, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, entities.NewValidationError("title", "is required")
	}
	if req.DueDate.IsZero() {
		return nil, entities.NewValidationError("dueDate", "is required")
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, entities.NewValidationError("priority", fmt.Sprintf("unknown priority %q", priority))
	}

	deadline := &entities.Deadline{
		Title:       title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		MemberID:    req.MemberID,
		CreatedAt:   s.now(),
	}

	if err := s.deadlineRepo.Create(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to create deadline: %w", err)
	}

	s.logger.Infow("Deadline created", "deadline_id", deadline.ID, "due_date", deadline.DueDate)

	return deadline, nil
}

func (s *DeadlineService) ListDeadlines(ctx context.Context, filter ports.DeadlineFilter) ([]*entities.Deadline, error) {
	deadlines, err := s.deadlineRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list deadlines: %w", err)
	}
	return deadlines, nil
}

func (s *DeadlineService) CompleteDeadline(ctx context.Context, id int64) (*entities.Deadline, error) {
	deadline, err := s.deadlineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deadline.Completed = true
	if err := s.deadlineRepo.Update(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to complete deadline: %w", err)
	}

	return deadline, nil
}
