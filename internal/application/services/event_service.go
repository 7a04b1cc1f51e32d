package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// EventService handles calendar event operations
type EventService struct {
	eventRepo ports.EventRepository
	logger    *logger.Logger
	now       Clock
}

// NewEventService creates a new event service
func NewEventService(eventRepo ports.EventRepository, logger *logger.Logger, clock Clock) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		logger:    logger,
		now:       clock.orNow(),
	}
}

func eventFromInput(in ports.EventInput) (*entities.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, entities.NewValidationError("title", "is required")
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = entities.VisibilityShared
	}
	if !visibility.IsValid() {
		return nil, entities.NewValidationError("type", fmt.Sprintf("unknown visibility %q", visibility))
	}

	sharedWith := in.SharedWith
	if sharedWith == nil {
		sharedWith = []int64{}
	}

	event := &entities.Event{
		Title:       title,
		Description: in.Description,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Location:    in.Location,
		AssignedTo:  in.AssignedTo,
		AllDay:      in.AllDay,
		Visibility:  visibility,
		SharedWith:  sharedWith,
	}

	if err := event.Validate(); err != nil {
		return nil, err
	}
	return event, nil
}

// CreateEvent creates a new event
func (s *EventService) CreateEvent(ctx context.Context, in ports.EventInput) (*entities.Event, error) {
	event, err := eventFromInput(in)
	if err != nil {
		return nil, err
	}
	event.CreatedAt = s.now()

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Infow("Event created", "event_id", event.ID, "start_time", event.StartTime)

	return event, nil
}

// UpdateEvent replaces the editable fields of an event
func (s *EventService) UpdateEvent(ctx context.Context, id int64, in ports.EventInput) (*entities.Event, error) {
	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	event, err := eventFromInput(in)
	if err != nil {
		return nil, err
	}
	event.ID = existing.ID
	event.CreatedAt = existing.CreatedAt

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.logger.Infow("Event updated", "event_id", event.ID)

	return event, nil
}

// DeleteEvent removes an event
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("Event deleted", "event_id", id)
	return nil
}

// GetEvent retrieves an event by ID
func (s *EventService) GetEvent(ctx context.Context, id int64) (*entities.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents lists events ordered by start time
func (s *EventService) ListEvents(ctx context.Context, filter ports.EventFilter) ([]*entities.Event, error) {
	events, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}
