package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/ports"
)

// MaterializerConfig holds the defaults applied to incomplete actions
type MaterializerConfig struct {
	DefaultAssigneeID int64
	EventDuration     time.Duration
}

// Materializer persists actions as tasks, events and deadlines. Actions are
// independent: one that fails is logged and skipped, the rest still run.
type Materializer struct {
	store    ports.Store
	cfg      MaterializerConfig
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      Clock
}

func NewMaterializer(store ports.Store, cfg MaterializerConfig, m *metrics.Metrics, logger *logger.Logger, clock Clock) *Materializer {
	if cfg.EventDuration <= 0 {
		cfg.EventDuration = time.Hour
	}
	return &Materializer{
		store:    store,
		cfg:      cfg,
		validate: validator.New(),
		metrics:  m,
		logger:   logger.WithComponent("materializer"),
		now:      clock.orNow(),
	}
}

// Materialize persists each action in order and reports what was created
func (m *Materializer) Materialize(ctx context.Context, actions []voice.Action) *ports.MaterializeResult {
	result := &ports.MaterializeResult{Created: []entities.Record{}}

	for i, action := range actions {
		record, err := m.persist(ctx, action)
		if err != nil {
			result.Failed++
			m.metrics.VoiceAction(string(action.Type()), "failed")
			m.logger.Warnw("Action not materialized",
				"index", i,
				"type", action.Type(),
				"error", err,
			)
			continue
		}
		result.Created = append(result.Created, record)
		m.metrics.VoiceAction(string(action.Type()), "created")
	}

	result.Message = confirmation(result.Created)
	return result
}

func (m *Materializer) persist(ctx context.Context, action voice.Action) (entities.Record, error) {
	switch a := action.(type) {
	case voice.TaskAction:
		return m.createTask(ctx, a)
	case voice.EventAction:
		return m.createEvent(ctx, a)
	case voice.ReminderAction:
		return m.createReminder(ctx, a)
	default:
		return nil, fmt.Errorf("unsupported action %T", action)
	}
}

func (m *Materializer) createTask(ctx context.Context, a voice.TaskAction) (*entities.Task, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Priority == "" {
		a.Priority = entities.PriorityMedium
	}
	if a.AssignedTo == nil {
		id := m.cfg.DefaultAssigneeID
		a.AssignedTo = &id
	}
	if err := m.check(a); err != nil {
		return nil, err
	}

	task := &entities.Task{
		Title:       a.Title,
		Description: a.Description,
		Priority:    a.Priority,
		DueDate:     a.DueDate,
		AssignedTo:  a.AssignedTo,
		CreatedAt:   m.now(),
	}
	if err := m.store.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (m *Materializer) createEvent(ctx context.Context, a voice.EventAction) (*entities.Event, error) {
	a.Title = strings.TrimSpace(a.Title)
	if err := m.check(a); err != nil {
		return nil, err
	}

	end := a.EndTime
	if end == nil {
		e := a.StartTime.Add(m.cfg.EventDuration)
		end = &e
	}

	event := &entities.Event{
		Title:       a.Title,
		Description: a.Description,
		StartTime:   a.StartTime,
		EndTime:     end,
		Location:    a.Location,
		AssignedTo:  a.AssignedTo,
		AllDay:      a.AllDay,
		Visibility:  entities.VisibilityShared,
		SharedWith:  []int64{},
		CreatedAt:   m.now(),
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := m.store.Events().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (m *Materializer) createReminder(ctx context.Context, a voice.ReminderAction) (*entities.Deadline, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Priority == "" {
		a.Priority = entities.PriorityMedium
	}
	if err := m.check(a); err != nil {
		return nil, err
	}

	deadline := &entities.Deadline{
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		Priority:    a.Priority,
		MemberID:    a.AssignedTo,
		CreatedAt:   m.now(),
	}
	if err := m.store.Deadlines().Create(ctx, deadline); err != nil {
		return nil, fmt.Errorf("create deadline: %w", err)
	}
	return deadline, nil
}

// check runs struct validation and reports the first failing field
func (m *Materializer) check(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
		if fe.Tag() == "required" {
			return entities.NewValidationError(field, "is required")
		}
		return entities.NewValidationError(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
	return err
}

func confirmation(created []entities.Record) string {
	switch len(created) {
	case 0:
		return "No items were created."
	case 1:
		return fmt.Sprintf("Created %s %q", created[0].RecordKind(), created[0].RecordTitle())
	default:
		return fmt.Sprintf("Created %d items", len(created))
	}
}
