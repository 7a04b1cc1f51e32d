package voice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/timeutil"
)

// ActionType is the wire tag of an action
type ActionType string

const (
	ActionCreateTask     ActionType = "create_task"
	ActionCreateEvent    ActionType = "create_event"
	ActionCreateReminder ActionType = "create_reminder"
)

// Action is an unpersisted interpretation of an utterance. The set of
// implementations is closed: TaskAction, EventAction and ReminderAction.
type Action interface {
	Type() ActionType
	Subject() string
	sealed()
}

// TaskAction asks for a Task to be created
type TaskAction struct {
	Title       string            `json:"title" validate:"required"`
	Description *string           `json:"description,omitempty"`
	DueDate     *time.Time        `json:"dueDate,omitempty"`
	AssignedTo  *int64            `json:"assignedTo,omitempty"`
	Priority    entities.Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

// EventAction asks for an Event to be created
type EventAction struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description,omitempty"`
	StartTime   time.Time  `json:"startTime" validate:"required"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	Location    *string    `json:"location,omitempty"`
	AssignedTo  *int64     `json:"assignedTo,omitempty"`
	AllDay      bool       `json:"allDay,omitempty"`
}

// ReminderAction asks for a Deadline to be created
type ReminderAction struct {
	Title       string            `json:"title" validate:"required"`
	Description *string           `json:"description,omitempty"`
	DueDate     time.Time         `json:"dueDate" validate:"required"`
	AssignedTo  *int64            `json:"assignedTo,omitempty"`
	Priority    entities.Priority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}

func (TaskAction) Type() ActionType     { return ActionCreateTask }
func (EventAction) Type() ActionType    { return ActionCreateEvent }
func (ReminderAction) Type() ActionType { return ActionCreateReminder }

func (a TaskAction) Subject() string     { return a.Title }
func (a EventAction) Subject() string    { return a.Title }
func (a ReminderAction) Subject() string { return a.Title }

func (TaskAction) sealed()     {}
func (EventAction) sealed()    {}
func (ReminderAction) sealed() {}

type envelope struct {
	Type ActionType `json:"type"`
	Data any        `json:"data"`
}

func (a TaskAction) MarshalJSON() ([]byte, error) {
	type data TaskAction
	return json.Marshal(envelope{Type: ActionCreateTask, Data: data(a)})
}

func (a EventAction) MarshalJSON() ([]byte, error) {
	type data EventAction
	return json.Marshal(envelope{Type: ActionCreateEvent, Data: data(a)})
}

func (a ReminderAction) MarshalJSON() ([]byte, error) {
	type data ReminderAction
	return json.Marshal(envelope{Type: ActionCreateReminder, Data: data(a)})
}

// wireData is the loose shape language models produce: times as strings
// without offsets and ids as numbers or numeric strings.
type wireData struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"dueDate"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Location    *string `json:"location"`
	AssignedTo  looseID `json:"assignedTo"`
	Priority    string  `json:"priority"`
	AllDay      bool    `json:"allDay"`
}

type looseID struct {
	value *int64
}

func (l *looseID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	raw := string(b)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			return nil
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("assignedTo %s is not an id", string(b))
	}
	l.value = &id
	return nil
}

// DecodeAction parses one `{type, data}` object. Wall-clock strings without
// an offset are read in loc.
func DecodeAction(raw json.RawMessage, loc *time.Location) (Action, error) {
	var env struct {
		Type ActionType      `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	var data wireData
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", env.Type, err)
		}
	}

	priority := entities.Priority(strings.ToLower(strings.TrimSpace(data.Priority)))

	switch env.Type {
	case ActionCreateTask:
		action := TaskAction{
			Title:       data.Title,
			Description: data.Description,
			AssignedTo:  data.AssignedTo.value,
			Priority:    priority,
		}
		if data.DueDate != "" {
			due, err := timeutil.ParseLocal(data.DueDate, loc)
			if err != nil {
				return nil, fmt.Errorf("create_task dueDate: %w", err)
			}
			action.DueDate = &due
		}
		return action, nil

	case ActionCreateEvent:
		start, err := timeutil.ParseLocal(data.StartTime, loc)
		if err != nil {
			return nil, fmt.Errorf("create_event startTime: %w", err)
		}
		action := EventAction{
			Title:       data.Title,
			Description: data.Description,
			StartTime:   start,
			Location:    data.Location,
			AssignedTo:  data.AssignedTo.value,
			AllDay:      data.AllDay,
		}
		if data.EndTime != "" {
			end, err := timeutil.ParseLocal(data.EndTime, loc)
			if err != nil {
				return nil, fmt.Errorf("create_event endTime: %w", err)
			}
			action.EndTime = &end
		}
		return action, nil

	case ActionCreateReminder:
		due, err := timeutil.ParseLocal(data.DueDate, loc)
		if err != nil {
			return nil, fmt.Errorf("create_reminder dueDate: %w", err)
		}
		return ReminderAction{
			Title:       data.Title,
			Description: data.Description,
			DueDate:     due,
			AssignedTo:  data.AssignedTo.value,
			Priority:    priority,
		}, nil

	default:
		return nil, fmt.Errorf("unknown action type %q", env.Type)
	}
}
