package entities

import (
	"errors"
	"fmt"
	"time"
)

// Common errors
var (
	ErrMemberNotFound       = errors.New("family member not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrDeadlineNotFound     = errors.New("deadline not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidPIN           = errors.New("invalid pin")
	ErrPINNotSet            = errors.New("pin not set")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrEventEndsBeforeStart = errors.New("event end time is before start time")
)

// ValidationError reports input rejected before it reaches storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Enums and types
type MemberRole string

const (
	MemberRoleMom         MemberRole = "mom"
	MemberRoleDad         MemberRole = "dad"
	MemberRoleParent      MemberRole = "parent"
	MemberRoleChild       MemberRole = "child"
	MemberRoleTeen        MemberRole = "teen"
	MemberRoleGrandparent MemberRole = "grandparent"
	MemberRoleOther       MemberRole = "other"
)

type NotificationPreference string

const (
	NotifyPush  NotificationPreference = "push"
	NotifyEmail NotificationPreference = "email"
	NotifySMS   NotificationPreference = "sms"
	NotifyNone  NotificationPreference = "none"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Visibility string

const (
	VisibilityShared  Visibility = "shared"
	VisibilityPrivate Visibility = "private"
	VisibilityBusy    Visibility = "busy"
)

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

type DeliveryMethod string

const (
	DeliveryPush  DeliveryMethod = "push"
	DeliveryEmail DeliveryMethod = "email"
	DeliverySMS   DeliveryMethod = "sms"
	DeliveryInApp DeliveryMethod = "in_app"
)

// Record is a persisted entity produced by materializing a voice action.
type Record interface {
	RecordKind() string
	RecordTitle() string
}

// FamilyMember represents a person in the household
type FamilyMember struct {
	ID                     int64                  `json:"id" db:"id"`
	Name                   string                 `json:"name" db:"name"`
	Role                   MemberRole             `json:"role" db:"role"`
	Color                  string                 `json:"color" db:"color"`
	Avatar                 string                 `json:"avatar" db:"avatar"`
	Phone                  *string                `json:"phone,omitempty" db:"phone"`
	Email                  *string                `json:"email,omitempty" db:"email"`
	NotificationPreference NotificationPreference `json:"notificationPreference" db:"notification_preference"`
	PINHash                *string                `json:"-" db:"pin_hash"`
	CreatedAt              time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time              `json:"updatedAt" db:"updated_at"`
}

// HasPIN reports whether the member protects their profile with a PIN
func (m *FamilyMember) HasPIN() bool {
	return m.PINHash != nil && *m.PINHash != ""
}

// Task represents a household to-do item
type Task struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	AssignedTo  *int64     `json:"assignedTo,omitempty" db:"assigned_to"`
	CompletedBy *int64     `json:"completedBy,omitempty" db:"completed_by"`
	CompletedAt *time.Time `json:"completedAt,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

func (t *Task) RecordKind() string  { return "task" }
func (t *Task) RecordTitle() string { return t.Title }

// Complete marks the task done. Completing an already completed task
// overwrites the completion fields.
func (t *Task) Complete(by *int64, at time.Time) {
	t.Completed = true
	t.CompletedBy = by
	t.CompletedAt = &at
}

func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return now.After(*t.DueDate) && !t.Completed
}

// Event represents a calendar entry
type Event struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	StartTime   time.Time  `json:"startTime" db:"start_time"`
	EndTime     *time.Time `json:"endTime,omitempty" db:"end_time"`
	Location    *string    `json:"location,omitempty" db:"location"`
	AssignedTo  *int64     `json:"assignedTo,omitempty" db:"assigned_to"`
	AllDay      bool       `json:"allDay" db:"all_day"`
	Visibility  Visibility `json:"type" db:"visibility"`
	SharedWith  []int64    `json:"sharedWith" db:"-"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}

func (e *Event) RecordKind() string  { return "event" }
func (e *Event) RecordTitle() string { return e.Title }

// Validate checks the time window of the event
func (e *Event) Validate() error {
	if e.StartTime.IsZero() {
		return NewValidationError("startTime", "is required")
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return ErrEventEndsBeforeStart
	}
	return nil
}

// Deadline represents a dated reminder
type Deadline struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	DueDate     time.Time `json:"dueDate" db:"due_date"`
	Priority    Priority  `json:"priority" db:"priority"`
	Completed   bool      `json:"completed" db:"completed"`
	MemberID    *int64    `json:"familyMemberId,omitempty" db:"member_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

func (d *Deadline) RecordKind() string  { return "reminder" }
func (d *Deadline) RecordTitle() string { return d.Title }

// VoiceNote is an append-only captured utterance
type VoiceNote struct {
	ID            int64     `json:"id" db:"id"`
	Content       string    `json:"content" db:"content"`
	Transcription *string   `json:"transcription,omitempty" db:"transcription"`
	CreatedBy     int64     `json:"createdBy" db:"created_by"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	Processed     bool      `json:"processed" db:"processed"`
}

// Notification is a message queued for a family member
type Notification struct {
	ID           int64              `json:"id" db:"id"`
	Type         string             `json:"type" db:"type"`
	Title        string             `json:"title" db:"title"`
	Message      string             `json:"message" db:"message"`
	RecipientID  int64              `json:"recipientId" db:"recipient_id"`
	TaskID       *int64             `json:"taskId,omitempty" db:"task_id"`
	EventID      *int64             `json:"eventId,omitempty" db:"event_id"`
	ScheduledFor time.Time          `json:"scheduledFor" db:"scheduled_for"`
	SentAt       *time.Time         `json:"sentAt,omitempty" db:"sent_at"`
	Method       DeliveryMethod     `json:"deliveryMethod" db:"delivery_method"`
	Status       NotificationStatus `json:"status" db:"status"`
	CreatedAt    time.Time          `json:"createdAt" db:"created_at"`
}

// MarkSent moves a pending notification to sent
func (n *Notification) MarkSent(at time.Time) error {
	if n.Status != NotificationPending {
		return ErrInvalidStatus
	}
	n.Status = NotificationSent
	n.SentAt = &at
	return nil
}

// MarkFailed moves a pending notification to failed
func (n *Notification) MarkFailed() error {
	if n.Status != NotificationPending {
		return ErrInvalidStatus
	}
	n.Status = NotificationFailed
	return nil
}

// IsDue reports whether a pending notification should go out at now
func (n *Notification) IsDue(now time.Time) bool {
	return n.Status == NotificationPending && !n.ScheduledFor.After(now)
}

// Utility methods
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleMom, MemberRoleDad, MemberRoleParent, MemberRoleChild, MemberRoleTeen, MemberRoleGrandparent, MemberRoleOther:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityShared, VisibilityPrivate, VisibilityBusy:
		return true
	default:
		return false
	}
}

func (m DeliveryMethod) IsValid() bool {
	switch m {
	case DeliveryPush, DeliveryEmail, DeliverySMS, DeliveryInApp:
		return true
	default:
		return false
	}
}
