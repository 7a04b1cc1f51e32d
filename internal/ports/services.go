package ports

import (
	"context"
	"errors"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
)

// ErrChatUnavailable is returned by a ChatCompleter that has no credential
var ErrChatUnavailable = errors.New("chat completion not configured")

// ChatCompleter sends one system+user prompt pair to a language model that
// answers with a JSON object.
type ChatCompleter interface {
	CompleteJSON(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Deliverer hands a notification to an outbound channel
type Deliverer interface {
	Deliver(ctx context.Context, n *entities.Notification, recipient *entities.FamilyMember) error
}

// FamilyContext is the household snapshot handed to interpreters
type FamilyContext struct {
	Members        []*entities.FamilyMember `json:"members"`
	UpcomingEvents []*entities.Event        `json:"upcomingEvents"`
	PendingTasks   []*entities.Task         `json:"pendingTasks"`
	GeneratedAt    time.Time                `json:"generatedAt"`
}

// Interpretation is what an utterance interpreter makes of an utterance
type Interpretation struct {
	Source  string
	Message string
	Actions []voice.Action
}

// MaterializeResult reports the records created from a batch of actions
type MaterializeResult struct {
	Created []entities.Record
	Failed  int
	Message string
}

// Request/Response Types

// Family member related types
type CreateMemberRequest struct {
	Name                   string                          `json:"name" validate:"required,max=100"`
	Role                   entities.MemberRole             `json:"role" validate:"required,oneof=mom dad parent child teen grandparent other"`
	Color                  string                          `json:"color" validate:"omitempty,max=32"`
	Avatar                 string                          `json:"avatar" validate:"omitempty,max=16"`
	Phone                  *string                         `json:"phone" validate:"omitempty,max=32"`
	Email                  *string                         `json:"email" validate:"omitempty,email"`
	NotificationPreference entities.NotificationPreference `json:"notificationPreference" validate:"omitempty,oneof=push email sms none"`
	PIN                    *string                         `json:"pin" validate:"omitempty,numeric,min=4,max=8"`
}

type VerifyPINRequest struct {
	PIN string `json:"pin" validate:"required"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"required,max=500"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	Priority    entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time        `json:"dueDate"`
	AssignedTo  *int64            `json:"assignedTo"`
}

type CompleteTaskRequest struct {
	CompletedBy *int64 `json:"completedBy"`
}

// Event related types
type EventInput struct {
	Title       string              `json:"title" validate:"required,max=500"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	StartTime   time.Time           `json:"startTime" validate:"required"`
	EndTime     *time.Time          `json:"endTime"`
	Location    *string             `json:"location" validate:"omitempty,max=500"`
	AssignedTo  *int64              `json:"assignedTo"`
	AllDay      bool                `json:"allDay"`
	Visibility  entities.Visibility `json:"type" validate:"omitempty,oneof=shared private busy"`
	SharedWith  []int64             `json:"sharedWith"`
}

// Deadline related types
type CreateDeadlineRequest struct {
	Title       string            `json:"title" validate:"required,max=500"`
	Description *string           `json:"description" validate:"omitempty,max=2000"`
	DueDate     time.Time         `json:"dueDate" validate:"required"`
	Priority    entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	MemberID    *int64            `json:"familyMemberId"`
}

// Voice note related types
type CreateVoiceNoteRequest struct {
	Content       string  `json:"content" validate:"required"`
	Transcription *string `json:"transcription"`
	CreatedBy     int64   `json:"createdBy" validate:"required"`
	Processed     bool    `json:"processed"`
}

// Notification related types
type CreateNotificationRequest struct {
	Type         string                  `json:"type" validate:"required,max=64"`
	Title        string                  `json:"title" validate:"required,max=200"`
	Message      string                  `json:"message" validate:"required"`
	RecipientID  int64                   `json:"recipientId" validate:"required"`
	TaskID       *int64                  `json:"taskId"`
	EventID      *int64                  `json:"eventId"`
	ScheduledFor *time.Time              `json:"scheduledFor"`
	Method       entities.DeliveryMethod `json:"deliveryMethod" validate:"omitempty,oneof=push email sms in_app"`
}

// AI related types
type VoiceCommandRequest struct {
	Message string `json:"message" validate:"required"`
}

type VoiceCommandResponse struct {
	Message string         `json:"message"`
	Actions []voice.Action `json:"actions"`
}

type SmartTaskRequest struct {
	VoiceInput    string                   `json:"voiceInput" validate:"required"`
	FamilyMembers []*entities.FamilyMember `json:"familyMembers"`
}

// DraftTask is a suggested task the caller may confirm
type DraftTask struct {
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	AssignedTo  *int64            `json:"assignedTo,omitempty"`
	Priority    entities.Priority `json:"priority"`
	DueDate     *time.Time        `json:"dueDate,omitempty"`
}

type SmartTaskResponse struct {
	Tasks          []DraftTask `json:"tasks"`
	Interpretation string      `json:"interpretation"`
}
