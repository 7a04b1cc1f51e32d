package ports

import (
	"context"
	"errors"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
)

// FamilyMemberRepository defines the interface for family member data operations
type FamilyMemberRepository interface {
	Create(ctx context.Context, member *entities.FamilyMember) error
	GetByID(ctx context.Context, id int64) (*entities.FamilyMember, error)
	List(ctx context.Context) ([]*entities.FamilyMember, error)
	Delete(ctx context.Context, id int64) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
}

// EventRepository defines the interface for calendar event data operations
type EventRepository interface {
	Create(ctx context.Context, event *entities.Event) error
	GetByID(ctx context.Context, id int64) (*entities.Event, error)
	Update(ctx context.Context, event *entities.Event) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter EventFilter) ([]*entities.Event, error)
}

// DeadlineRepository defines the interface for deadline data operations
type DeadlineRepository interface {
	Create(ctx context.Context, deadline *entities.Deadline) error
	GetByID(ctx context.Context, id int64) (*entities.Deadline, error)
	Update(ctx context.Context, deadline *entities.Deadline) error
	List(ctx context.Context, filter DeadlineFilter) ([]*entities.Deadline, error)
}

// VoiceNoteRepository is append-only
type VoiceNoteRepository interface {
	Create(ctx context.Context, note *entities.VoiceNote) error
	List(ctx context.Context, filter VoiceNoteFilter) ([]*entities.VoiceNote, error)
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	GetByID(ctx context.Context, id int64) (*entities.Notification, error)
	Update(ctx context.Context, n *entities.Notification) error
	List(ctx context.Context, filter NotificationFilter) ([]*entities.Notification, error)
}

// Store groups the repositories of one storage backend
type Store interface {
	Members() FamilyMemberRepository
	Tasks() TaskRepository
	Events() EventRepository
	Deadlines() DeadlineRepository
	VoiceNotes() VoiceNoteRepository
	Notifications() NotificationRepository
	Ping(ctx context.Context) error
}

// ErrCacheMiss is returned by CacheRepository.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// Filter types for repository queries
type TaskFilter struct {
	AssignedTo *int64
	Pending    bool
	Limit      int
}

type EventFilter struct {
	From       *time.Time
	To         *time.Time
	AssignedTo *int64
	Limit      int
}

type DeadlineFilter struct {
	MemberID *int64
	Pending  bool
	Limit    int
}

type VoiceNoteFilter struct {
	CreatedBy *int64
	Limit     int
}

type NotificationFilter struct {
	RecipientID *int64
	Status      *entities.NotificationStatus
	DueBefore   *time.Time
	Limit       int
}
