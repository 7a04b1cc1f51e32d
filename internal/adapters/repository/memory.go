package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/ports"
)

// arena is an id -> record map with monotonically allocated ids. Records
// are copied on the way in and out so callers never share storage.
type arena[T any] struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]*T
	clone  func(*T) *T
}

func newArena[T any](clone func(*T) *T) *arena[T] {
	return &arena[T]{items: make(map[int64]*T), clone: clone}
}

func (a *arena[T]) insert(item *T, setID func(*T, int64)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextID++
	setID(item, a.nextID)
	a.items[a.nextID] = a.clone(item)
}

func (a *arena[T]) get(id int64) (*T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	item, ok := a.items[id]
	if !ok {
		return nil, false
	}
	return a.clone(item), true
}

// replace overwrites an existing record; concurrent writers race and the
// last one wins.
func (a *arena[T]) replace(id int64, item *T) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.items[id]; !ok {
		return false
	}
	a.items[id] = a.clone(item)
	return true
}

func (a *arena[T]) remove(id int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.items[id]; !ok {
		return false
	}
	delete(a.items, id)
	return true
}

// filter returns copies of matching records in id order
func (a *arena[T]) filter(keep func(*T) bool) []*T {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]int64, 0, len(a.items))
	for id := range a.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		item := a.items[id]
		if keep == nil || keep(item) {
			out = append(out, a.clone(item))
		}
	}
	return out
}

func limit[T any](items []*T, n int) []*T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func shallow[T any](v *T) *T {
	c := *v
	return &c
}

// MemoryStore keeps every record in process memory. Member references are
// loose ids; nothing cascades on delete.
type MemoryStore struct {
	members       *memoryMemberRepository
	tasks         *memoryTaskRepository
	events        *memoryEventRepository
	deadlines     *memoryDeadlineRepository
	voiceNotes    *memoryVoiceNoteRepository
	notifications *memoryNotificationRepository
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	now := func() time.Time { return time.Now().UTC() }
	return &MemoryStore{
		members:       &memoryMemberRepository{arena: newArena(shallow[entities.FamilyMember]), now: now},
		tasks:         &memoryTaskRepository{arena: newArena(shallow[entities.Task]), now: now},
		events:        &memoryEventRepository{arena: newArena(cloneEvent), now: now},
		deadlines:     &memoryDeadlineRepository{arena: newArena(shallow[entities.Deadline]), now: now},
		voiceNotes:    &memoryVoiceNoteRepository{arena: newArena(shallow[entities.VoiceNote]), now: now},
		notifications: &memoryNotificationRepository{arena: newArena(shallow[entities.Notification]), now: now},
	}
}

func (s *MemoryStore) Members() ports.FamilyMemberRepository       { return s.members }
func (s *MemoryStore) Tasks() ports.TaskRepository                 { return s.tasks }
func (s *MemoryStore) Events() ports.EventRepository               { return s.events }
func (s *MemoryStore) Deadlines() ports.DeadlineRepository         { return s.deadlines }
func (s *MemoryStore) VoiceNotes() ports.VoiceNoteRepository       { return s.voiceNotes }
func (s *MemoryStore) Notifications() ports.NotificationRepository { return s.notifications }
func (s *MemoryStore) Ping(ctx context.Context) error              { return ctx.Err() }

func cloneEvent(e *entities.Event) *entities.Event {
	c := *e
	if e.SharedWith != nil {
		c.SharedWith = append([]int64(nil), e.SharedWith...)
	}
	return &c
}

type memoryMemberRepository struct {
	arena *arena[entities.FamilyMember]
	now   func() time.Time
}

func (r *memoryMemberRepository) Create(ctx context.Context, member *entities.FamilyMember) error {
	if member.CreatedAt.IsZero() {
		member.CreatedAt = r.now()
	}
	member.UpdatedAt = member.CreatedAt
	r.arena.insert(member, func(m *entities.FamilyMember, id int64) { m.ID = id })
	return nil
}

func (r *memoryMemberRepository) GetByID(ctx context.Context, id int64) (*entities.FamilyMember, error) {
	member, ok := r.arena.get(id)
	if !ok {
		return nil, entities.ErrMemberNotFound
	}
	return member, nil
}

func (r *memoryMemberRepository) List(ctx context.Context) ([]*entities.FamilyMember, error) {
	return r.arena.filter(nil), nil
}

func (r *memoryMemberRepository) Delete(ctx context.Context, id int64) error {
	if !r.arena.remove(id) {
		return entities.ErrMemberNotFound
	}
	return nil
}

type memoryTaskRepository struct {
	arena *arena[entities.Task]
	now   func() time.Time
}

func (r *memoryTaskRepository) Create(ctx context.Context, task *entities.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.now()
	}
	r.arena.insert(task, func(t *entities.Task, id int64) { t.ID = id })
	return nil
}

func (r *memoryTaskRepository) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	task, ok := r.arena.get(id)
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	return task, nil
}

func (r *memoryTaskRepository) Update(ctx context.Context, task *entities.Task) error {
	if !r.arena.replace(task.ID, task) {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (r *memoryTaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks := r.arena.filter(func(t *entities.Task) bool {
		if filter.Pending && t.Completed {
			return false
		}
		if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
			return false
		}
		return true
	})
	return limit(tasks, filter.Limit), nil
}

type memoryEventRepository struct {
	arena *arena[entities.Event]
	now   func() time.Time
}

func (r *memoryEventRepository) Create(ctx context.Context, event *entities.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now()
	}
	r.arena.insert(event, func(e *entities.Event, id int64) { e.ID = id })
	return nil
}

func (r *memoryEventRepository) GetByID(ctx context.Context, id int64) (*entities.Event, error) {
	event, ok := r.arena.get(id)
	if !ok {
		return nil, entities.ErrEventNotFound
	}
	return event, nil
}

func (r *memoryEventRepository) Update(ctx context.Context, event *entities.Event) error {
	if !r.arena.replace(event.ID, event) {
		return entities.ErrEventNotFound
	}
	return nil
}

func (r *memoryEventRepository) Delete(ctx context.Context, id int64) error {
	if !r.arena.remove(id) {
		return entities.ErrEventNotFound
	}
	return nil
}

// List returns events ordered by start time
func (r *memoryEventRepository) List(ctx context.Context, filter ports.EventFilter) ([]*entities.Event, error) {
	events := r.arena.filter(func(e *entities.Event) bool {
		if filter.From != nil && e.StartTime.Before(*filter.From) {
			return false
		}
		if filter.To != nil && e.StartTime.After(*filter.To) {
			return false
		}
		if filter.AssignedTo != nil && (e.AssignedTo == nil || *e.AssignedTo != *filter.AssignedTo) {
			return false
		}
		return true
	})
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return limit(events, filter.Limit), nil
}

type memoryDeadlineRepository struct {
	arena *arena[entities.Deadline]
	now   func() time.Time
}

func (r *memoryDeadlineRepository) Create(ctx context.Context, deadline *entities.Deadline) error {
	if deadline.CreatedAt.IsZero() {
		deadline.CreatedAt = r.now()
	}
	r.arena.insert(deadline, func(d *entities.Deadline, id int64) { d.ID = id })
	return nil
}

func (r *memoryDeadlineRepository) GetByID(ctx context.Context, id int64) (*entities.Deadline, error) {
	deadline, ok := r.arena.get(id)
	if !ok {
		return nil, entities.ErrDeadlineNotFound
	}
	return deadline, nil
}

func (r *memoryDeadlineRepository) Update(ctx context.Context, deadline *entities.Deadline) error {
	if !r.arena.replace(deadline.ID, deadline) {
		return entities.ErrDeadlineNotFound
	}
	return nil
}

func (r *memoryDeadlineRepository) List(ctx context.Context, filter ports.DeadlineFilter) ([]*entities.Deadline, error) {
	deadlines := r.arena.filter(func(d *entities.Deadline) bool {
		if filter.Pending && d.Completed {
			return false
		}
		if filter.MemberID != nil && (d.MemberID == nil || *d.MemberID != *filter.MemberID) {
			return false
		}
		return true
	})
	sort.SliceStable(deadlines, func(i, j int) bool {
		return deadlines[i].DueDate.Before(deadlines[j].DueDate)
	})
	return limit(deadlines, filter.Limit), nil
}

type memoryVoiceNoteRepository struct {
	arena *arena[entities.VoiceNote]
	now   func() time.Time
}

func (r *memoryVoiceNoteRepository) Create(ctx context.Context, note *entities.VoiceNote) error {
	if note.CreatedAt.IsZero() {
		note.CreatedAt = r.now()
	}
	r.arena.insert(note, func(n *entities.VoiceNote, id int64) { n.ID = id })
	return nil
}

// List returns notes newest first
func (r *memoryVoiceNoteRepository) List(ctx context.Context, filter ports.VoiceNoteFilter) ([]*entities.VoiceNote, error) {
	notes := r.arena.filter(func(n *entities.VoiceNote) bool {
		return filter.CreatedBy == nil || n.CreatedBy == *filter.CreatedBy
	})
	for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
		notes[i], notes[j] = notes[j], notes[i]
	}
	return limit(notes, filter.Limit), nil
}

type memoryNotificationRepository struct {
	arena *arena[entities.Notification]
	now   func() time.Time
}

func (r *memoryNotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}
	r.arena.insert(n, func(v *entities.Notification, id int64) { v.ID = id })
	return nil
}

func (r *memoryNotificationRepository) GetByID(ctx context.Context, id int64) (*entities.Notification, error) {
	n, ok := r.arena.get(id)
	if !ok {
		return nil, entities.ErrNotificationNotFound
	}
	return n, nil
}

func (r *memoryNotificationRepository) Update(ctx context.Context, n *entities.Notification) error {
	if !r.arena.replace(n.ID, n) {
		return entities.ErrNotificationNotFound
	}
	return nil
}

// List returns notifications ordered by scheduled time
func (r *memoryNotificationRepository) List(ctx context.Context, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	items := r.arena.filter(func(n *entities.Notification) bool {
		if filter.RecipientID != nil && n.RecipientID != *filter.RecipientID {
			return false
		}
		if filter.Status != nil && n.Status != *filter.Status {
			return false
		}
		if filter.DueBefore != nil && n.ScheduledFor.After(*filter.DueBefore) {
			return false
		}
		return true
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ScheduledFor.Before(items[j].ScheduledFor)
	})
	return limit(items, filter.Limit), nil
}
