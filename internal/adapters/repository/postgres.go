package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/ports"
)

// PostgresStore implements ports.Store on top of sqlx
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a store backed by db
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Members() ports.FamilyMemberRepository       { return &memberRepository{db: s.db} }
func (s *PostgresStore) Tasks() ports.TaskRepository                 { return &taskRepository{db: s.db} }
func (s *PostgresStore) Events() ports.EventRepository               { return &eventRepository{db: s.db} }
func (s *PostgresStore) Deadlines() ports.DeadlineRepository         { return &deadlineRepository{db: s.db} }
func (s *PostgresStore) VoiceNotes() ports.VoiceNoteRepository       { return &voiceNoteRepository{db: s.db} }
func (s *PostgresStore) Notifications() ports.NotificationRepository { return &notificationRepository{db: s.db} }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// where accumulates positional conditions for list queries
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(w.args))
}

type memberRepository struct {
	db *sqlx.DB
}

const memberColumns = `id, name, role, color, avatar, phone, email, notification_preference, pin_hash, created_at, updated_at`

func (r *memberRepository) Create(ctx context.Context, member *entities.FamilyMember) error {
	query := `
		INSERT INTO family_members (name, role, color, avatar, phone, email, notification_preference, pin_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		member.Name, member.Role, member.Color, member.Avatar,
		member.Phone, member.Email, member.NotificationPreference, member.PINHash,
	).Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create family member: %w", err)
	}
	return nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*entities.FamilyMember, error) {
	var member entities.FamilyMember
	err := r.db.GetContext(ctx, &member, `SELECT `+memberColumns+` FROM family_members WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get family member: %w", err)
	}
	return &member, nil
}

func (r *memberRepository) List(ctx context.Context) ([]*entities.FamilyMember, error) {
	var members []*entities.FamilyMember
	if err := r.db.SelectContext(ctx, &members, `SELECT `+memberColumns+` FROM family_members ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	return members, nil
}

func (r *memberRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM family_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return expectRow(result, entities.ErrMemberNotFound)
}

type taskRepository struct {
	db *sqlx.DB
}

const taskColumns = `id, title, description, completed, priority, due_date, assigned_to, completed_by, completed_at, created_at`

func (r *taskRepository) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (title, description, completed, priority, due_date, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Completed, task.Priority, task.DueDate, task.AssignedTo,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	var task entities.Task
	err := r.db.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, completed = $4, priority = $5, due_date = $6,
			assigned_to = $7, completed_by = $8, completed_at = $9
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.Completed, task.Priority, task.DueDate,
		task.AssignedTo, task.CompletedBy, task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(result, entities.ErrTaskNotFound)
}

func (r *taskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var w where
	if filter.Pending {
		w.addRaw("completed = FALSE")
	}
	if filter.AssignedTo != nil {
		w.add("assigned_to = $%d", *filter.AssignedTo)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks` + w.String() + ` ORDER BY id` + w.limit(filter.Limit)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, w.args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

type eventRepository struct {
	db *sqlx.DB
}

// eventRow carries the shared_with array the entity keeps out of db mapping
type eventRow struct {
	entities.Event
	Shared pq.Int64Array `db:"shared_with"`
}

func (row *eventRow) toEntity() *entities.Event {
	event := row.Event
	event.SharedWith = []int64(row.Shared)
	if event.SharedWith == nil {
		event.SharedWith = []int64{}
	}
	return &event
}

const eventColumns = `id, title, description, start_time, end_time, location, assigned_to, all_day, visibility, shared_with, created_at`

func (r *eventRepository) Create(ctx context.Context, event *entities.Event) error {
	query := `
		INSERT INTO events (title, description, start_time, end_time, location, assigned_to, all_day, visibility, shared_with)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Title, event.Description, event.StartTime, event.EndTime, event.Location,
		event.AssignedTo, event.AllDay, event.Visibility, pq.Array(event.SharedWith),
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*entities.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return row.toEntity(), nil
}

func (r *eventRepository) Update(ctx context.Context, event *entities.Event) error {
	query := `
		UPDATE events
		SET title = $2, description = $3, start_time = $4, end_time = $5, location = $6,
			assigned_to = $7, all_day = $8, visibility = $9, shared_with = $10
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		event.ID, event.Title, event.Description, event.StartTime, event.EndTime, event.Location,
		event.AssignedTo, event.AllDay, event.Visibility, pq.Array(event.SharedWith),
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return expectRow(result, entities.ErrEventNotFound)
}

func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectRow(result, entities.ErrEventNotFound)
}

func (r *eventRepository) List(ctx context.Context, filter ports.EventFilter) ([]*entities.Event, error) {
	var w where
	if filter.From != nil {
		w.add("start_time >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("start_time <= $%d", *filter.To)
	}
	if filter.AssignedTo != nil {
		w.add("assigned_to = $%d", *filter.AssignedTo)
	}
	query := `SELECT ` + eventColumns + ` FROM events` + w.String() + ` ORDER BY start_time, id` + w.limit(filter.Limit)

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]*entities.Event, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toEntity())
	}
	return events, nil
}

type deadlineRepository struct {
	db *sqlx.DB
}

const deadlineColumns = `id, title, description, due_date, priority, completed, member_id, created_at`

func (r *deadlineRepository) Create(ctx context.Context, deadline *entities.Deadline) error {
	query := `
		INSERT INTO deadlines (title, description, due_date, priority, completed, member_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		deadline.Title, deadline.Description, deadline.DueDate, deadline.Priority, deadline.Completed, deadline.MemberID,
	).Scan(&deadline.ID, &deadline.CreatedAt)
	if err != nil {
		return fmt.Errorf("create deadline: %w", err)
	}
	return nil
}

func (r *deadlineRepository) GetByID(ctx context.Context, id int64) (*entities.Deadline, error) {
	var deadline entities.Deadline
	err := r.db.GetContext(ctx, &deadline, `SELECT `+deadlineColumns+` FROM deadlines WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("get deadline: %w", err)
	}
	return &deadline, nil
}

func (r *deadlineRepository) Update(ctx context.Context, deadline *entities.Deadline) error {
	query := `
		UPDATE deadlines
		SET title = $2, description = $3, due_date = $4, priority = $5, completed = $6, member_id = $7
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		deadline.ID, deadline.Title, deadline.Description, deadline.DueDate,
		deadline.Priority, deadline.Completed, deadline.MemberID,
	)
	if err != nil {
		return fmt.Errorf("update deadline: %w", err)
	}
	return expectRow(result, entities.ErrDeadlineNotFound)
}

func (r *deadlineRepository) List(ctx context.Context, filter ports.DeadlineFilter) ([]*entities.Deadline, error) {
	var w where
	if filter.Pending {
		w.addRaw("completed = FALSE")
	}
	if filter.MemberID != nil {
		w.add("member_id = $%d", *filter.MemberID)
	}
	query := `SELECT ` + deadlineColumns + ` FROM deadlines` + w.String() + ` ORDER BY due_date, id` + w.limit(filter.Limit)

	var deadlines []*entities.Deadline
	if err := r.db.SelectContext(ctx, &deadlines, query, w.args...); err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	return deadlines, nil
}

type voiceNoteRepository struct {
	db *sqlx.DB
}

func (r *voiceNoteRepository) Create(ctx context.Context, note *entities.VoiceNote) error {
	query := `
		INSERT INTO voice_notes (content, transcription, created_by, processed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		note.Content, note.Transcription, note.CreatedBy, note.Processed,
	).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return fmt.Errorf("create voice note: %w", err)
	}
	return nil
}

func (r *voiceNoteRepository) List(ctx context.Context, filter ports.VoiceNoteFilter) ([]*entities.VoiceNote, error) {
	var w where
	if filter.CreatedBy != nil {
		w.add("created_by = $%d", *filter.CreatedBy)
	}
	query := `SELECT id, content, transcription, created_by, created_at, processed FROM voice_notes` +
		w.String() + ` ORDER BY id DESC` + w.limit(filter.Limit)

	var notes []*entities.VoiceNote
	if err := r.db.SelectContext(ctx, &notes, query, w.args...); err != nil {
		return nil, fmt.Errorf("list voice notes: %w", err)
	}
	return notes, nil
}

type notificationRepository struct {
	db *sqlx.DB
}

const notificationColumns = `id, type, title, message, recipient_id, task_id, event_id, scheduled_for, sent_at, delivery_method, status, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	query := `
		INSERT INTO notifications (type, title, message, recipient_id, task_id, event_id, scheduled_for, delivery_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		n.Type, n.Title, n.Message, n.RecipientID, n.TaskID, n.EventID, n.ScheduledFor, n.Method, n.Status,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*entities.Notification, error) {
	var n entities.Notification
	err := r.db.GetContext(ctx, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *entities.Notification) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = $2, sent_at = $3 WHERE id = $1`,
		n.ID, n.Status, n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return expectRow(result, entities.ErrNotificationNotFound)
}

func (r *notificationRepository) List(ctx context.Context, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	var w where
	if filter.RecipientID != nil {
		w.add("recipient_id = $%d", *filter.RecipientID)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.DueBefore != nil {
		w.add("scheduled_for <= $%d", *filter.DueBefore)
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() + ` ORDER BY scheduled_for, id` + w.limit(filter.Limit)

	var items []*entities.Notification
	if err := r.db.SelectContext(ctx, &items, query, w.args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
