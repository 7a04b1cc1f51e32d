package entities

import (
	"errors"
	"testing"
	"time"
)

func TestNotificationTransitions(t *testing.T) {
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		from     NotificationStatus
		apply    func(n *Notification) error
		want     NotificationStatus
		wantErr  error
		wantSent bool
	}{
		{"pending to sent", NotificationPending, func(n *Notification) error { return n.MarkSent(at) }, NotificationSent, nil, true},
		{"pending to failed", NotificationPending, func(n *Notification) error { return n.MarkFailed() }, NotificationFailed, nil, false},
		{"sent stays sent", NotificationSent, func(n *Notification) error { return n.MarkSent(at) }, NotificationSent, ErrInvalidStatus, false},
		{"failed cannot be sent", NotificationFailed, func(n *Notification) error { return n.MarkSent(at) }, NotificationFailed, ErrInvalidStatus, false},
		{"sent cannot fail", NotificationSent, func(n *Notification) error { return n.MarkFailed() }, NotificationSent, ErrInvalidStatus, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Notification{Status: tt.from}
			err := tt.apply(n)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if n.Status != tt.want {
				t.Errorf("status = %q, want %q", n.Status, tt.want)
			}
			if (n.SentAt != nil) != tt.wantSent {
				t.Errorf("sentAt = %v", n.SentAt)
			}
		})
	}
}

func TestNotificationIsDue(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		n    Notification
		want bool
	}{
		{"past", Notification{Status: NotificationPending, ScheduledFor: now.Add(-time.Minute)}, true},
		{"exactly now", Notification{Status: NotificationPending, ScheduledFor: now}, true},
		{"future", Notification{Status: NotificationPending, ScheduledFor: now.Add(time.Minute)}, false},
		{"already sent", Notification{Status: NotificationSent, ScheduledFor: now.Add(-time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.IsDue(now); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventValidate(t *testing.T) {
	start := time.Date(2024, 5, 11, 15, 0, 0, 0, time.UTC)
	before := start.Add(-time.Minute)
	after := start.Add(time.Hour)

	var validation *ValidationError
	if err := (&Event{Title: "x"}).Validate(); !errors.As(err, &validation) || validation.Field != "startTime" {
		t.Errorf("missing start: %v", err)
	}
	if err := (&Event{StartTime: start, EndTime: &before}).Validate(); !errors.Is(err, ErrEventEndsBeforeStart) {
		t.Errorf("end before start: %v", err)
	}
	if err := (&Event{StartTime: start, EndTime: &start}).Validate(); err != nil {
		t.Errorf("zero length event: %v", err)
	}
	if err := (&Event{StartTime: start, EndTime: &after}).Validate(); err != nil {
		t.Errorf("valid event: %v", err)
	}
}

func TestTaskCompleteOverwrites(t *testing.T) {
	first, second := int64(1), int64(2)
	t1 := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	task := &Task{Title: "dishes"}
	task.Complete(&first, t1)
	task.Complete(&second, t2)

	if !task.Completed || *task.CompletedBy != 2 || !task.CompletedAt.Equal(t2) {
		t.Errorf("task = %+v", task)
	}
	if task.IsOverdue(t2.Add(time.Hour)) {
		t.Error("completed task reported overdue")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	if got := NewValidationError("title", "is required").Error(); got != "title: is required" {
		t.Errorf("got %q", got)
	}
	if got := (&ValidationError{Message: "nothing to do"}).Error(); got != "nothing to do" {
		t.Errorf("got %q", got)
	}
}
