package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/familyhub/core/internal/adapters/repository"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

func TestMemberPIN(t *testing.T) {
	ctx := context.Background()
	svc := NewMemberService(repository.NewMemoryStore().Members(), logger.NewNop())

	withPIN, err := svc.CreateMember(ctx, ports.CreateMemberRequest{Name: "Sarah", Role: entities.MemberRoleMom, PIN: strPtr("1234")})
	if err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	if !withPIN.HasPIN() || *withPIN.PINHash == "1234" {
		t.Fatal("pin should be stored hashed")
	}
	if withPIN.NotificationPreference != entities.NotifyPush {
		t.Errorf("preference = %q, want push", withPIN.NotificationPreference)
	}

	without, err := svc.CreateMember(ctx, ports.CreateMemberRequest{Name: "Emma", Role: entities.MemberRoleChild})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		id   int64
		pin  string
		want error
	}{
		{"correct", withPIN.ID, "1234", nil},
		{"wrong", withPIN.ID, "9999", entities.ErrInvalidPIN},
		{"no pin set", without.ID, "1234", entities.ErrPINNotSet},
		{"unknown member", 42, "1234", entities.ErrMemberNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.VerifyPIN(ctx, tt.id, tt.pin)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateMemberValidation(t *testing.T) {
	svc := NewMemberService(repository.NewMemoryStore().Members(), logger.NewNop())

	tests := []struct {
		name string
		req  ports.CreateMemberRequest
	}{
		{"blank name", ports.CreateMemberRequest{Name: "  ", Role: entities.MemberRoleDad}},
		{"unknown role", ports.CreateMemberRequest{Name: "Rex", Role: "dog"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMember(context.Background(), tt.req)
			var verr *entities.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestCompleteTaskTwiceLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewTaskService(store.Tasks(), logger.NewNop(), fixedClock())

	task, err := svc.CreateTask(ctx, ports.CreateTaskRequest{Title: "dishes"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Priority != entities.PriorityMedium {
		t.Errorf("priority = %q", task.Priority)
	}

	if _, err := svc.CompleteTask(ctx, task.ID, int64Ptr(1)); err != nil {
		t.Fatal(err)
	}
	got, err := svc.CompleteTask(ctx, task.ID, int64Ptr(2))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Completed || *got.CompletedBy != 2 || got.CompletedAt == nil {
		t.Errorf("task = %+v", got)
	}

	if _, err := svc.CompleteTask(ctx, 99, nil); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestEventServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewEventService(repository.NewMemoryStore().Events(), logger.NewNop(), fixedClock())
	before := testNow.Add(-1)

	if _, err := svc.CreateEvent(ctx, ports.EventInput{Title: "x", StartTime: testNow, EndTime: &before}); !errors.Is(err, entities.ErrEventEndsBeforeStart) {
		t.Errorf("err = %v, want ErrEventEndsBeforeStart", err)
	}

	event, err := svc.CreateEvent(ctx, ports.EventInput{Title: "Dentist", StartTime: testNow})
	if err != nil {
		t.Fatal(err)
	}
	if event.Visibility != entities.VisibilityShared || event.SharedWith == nil {
		t.Errorf("defaults not applied: %+v", event)
	}

	updated, err := svc.UpdateEvent(ctx, event.ID, ports.EventInput{Title: "Dentist (moved)", StartTime: testNow.Add(24 * time.Hour), Visibility: entities.VisibilityPrivate})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != event.ID || updated.Visibility != entities.VisibilityPrivate {
		t.Errorf("updated = %+v", updated)
	}

	if err := svc.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetEvent(ctx, event.ID); !errors.Is(err, entities.ErrEventNotFound) {
		t.Errorf("err = %v after delete", err)
	}
}
