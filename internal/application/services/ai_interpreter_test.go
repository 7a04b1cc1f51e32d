package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

func newTestAI(chat ports.ChatCompleter) *AIInterpreter {
	return NewAIInterpreter(chat, time.UTC, nil, logger.NewNop(), fixedClock())
}

func testFamilyContext() *ports.FamilyContext {
	due := testNow.Add(6 * time.Hour)
	return &ports.FamilyContext{
		Members: []*entities.FamilyMember{
			{ID: 1, Name: "Sarah", Role: entities.MemberRoleMom},
			{ID: 2, Name: "Emma", Role: entities.MemberRoleChild},
		},
		UpcomingEvents: []*entities.Event{
			{ID: 1, Title: "Piano lesson", StartTime: testNow.Add(24 * time.Hour)},
		},
		PendingTasks: []*entities.Task{
			{ID: 1, Title: "Feed the cat", DueDate: &due, AssignedTo: int64Ptr(2)},
		},
	}
}

func TestAIInterpreterUnavailableIsIdempotent(t *testing.T) {
	for _, chat := range []ports.ChatCompleter{nil, &fakeChat{err: ports.ErrChatUnavailable}} {
		ai := newTestAI(chat)

		for i := 0; i < 3; i++ {
			got, err := ai.Interpret(context.Background(), "what's for dinner", testFamilyContext())
			if err != nil {
				t.Fatalf("Interpret: %v", err)
			}
			if got.Message != AIUnavailableMessage {
				t.Errorf("message = %q", got.Message)
			}
			if len(got.Actions) != 0 {
				t.Errorf("actions = %v, want none", got.Actions)
			}
		}
	}
}

func TestAIInterpreterDegradesOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "network error", err: errors.New("connection reset")},
		{name: "malformed json", reply: `{"message": "ok", "actions": [`},
		{name: "not an object", reply: `"just text"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{reply: tt.reply, err: tt.err}
			ai := newTestAI(chat)

			got, err := ai.Interpret(context.Background(), "plan something", testFamilyContext())
			if err != nil {
				t.Fatalf("Interpret: %v", err)
			}
			if got.Message != AIFailureMessage || len(got.Actions) != 0 {
				t.Errorf("got %+v, want apology with no actions", got)
			}
			if chat.callCount() != 1 {
				t.Errorf("chat called %d times, want exactly 1", chat.callCount())
			}
		})
	}
}

func TestAIInterpreterParsesActions(t *testing.T) {
	chat := &fakeChat{reply: `{
		"message": "Added soccer practice for Emma.",
		"actions": [
			{"type": "create_event", "data": {"title": "Soccer practice", "startTime": "2024-05-16T16:00", "assignedTo": 2}},
			{"type": "create_task", "data": {"title": "Pack cleats", "assignedTo": "2", "priority": "high"}},
			{"type": "create_reminder", "data": {"title": "Registration fee", "dueDate": "2024-05-15"}},
			{"type": "send_email", "data": {"title": "nope"}},
			{"type": "create_event", "data": {"title": "No start"}}
		]
	}`}
	ai := newTestAI(chat)

	got, err := ai.Interpret(context.Background(), "Hey Lisa, add soccer practice to calendar Thursday at 4pm", testFamilyContext())
	if err != nil {
		t.Fatal(err)
	}

	if got.Message != "Added soccer practice for Emma." {
		t.Errorf("message = %q", got.Message)
	}
	if len(got.Actions) != 3 {
		t.Fatalf("got %d actions, want 3 (malformed ones dropped)", len(got.Actions))
	}

	event, ok := got.Actions[0].(voice.EventAction)
	if !ok {
		t.Fatalf("action[0] is %T", got.Actions[0])
	}
	if want := time.Date(2024, 5, 16, 16, 0, 0, 0, time.UTC); !event.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", event.StartTime, want)
	}
	if event.AssignedTo == nil || *event.AssignedTo != 2 {
		t.Errorf("assignedTo = %v", event.AssignedTo)
	}

	task := got.Actions[1].(voice.TaskAction)
	if task.Priority != entities.PriorityHigh || task.AssignedTo == nil || *task.AssignedTo != 2 {
		t.Errorf("task = %+v", task)
	}

	if _, ok := got.Actions[2].(voice.ReminderAction); !ok {
		t.Errorf("action[2] is %T, want ReminderAction", got.Actions[2])
	}
}

func TestAIInterpreterPrompt(t *testing.T) {
	chat := &fakeChat{reply: `{"message": "nothing to do", "actions": []}`}
	ai := newTestAI(chat)

	if _, err := ai.Interpret(context.Background(), "hello there", testFamilyContext()); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"id 1: Sarah (mom)",
		"id 2: Emma (child)",
		"Piano lesson at 2024-05-11T10:00",
		"Feed the cat, due 2024-05-10T16:00, assigned to 2",
		"Current local time: 2024-05-10T10:00",
		"create_reminder",
	} {
		if !strings.Contains(chat.system, want) {
			t.Errorf("system prompt missing %q:\n%s", want, chat.system)
		}
	}
	if chat.user != "hello there" {
		t.Errorf("user message = %q", chat.user)
	}
}

func TestSuggestTasks(t *testing.T) {
	chat := &fakeChat{reply: `{
		"tasks": [
			{"title": "Buy birthday cake", "assignedTo": 1, "priority": "high", "dueDate": "2024-05-11T12:00"},
			{"title": "Wrap presents"},
			{"title": ""}
		],
		"interpretation": "Prepare for Emma's birthday"
	}`}
	ai := newTestAI(chat)

	got, err := ai.SuggestTasks(context.Background(), "get ready for Emma's birthday", testFamilyContext().Members)
	if err != nil {
		t.Fatalf("SuggestTasks: %v", err)
	}

	if got.Interpretation != "Prepare for Emma's birthday" {
		t.Errorf("interpretation = %q", got.Interpretation)
	}
	if len(got.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(got.Tasks))
	}
	if got.Tasks[0].Priority != entities.PriorityHigh || got.Tasks[0].DueDate == nil {
		t.Errorf("task[0] = %+v", got.Tasks[0])
	}
	if got.Tasks[1].Priority != entities.PriorityMedium {
		t.Errorf("task[1] priority = %q, want medium", got.Tasks[1].Priority)
	}
}
