package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/familyhub/core/internal/adapters/repository"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

type voiceEnv struct {
	store   *repository.MemoryStore
	chat    *fakeChat
	service *VoiceService
}

func newVoiceEnv(t *testing.T, chat *fakeChat) *voiceEnv {
	t.Helper()

	store := seededStore("Sarah", "Emma")
	log := logger.NewNop()
	clock := fixedClock()

	extractor := voice.NewExtractor(voice.ExtractorConfig{DefaultAssigneeID: 1, DefaultHour: 9, EventDuration: time.Hour})

	var completer ports.ChatCompleter
	if chat != nil {
		completer = chat
	}
	ai := NewAIInterpreter(completer, time.UTC, nil, log, clock)

	service := NewVoiceService(VoiceServiceDeps{
		Contexts:     NewFamilyContextProvider(store, nil, 0, 10, log, clock),
		Interpreter:  NewFallbackChain(log, NewRuleInterpreter(extractor, time.UTC, clock), ai),
		Materializer: NewMaterializer(store, MaterializerConfig{DefaultAssigneeID: 1, EventDuration: time.Hour}, nil, log, clock),
		Suggester:    ai,
		Extractor:    extractor,
		Location:     time.UTC,
		Logger:       log,
		Clock:        clock,
	})

	return &voiceEnv{store: store, chat: chat, service: service}
}

func TestProcessCommandRules(t *testing.T) {
	chat := &fakeChat{reply: `{"message":"should not be used","actions":[]}`}
	env := newVoiceEnv(t, chat)

	resp, err := env.service.ProcessCommand(context.Background(), "add buy milk to my task list")
	if err != nil {
		t.Fatalf("ProcessCommand: %v", err)
	}

	if resp.Message != `Created task "buy milk"` {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(resp.Actions))
	}
	if chat.callCount() != 0 {
		t.Error("AI must not be called when rules produce an action")
	}

	tasks, _ := env.store.Tasks().List(context.Background(), ports.TaskFilter{})
	if len(tasks) != 1 || tasks[0].Title != "buy milk" || tasks[0].DueDate != nil {
		t.Fatalf("tasks = %+v", tasks)
	}
	if *tasks[0].AssignedTo != 1 {
		t.Errorf("assignedTo = %d, want default 1", *tasks[0].AssignedTo)
	}
}

func TestProcessCommandEventAndTask(t *testing.T) {
	env := newVoiceEnv(t, nil)

	resp, err := env.service.ProcessCommand(context.Background(), "schedule a meeting and add it to my task list at 3pm")
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Actions) != 2 {
		t.Fatalf("actions = %d, want event and task", len(resp.Actions))
	}
	if resp.Message != "Created 2 items" {
		t.Errorf("message = %q", resp.Message)
	}

	events, _ := env.store.Events().List(context.Background(), ports.EventFilter{})
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}
	if want := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC); !events[0].StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", events[0].StartTime, want)
	}
}

func TestProcessCommandFallsBackToAI(t *testing.T) {
	chat := &fakeChat{reply: `{
		"message": "Added soccer practice on Thursday at 4pm.",
		"actions": [{"type": "create_event", "data": {"title": "Soccer practice", "startTime": "2024-05-16T16:00", "assignedTo": 2}}]
	}`}
	env := newVoiceEnv(t, chat)

	resp, err := env.service.ProcessCommand(context.Background(), "Hey Lisa, add soccer practice to calendar Thursday at 4pm")
	if err != nil {
		t.Fatal(err)
	}

	if chat.callCount() != 1 {
		t.Fatalf("chat called %d times, want 1", chat.callCount())
	}
	if !strings.Contains(chat.system, "Emma") {
		t.Error("family roster missing from prompt")
	}
	if resp.Message != "Added soccer practice on Thursday at 4pm." {
		t.Errorf("message = %q", resp.Message)
	}

	events, _ := env.store.Events().List(context.Background(), ports.EventFilter{})
	if len(events) != 1 || events[0].EndTime == nil {
		t.Fatalf("events = %+v", events)
	}
	if got := events[0].EndTime.Sub(events[0].StartTime); got != time.Hour {
		t.Errorf("duration = %v, want 1h", got)
	}
}

func TestProcessCommandWithoutAI(t *testing.T) {
	env := newVoiceEnv(t, nil)

	for i := 0; i < 2; i++ {
		resp, err := env.service.ProcessCommand(context.Background(), "what's the weather like")
		if err != nil {
			t.Fatal(err)
		}
		if resp.Message != AIUnavailableMessage {
			t.Errorf("message = %q", resp.Message)
		}
		if resp.Actions == nil || len(resp.Actions) != 0 {
			t.Errorf("actions = %#v, want empty list", resp.Actions)
		}
	}
}

func TestProcessCommandAIFailure(t *testing.T) {
	env := newVoiceEnv(t, &fakeChat{err: errors.New("timeout")})

	resp, err := env.service.ProcessCommand(context.Background(), "what's the weather like")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message != AIFailureMessage {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestProcessCommandEmpty(t *testing.T) {
	env := newVoiceEnv(t, nil)

	_, err := env.service.ProcessCommand(context.Background(), "   ")
	var verr *entities.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestProcessCommandResponseShape(t *testing.T) {
	env := newVoiceEnv(t, nil)

	resp, err := env.service.ProcessCommand(context.Background(), "add call grandma to tasks tomorrow")
	if err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Message string `json:"message"`
		Actions []struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		} `json:"actions"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Actions) != 1 || decoded.Actions[0].Type != "create_task" {
		t.Fatalf("actions = %+v", decoded.Actions)
	}
	if decoded.Actions[0].Data["priority"] != "medium" {
		t.Errorf("data = %v", decoded.Actions[0].Data)
	}
}

func TestSmartTaskCreation(t *testing.T) {
	t.Run("ai suggestions", func(t *testing.T) {
		chat := &fakeChat{reply: `{"tasks":[{"title":"Buy cake","assignedTo":2}],"interpretation":"Birthday prep"}`}
		env := newVoiceEnv(t, chat)

		resp, err := env.service.SmartTaskCreation(context.Background(), ports.SmartTaskRequest{VoiceInput: "get a cake for the party"})
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Tasks) != 1 || resp.Tasks[0].Title != "Buy cake" || resp.Interpretation != "Birthday prep" {
			t.Errorf("resp = %+v", resp)
		}

		tasks, _ := env.store.Tasks().List(context.Background(), ports.TaskFilter{})
		if len(tasks) != 0 {
			t.Error("suggestions must not be persisted")
		}
	})

	t.Run("deterministic fallback", func(t *testing.T) {
		env := newVoiceEnv(t, nil)

		resp, err := env.service.SmartTaskCreation(context.Background(), ports.SmartTaskRequest{
			VoiceInput:    "remind me to water the plants tomorrow",
			FamilyMembers: []*entities.FamilyMember{{ID: 7, Name: "Tom"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(resp.Tasks) != 1 {
			t.Fatalf("tasks = %+v", resp.Tasks)
		}
		draft := resp.Tasks[0]
		if draft.Title != "water the plants tomorrow" {
			t.Errorf("title = %q", draft.Title)
		}
		if draft.DueDate == nil || draft.DueDate.Day() != 11 {
			t.Errorf("due = %v, want end of May 11", draft.DueDate)
		}
		if !strings.Contains(resp.Interpretation, "not configured") {
			t.Errorf("interpretation = %q", resp.Interpretation)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		env := newVoiceEnv(t, nil)
		_, err := env.service.SmartTaskCreation(context.Background(), ports.SmartTaskRequest{VoiceInput: " "})
		var verr *entities.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("err = %v, want ValidationError", err)
		}
	})
}
