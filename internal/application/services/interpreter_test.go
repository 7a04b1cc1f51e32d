package services

import (
	"context"
	"errors"
	"testing"

	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

type stubInterpreter struct {
	name   string
	result *ports.Interpretation
	err    error
	calls  int
}

func (s *stubInterpreter) Name() string { return s.name }

func (s *stubInterpreter) Interpret(ctx context.Context, utterance string, fc *ports.FamilyContext) (*ports.Interpretation, error) {
	s.calls++
	return s.result, s.err
}

func TestFallbackChain(t *testing.T) {
	withAction := &ports.Interpretation{Source: "first", Actions: []voice.Action{voice.TaskAction{Title: "x"}}}
	empty := func(src, msg string) *ports.Interpretation { return &ports.Interpretation{Source: src, Message: msg} }

	tests := []struct {
		name       string
		first      *stubInterpreter
		second     *stubInterpreter
		wantSource string
		wantMsg    string
		wantSecond int
		wantErr    bool
	}{
		{
			name:       "first with actions wins",
			first:      &stubInterpreter{name: "first", result: withAction},
			second:     &stubInterpreter{name: "second", result: empty("second", "")},
			wantSource: "first",
			wantSecond: 0,
		},
		{
			name:       "falls through to second",
			first:      &stubInterpreter{name: "first", result: empty("first", "")},
			second:     &stubInterpreter{name: "second", result: empty("second", "nothing")},
			wantSource: "second",
			wantMsg:    "nothing",
			wantSecond: 1,
		},
		{
			name:       "error skipped",
			first:      &stubInterpreter{name: "first", err: errors.New("boom")},
			second:     &stubInterpreter{name: "second", result: empty("second", "ok")},
			wantSource: "second",
			wantMsg:    "ok",
			wantSecond: 1,
		},
		{
			name:       "all fail",
			first:      &stubInterpreter{name: "first", err: errors.New("boom")},
			second:     &stubInterpreter{name: "second", err: errors.New("bang")},
			wantSecond: 1,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := NewFallbackChain(logger.NewNop(), tt.first, tt.second)

			got, err := chain.Interpret(context.Background(), "utterance", &ports.FamilyContext{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
			} else {
				if err != nil {
					t.Fatal(err)
				}
				if got.Source != tt.wantSource || got.Message != tt.wantMsg {
					t.Errorf("got %+v", got)
				}
			}
			if tt.second.calls != tt.wantSecond {
				t.Errorf("second called %d times, want %d", tt.second.calls, tt.wantSecond)
			}
		})
	}
}

func TestRuleInterpreterUsesRoster(t *testing.T) {
	extractor := voice.NewExtractor(voice.ExtractorConfig{DefaultAssigneeID: 1, DefaultHour: 9})
	r := NewRuleInterpreter(extractor, nil, fixedClock())

	fc := testFamilyContext()
	got, err := r.Interpret(context.Background(), "add feed Emma's fish to tasks", fc)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Actions) != 1 {
		t.Fatalf("actions = %v", got.Actions)
	}
	task := got.Actions[0].(voice.TaskAction)
	if task.AssignedTo == nil || *task.AssignedTo != 2 {
		t.Errorf("assignedTo = %v, want Emma (2)", task.AssignedTo)
	}
}
