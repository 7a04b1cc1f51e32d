package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/ports"
)

// Fixed replies of the AI interpreter
const (
	AIUnavailableMessage = "AI assistant is not configured. Set OPENAI_API_KEY to enable voice command interpretation."
	AIFailureMessage     = "Sorry, I couldn't process that request right now. Please try again."
)

const timeLayout = "2006-01-02T15:04"

const commandContract = `Respond with a single JSON object of the form:
{"message": string, "actions": [{"type": "create_task" | "create_event" | "create_reminder", "data": {...}}]}

Action data fields:
- create_task: title (required), description, dueDate, assignedTo, priority (low|medium|high)
- create_event: title (required), description, startTime (required), endTime, location, assignedTo, allDay
- create_reminder: title (required), description, dueDate (required), assignedTo, priority (low|medium|high)

Dates are local wall-clock strings formatted YYYY-MM-DDTHH:MM. assignedTo is a family member id from the roster.
Use an empty actions list when nothing should be created, and explain why in message.`

const suggestionContract = `Respond with a single JSON object of the form:
{"tasks": [{"title": string, "description": string, "assignedTo": number, "priority": "low" | "medium" | "high", "dueDate": "YYYY-MM-DDTHH:MM"}], "interpretation": string}

Only title is required. assignedTo is a family member id from the roster. interpretation restates the request in one sentence.`

// AIInterpreter forwards an utterance and the family context to a language
// model. Any failure degrades to a fixed apology with no actions.
type AIInterpreter struct {
	chat    ports.ChatCompleter
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     Clock
}

// NewAIInterpreter creates the interpreter. chat may be nil, which behaves
// like a completer without credentials.
func NewAIInterpreter(chat ports.ChatCompleter, loc *time.Location, m *metrics.Metrics, logger *logger.Logger, clock Clock) *AIInterpreter {
	if loc == nil {
		loc = time.Local
	}
	return &AIInterpreter{
		chat:    chat,
		loc:     loc,
		metrics: m,
		logger:  logger.WithComponent("ai_interpreter"),
		now:     clock.orNow(),
	}
}

func (a *AIInterpreter) Name() string { return SourceAI }

// Interpret never returns an error for provider trouble; the caller always
// gets a message to show.
func (a *AIInterpreter) Interpret(ctx context.Context, utterance string, fc *ports.FamilyContext) (*ports.Interpretation, error) {
	prompt := a.systemPrompt("You are a family organizer assistant that turns spoken requests into calendar events, tasks and reminders.", fc, commandContract)

	content, err := a.complete(ctx, prompt, utterance)
	if err != nil {
		if errors.Is(err, ports.ErrChatUnavailable) {
			return &ports.Interpretation{Source: SourceAI, Message: AIUnavailableMessage}, nil
		}
		return &ports.Interpretation{Source: SourceAI, Message: AIFailureMessage}, nil
	}

	var reply struct {
		Message string            `json:"message"`
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		a.logger.Errorw("AI reply is not valid JSON", "error", err)
		a.metrics.AICall("malformed")
		return &ports.Interpretation{Source: SourceAI, Message: AIFailureMessage}, nil
	}

	actions := make([]voice.Action, 0, len(reply.Actions))
	for i, raw := range reply.Actions {
		action, err := voice.DecodeAction(raw, a.loc)
		if err != nil {
			a.logger.Warnw("Dropping malformed AI action", "index", i, "error", err)
			continue
		}
		actions = append(actions, action)
	}

	a.metrics.AICall("ok")

	return &ports.Interpretation{
		Source:  SourceAI,
		Message: strings.TrimSpace(reply.Message),
		Actions: actions,
	}, nil
}

// SuggestTasks asks the model for task drafts without persisting anything
func (a *AIInterpreter) SuggestTasks(ctx context.Context, input string, members []*entities.FamilyMember) (*ports.SmartTaskResponse, error) {
	fc := &ports.FamilyContext{Members: members}
	prompt := a.systemPrompt("You help a family split spoken requests into concrete tasks.", fc, suggestionContract)

	content, err := a.complete(ctx, prompt, input)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Tasks          []json.RawMessage `json:"tasks"`
		Interpretation string            `json:"interpretation"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		a.metrics.AICall("malformed")
		return nil, fmt.Errorf("decode task suggestions: %w", err)
	}

	resp := &ports.SmartTaskResponse{
		Tasks:          make([]ports.DraftTask, 0, len(reply.Tasks)),
		Interpretation: strings.TrimSpace(reply.Interpretation),
	}
	for i, raw := range reply.Tasks {
		envelope, _ := json.Marshal(map[string]json.RawMessage{
			"type": json.RawMessage(`"create_task"`),
			"data": raw,
		})
		action, err := voice.DecodeAction(envelope, a.loc)
		if err != nil {
			a.logger.Warnw("Dropping malformed task suggestion", "index", i, "error", err)
			continue
		}
		task := action.(voice.TaskAction)
		if strings.TrimSpace(task.Title) == "" {
			continue
		}
		resp.Tasks = append(resp.Tasks, draftFromTaskAction(task))
	}

	a.metrics.AICall("ok")
	return resp, nil
}

func (a *AIInterpreter) complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if a.chat == nil {
		return "", ports.ErrChatUnavailable
	}

	requestID := uuid.NewString()
	start := time.Now()

	content, err := a.chat.CompleteJSON(ctx, systemPrompt, userMessage)
	if err != nil {
		if errors.Is(err, ports.ErrChatUnavailable) {
			a.metrics.AICall("unavailable")
			return "", err
		}
		a.metrics.AICall("failed")
		a.logger.Errorw("AI request failed",
			"ai_request_id", requestID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", err
	}

	a.logger.Debugw("AI request finished",
		"ai_request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (a *AIInterpreter) systemPrompt(role string, fc *ports.FamilyContext, contract string) string {
	now := a.now().In(a.loc)

	var b strings.Builder
	b.WriteString(role)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current local time: %s (%s)\n\n", now.Format(timeLayout), now.Weekday())

	b.WriteString("Family members:\n")
	if fc == nil || len(fc.Members) == 0 {
		b.WriteString("- none\n")
	} else {
		for _, m := range fc.Members {
			fmt.Fprintf(&b, "- id %d: %s (%s)\n", m.ID, m.Name, m.Role)
		}
	}

	if fc != nil && len(fc.UpcomingEvents) > 0 {
		b.WriteString("\nUpcoming events:\n")
		for _, e := range fc.UpcomingEvents {
			fmt.Fprintf(&b, "- %s at %s\n", e.Title, e.StartTime.In(a.loc).Format(timeLayout))
		}
	}

	if fc != nil && len(fc.PendingTasks) > 0 {
		b.WriteString("\nPending tasks:\n")
		for _, t := range fc.PendingTasks {
			fmt.Fprintf(&b, "- %s", t.Title)
			if t.DueDate != nil {
				fmt.Fprintf(&b, ", due %s", t.DueDate.In(a.loc).Format(timeLayout))
			}
			if t.AssignedTo != nil {
				fmt.Fprintf(&b, ", assigned to %d", *t.AssignedTo)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(contract)
	return b.String()
}

func draftFromTaskAction(t voice.TaskAction) ports.DraftTask {
	priority := t.Priority
	if !priority.IsValid() {
		priority = entities.PriorityMedium
	}
	return ports.DraftTask{
		Title:       strings.TrimSpace(t.Title),
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Priority:    priority,
		DueDate:     t.DueDate,
	}
}
