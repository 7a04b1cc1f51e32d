package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/ports"
)

const (
	nothingToCreateMessage   = "I couldn't find anything to create in that request."
	fallbackSuggestionPrefix = "Suggested a task from the spoken text"
)

// VoiceService runs spoken commands through interpretation and
// materialization.
type VoiceService struct {
	contexts     *FamilyContextProvider
	interpreter  UtteranceInterpreter
	materializer *Materializer
	suggester    *AIInterpreter
	extractor    *voice.Extractor
	loc          *time.Location
	metrics      *metrics.Metrics
	logger       *logger.Logger
	now          Clock
}

// VoiceServiceDeps groups the collaborators of VoiceService
type VoiceServiceDeps struct {
	Contexts     *FamilyContextProvider
	Interpreter  UtteranceInterpreter
	Materializer *Materializer
	Suggester    *AIInterpreter
	Extractor    *voice.Extractor
	Location     *time.Location
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
	Clock        Clock
}

func NewVoiceService(deps VoiceServiceDeps) *VoiceService {
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	return &VoiceService{
		contexts:     deps.Contexts,
		interpreter:  deps.Interpreter,
		materializer: deps.Materializer,
		suggester:    deps.Suggester,
		extractor:    deps.Extractor,
		loc:          loc,
		metrics:      deps.Metrics,
		logger:       deps.Logger.WithComponent("voice"),
		now:          deps.Clock.orNow(),
	}
}

// ProcessCommand interprets message, persists the resulting actions and
// returns a confirmation. Provider trouble never surfaces as an error.
func (s *VoiceService) ProcessCommand(ctx context.Context, message string) (*ports.VoiceCommandResponse, error) {
	utterance := strings.TrimSpace(message)
	if utterance == "" {
		return nil, entities.NewValidationError("message", "is required")
	}

	fc := s.familyContext(ctx)

	interp, err := s.interpreter.Interpret(ctx, utterance, fc)
	if err != nil {
		return nil, err
	}

	route := interp.Source
	actions := interp.Actions
	if actions == nil {
		actions = []voice.Action{}
	}

	resp := &ports.VoiceCommandResponse{Actions: actions}

	created, failed := 0, 0
	if len(actions) == 0 {
		route = SourceNone
		resp.Message = interp.Message
		if resp.Message == "" {
			resp.Message = nothingToCreateMessage
		}
	} else {
		result := s.materializer.Materialize(ctx, actions)
		created, failed = len(result.Created), result.Failed

		switch {
		case created == 0 || interp.Message == "":
			resp.Message = result.Message
		default:
			resp.Message = interp.Message
		}
	}

	s.metrics.VoiceCommand(route)
	s.logger.LogVoiceCommand(route, voice.Classify(utterance).String(), len(actions), created, map[string]interface{}{
		"failed": failed,
	})

	return resp, nil
}

// SmartTaskCreation suggests tasks for input without persisting them.
// Without a working AI provider a single deterministic draft is offered.
func (s *VoiceService) SmartTaskCreation(ctx context.Context, req ports.SmartTaskRequest) (*ports.SmartTaskResponse, error) {
	input := strings.TrimSpace(req.VoiceInput)
	if input == "" {
		return nil, entities.NewValidationError("voiceInput", "is required")
	}

	members := req.FamilyMembers
	if members == nil {
		members = s.familyContext(ctx).Members
	}

	var aiErr error
	if s.suggester != nil {
		resp, err := s.suggester.SuggestTasks(ctx, input, members)
		if err == nil && len(resp.Tasks) > 0 {
			if resp.Interpretation == "" {
				resp.Interpretation = input
			}
			return resp, nil
		}
		aiErr = err
	}

	resp := &ports.SmartTaskResponse{Tasks: []ports.DraftTask{}}
	draft := s.extractor.ExtractTask(input, s.now().In(s.loc), members)
	if strings.TrimSpace(draft.Title) == "" {
		draft.Title = input
	}
	resp.Tasks = append(resp.Tasks, draftFromTaskAction(draft))

	switch {
	case s.suggester == nil || errors.Is(aiErr, ports.ErrChatUnavailable):
		resp.Interpretation = fallbackSuggestionPrefix + " (AI assistant is not configured)."
	default:
		resp.Interpretation = fallbackSuggestionPrefix + "."
	}

	return resp, nil
}

func (s *VoiceService) familyContext(ctx context.Context) *ports.FamilyContext {
	fc, err := s.contexts.GetFamilyContext(ctx)
	if err != nil {
		s.logger.Warnw("Family context unavailable, continuing without it", "error", err)
		return &ports.FamilyContext{Members: []*entities.FamilyMember{}, GeneratedAt: s.now()}
	}
	return fc
}
