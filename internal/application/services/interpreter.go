package services

import (
	"context"
	"fmt"
	"time"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/voice"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// Interpretation sources
const (
	SourceRules = "rules"
	SourceAI    = "ai"
	SourceNone  = "none"
)

// UtteranceInterpreter turns an utterance into zero or more actions
type UtteranceInterpreter interface {
	Name() string
	Interpret(ctx context.Context, utterance string, fc *ports.FamilyContext) (*ports.Interpretation, error)
}

// RuleInterpreter applies the keyword classifier and slot extractor
type RuleInterpreter struct {
	extractor *voice.Extractor
	loc       *time.Location
	now       Clock
}

func NewRuleInterpreter(extractor *voice.Extractor, loc *time.Location, clock Clock) *RuleInterpreter {
	if loc == nil {
		loc = time.Local
	}
	return &RuleInterpreter{extractor: extractor, loc: loc, now: clock.orNow()}
}

func (r *RuleInterpreter) Name() string { return SourceRules }

func (r *RuleInterpreter) Interpret(ctx context.Context, utterance string, fc *ports.FamilyContext) (*ports.Interpretation, error) {
	var members []*entities.FamilyMember
	if fc != nil {
		members = fc.Members
	}
	actions := r.extractor.Extract(utterance, r.now().In(r.loc), members)
	return &ports.Interpretation{Source: SourceRules, Actions: actions}, nil
}

// FallbackChain asks each interpreter in turn and returns the first
// interpretation that carries at least one action. When none does, the last
// successful interpretation is returned so its message reaches the caller.
type FallbackChain struct {
	interpreters []UtteranceInterpreter
	logger       *logger.Logger
}

func NewFallbackChain(logger *logger.Logger, interpreters ...UtteranceInterpreter) *FallbackChain {
	return &FallbackChain{interpreters: interpreters, logger: logger}
}

func (c *FallbackChain) Name() string { return "chain" }

func (c *FallbackChain) Interpret(ctx context.Context, utterance string, fc *ports.FamilyContext) (*ports.Interpretation, error) {
	var last *ports.Interpretation
	var lastErr error

	for _, in := range c.interpreters {
		result, err := in.Interpret(ctx, utterance, fc)
		if err != nil {
			c.logger.Warnw("Interpreter failed", "interpreter", in.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(result.Actions) > 0 {
			return result, nil
		}
		last = result
	}

	if last != nil {
		return last, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("no interpreter succeeded: %w", lastErr)
	}
	return &ports.Interpretation{Source: SourceNone}, nil
}
