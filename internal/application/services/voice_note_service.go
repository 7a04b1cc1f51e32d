package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// VoiceNoteService stores captured utterances. Notes are never updated.
type VoiceNoteService struct {
	noteRepo ports.VoiceNoteRepository
	logger   *logger.Logger
	now      Clock
}

func NewVoiceNoteService(noteRepo ports.VoiceNoteRepository, logger *logger.Logger, clock Clock) *VoiceNoteService {
	return &VoiceNoteService{
		noteRepo: noteRepo,
		logger:   logger,
		now:      clock.orNow(),
	}
}

func (s *VoiceNoteService) CreateVoiceNote(ctx context.Context, req ports.CreateVoiceNoteRequest) (*entities.VoiceNote, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, entities.NewValidationError("content", "is required")
	}

	note := &entities.VoiceNote{
		Content:       req.Content,
		Transcription: req.Transcription,
		CreatedBy:     req.CreatedBy,
		Processed:     req.Processed,
		CreatedAt:     s.now(),
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create voice note: %w", err)
	}

	s.logger.Infow("Voice note captured", "note_id", note.ID, "created_by", note.CreatedBy)

	return note, nil
}

func (s *VoiceNoteService) ListVoiceNotes(ctx context.Context, filter ports.VoiceNoteFilter) ([]*entities.VoiceNote, error) {
	notes, err := s.noteRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice notes: %w", err)
	}
	return notes, nil
}
