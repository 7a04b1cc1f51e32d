package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// VoiceNoteHandler handles captured voice notes
type VoiceNoteHandler struct {
	noteService *services.VoiceNoteService
	logger      *logger.Logger
}

func NewVoiceNoteHandler(noteService *services.VoiceNoteService, logger *logger.Logger) *VoiceNoteHandler {
	return &VoiceNoteHandler{
		noteService: noteService,
		logger:      logger,
	}
}

func (h *VoiceNoteHandler) ListVoiceNotes(c echo.Context) error {
	createdBy, err := queryID(c, "createdBy")
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	notes, err := h.noteService.ListVoiceNotes(c.Request().Context(), ports.VoiceNoteFilter{CreatedBy: createdBy, Limit: limit})
	if err != nil {
		requestLog(h.logger, c, err).Errorw("List voice notes failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, notes)
}

func (h *VoiceNoteHandler) CreateVoiceNote(c echo.Context) error {
	var req ports.CreateVoiceNoteRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	note, err := h.noteService.CreateVoiceNote(c.Request().Context(), req)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Create voice note failed", "created_by", req.CreatedBy)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, note)
}
