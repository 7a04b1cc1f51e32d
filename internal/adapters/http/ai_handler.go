package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// AIHandler exposes the voice command pipeline
type AIHandler struct {
	voiceService *services.VoiceService
	logger       *logger.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(voiceService *services.VoiceService, logger *logger.Logger) *AIHandler {
	return &AIHandler{
		voiceService: voiceService,
		logger:       logger,
	}
}

// VoiceCommand godoc
// @Summary Interpret a spoken command and create the records it describes
// @Description Rule-based extraction runs first; the language model is consulted only when no rule matches.
// @Tags ai
// @Accept json
// @Produce json
// @Param request body ports.VoiceCommandRequest true "Transcribed utterance"
// @Success 200 {object} ports.VoiceCommandResponse
// @Failure 400 {object} ErrorResponse
// @Router /ai/voice-command [post]
func (h *AIHandler) VoiceCommand(c echo.Context) error {
	var req ports.VoiceCommandRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.voiceService.ProcessCommand(c.Request().Context(), req.Message)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Voice command failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// SmartTaskCreation godoc
// @Summary Suggest tasks from a spoken request without saving them
// @Tags ai
// @Accept json
// @Produce json
// @Param request body ports.SmartTaskRequest true "Transcribed utterance and optional roster"
// @Success 200 {object} ports.SmartTaskResponse
// @Failure 400 {object} ErrorResponse
// @Router /ai/smart-task-creation [post]
func (h *AIHandler) SmartTaskCreation(c echo.Context) error {
	var req ports.SmartTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.voiceService.SmartTaskCreation(c.Request().Context(), req)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Smart task creation failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
