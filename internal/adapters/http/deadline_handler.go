package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// DeadlineHandler handles deadline requests
type DeadlineHandler struct {
	deadlineService *services.DeadlineService
	logger          *logger.Logger
}

// NewDeadlineHandler creates a new deadline handler
func NewDeadlineHandler(deadlineService *services.DeadlineService, logger *logger.Logger) *DeadlineHandler {
	return &DeadlineHandler{
		deadlineService: deadlineService,
		logger:          logger,
	}
}

// ListDeadlines godoc
// @Summary List deadlines ordered by due date
// @Tags deadlines
// @Produce json
// @Param familyMemberId query int false "Member ID"
// @Param pending query bool false "Only deadlines not yet completed"
// @Success 200 {array} entities.Deadline
// @Router /deadlines [get]
func (h *DeadlineHandler) ListDeadlines(c echo.Context) error {
	member, err := queryID(c, "familyMemberId")
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	deadlines, err := h.deadlineService.ListDeadlines(c.Request().Context(), ports.DeadlineFilter{
		MemberID: member,
		Pending:  c.QueryParam("pending") == "true",
		Limit:    limit,
	})
	if err != nil {
		requestLog(h.logger, c, err).Errorw("List deadlines failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, deadlines)
}

// CreateDeadline godoc
// @Summary Create a deadline
// @Tags deadlines
// @Accept json
// @Produce json
// @Param request body ports.CreateDeadlineRequest true "Deadline data"
// @Success 201 {object} entities.Deadline
// @Failure 400 {object} ErrorResponse
// @Router /deadlines [post]
func (h *DeadlineHandler) CreateDeadline(c echo.Context) error {
	var req ports.CreateDeadlineRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	deadline, err := h.deadlineService.CreateDeadline(c.Request().Context(), req)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Create deadline failed", "title", req.Title)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, deadline)
}

func (h *DeadlineHandler) CompleteDeadline(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	deadline, err := h.deadlineService.CompleteDeadline(c.Request().Context(), id)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Complete deadline failed", "deadline_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, deadline)
}
