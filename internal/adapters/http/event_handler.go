package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/domain/timeutil"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// EventRequest carries event times as the client's wall-clock strings
type EventRequest struct {
	Title       string              `json:"title" validate:"required,max=500"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	StartTime   string              `json:"startTime" validate:"required"`
	EndTime     *string             `json:"endTime"`
	Location    *string             `json:"location" validate:"omitempty,max=500"`
	AssignedTo  *int64              `json:"assignedTo"`
	AllDay      bool                `json:"allDay"`
	Visibility  entities.Visibility `json:"type" validate:"omitempty,oneof=shared private busy"`
	SharedWith  []int64             `json:"sharedWith"`
}

func (r *EventRequest) input(loc *time.Location) (ports.EventInput, error) {
	start, err := timeutil.ParseLocal(r.StartTime, loc)
	if err != nil {
		return ports.EventInput{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid startTime")
	}

	var end *time.Time
	if r.EndTime != nil && *r.EndTime != "" {
		t, err := timeutil.ParseLocal(*r.EndTime, loc)
		if err != nil {
			return ports.EventInput{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid endTime")
		}
		end = &t
	}

	return ports.EventInput{
		Title:       r.Title,
		Description: r.Description,
		StartTime:   start,
		EndTime:     end,
		Location:    r.Location,
		AssignedTo:  r.AssignedTo,
		AllDay:      r.AllDay,
		Visibility:  r.Visibility,
		SharedWith:  r.SharedWith,
	}, nil
}

// EventHandler handles calendar event requests
type EventHandler struct {
	eventService *services.EventService
	loc          *time.Location
	logger       *logger.Logger
}

// NewEventHandler creates a new event handler. Wall-clock times sent by
// clients are read in loc.
func NewEventHandler(eventService *services.EventService, loc *time.Location, logger *logger.Logger) *EventHandler {
	if loc == nil {
		loc = time.Local
	}
	return &EventHandler{
		eventService: eventService,
		loc:          loc,
		logger:       logger,
	}
}

// ListEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Param from query string false "Earliest start time"
// @Param to query string false "Latest start time"
// @Param assignedTo query int false "Assignee member ID"
// @Success 200 {array} entities.Event
// @Router /events [get]
func (h *EventHandler) ListEvents(c echo.Context) error {
	var filter ports.EventFilter

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		t, err := timeutil.ParseLocal(raw, h.loc)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
		}
		*dst = &t
	}

	assignee, err := queryID(c, "assignedTo")
	if err != nil {
		return err
	}
	filter.AssignedTo = assignee

	if filter.Limit, err = queryLimit(c); err != nil {
		return err
	}

	events, err := h.eventService.ListEvents(c.Request().Context(), filter)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("List events failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Param request body EventRequest true "Event data"
// @Success 201 {object} entities.Event
// @Failure 400 {object} ErrorResponse
// @Router /events [post]
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req EventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in, err := req.input(h.loc)
	if err != nil {
		return err
	}

	event, err := h.eventService.CreateEvent(c.Request().Context(), in)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Create event failed", "title", req.Title)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	event, err := h.eventService.GetEvent(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, event)
}

// UpdateEvent replaces every editable field of an event
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req EventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in, err := req.input(h.loc)
	if err != nil {
		return err
	}

	event, err := h.eventService.UpdateEvent(c.Request().Context(), id, in)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Update event failed", "event_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.eventService.DeleteEvent(c.Request().Context(), id); err != nil {
		requestLog(h.logger, c, err).Errorw("Delete event failed", "event_id", id)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
