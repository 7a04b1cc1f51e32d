package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// requestLog tags a handler log line with the request ID and the error
func requestLog(l *logger.Logger, c echo.Context, err error) *logger.Logger {
	return l.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).WithError(err)
}

// bind decodes and validates the request body into req
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}

// pathID parses the :id route parameter
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id parameter")
	}
	return id, nil
}

// queryID parses an optional numeric query parameter
func queryID(c echo.Context, name string) (*int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return &id, nil
}

// queryLimit parses the optional limit parameter
func queryLimit(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
	}
	return limit, nil
}

// httpError maps domain errors onto HTTP status codes
func httpError(err error) *echo.HTTPError {
	var validation *entities.ValidationError
	switch {
	case errors.As(err, &validation):
		return echo.NewHTTPError(http.StatusBadRequest, validation.Error())
	case errors.Is(err, entities.ErrEventEndsBeforeStart):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrMemberNotFound),
		errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrEventNotFound),
		errors.Is(err, entities.ErrDeadlineNotFound),
		errors.Is(err, entities.ErrNotificationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrInvalidPIN):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid PIN")
	case errors.Is(err, entities.ErrPINNotSet), errors.Is(err, entities.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
}
