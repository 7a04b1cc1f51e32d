package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/familyhub/core/internal/application/services"
	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListNotifications godoc
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param recipientId query int false "Recipient member ID"
// @Param status query string false "pending, sent or failed"
// @Success 200 {array} entities.Notification
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	recipient, err := queryID(c, "recipientId")
	if err != nil {
		return err
	}
	limit, err := queryLimit(c)
	if err != nil {
		return err
	}

	filter := ports.NotificationFilter{RecipientID: recipient, Limit: limit}
	if raw := c.QueryParam("status"); raw != "" {
		status := entities.NotificationStatus(raw)
		switch status {
		case entities.NotificationPending, entities.NotificationSent, entities.NotificationFailed:
			filter.Status = &status
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
	}

	notifications, err := h.notificationService.ListNotifications(c.Request().Context(), filter)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("List notifications failed")
		return httpError(err)
	}

	return c.JSON(http.StatusOK, notifications)
}

// CreateNotification godoc
// @Summary Schedule a notification
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body ports.CreateNotificationRequest true "Notification data"
// @Success 201 {object} entities.Notification
// @Failure 400 {object} ErrorResponse
// @Router /notifications [post]
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req ports.CreateNotificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	notification, err := h.notificationService.CreateNotification(c.Request().Context(), req)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Create notification failed", "recipient_id", req.RecipientID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, notification)
}

// MarkSent records a delivery made outside the dispatcher
func (h *NotificationHandler) MarkSent(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	notification, err := h.notificationService.MarkSent(c.Request().Context(), id)
	if err != nil {
		requestLog(h.logger, c, err).Errorw("Mark notification sent failed", "notification_id", id)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, notification)
}
