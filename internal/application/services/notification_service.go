package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/infrastructure/metrics"
	"github.com/familyhub/core/internal/ports"
)

// NotificationService queues notifications and hands due ones to a
// Deliverer. Each notification gets exactly one delivery attempt.
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	memberRepo       ports.FamilyMemberRepository
	deliverer        ports.Deliverer
	metrics          *metrics.Metrics
	logger           *logger.Logger
	now              Clock
}

func NewNotificationService(
	notificationRepo ports.NotificationRepository,
	memberRepo ports.FamilyMemberRepository,
	deliverer ports.Deliverer,
	m *metrics.Metrics,
	logger *logger.Logger,
	clock Clock,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		memberRepo:       memberRepo,
		deliverer:        deliverer,
		metrics:          m,
		logger:           logger,
		now:              clock.orNow(),
	}
}

func (s *NotificationService) CreateNotification(ctx context.Context, req ports.CreateNotificationRequest) (*entities.Notification, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, entities.NewValidationError("title", "is required")
	}
	if req.RecipientID <= 0 {
		return nil, entities.NewValidationError("recipientId", "is required")
	}

	method := req.Method
	if method == "" {
		method = entities.DeliveryInApp
	}
	if !method.IsValid() {
		return nil, entities.NewValidationError("deliveryMethod", fmt.Sprintf("unknown delivery method %q", method))
	}

	now := s.now()
	scheduled := now
	if req.ScheduledFor != nil {
		scheduled = *req.ScheduledFor
	}

	n := &entities.Notification{
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		RecipientID:  req.RecipientID,
		TaskID:       req.TaskID,
		EventID:      req.EventID,
		ScheduledFor: scheduled,
		Method:       method,
		Status:       entities.NotificationPending,
		CreatedAt:    now,
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Infow("Notification queued", "notification_id", n.ID, "recipient_id", n.RecipientID, "scheduled_for", n.ScheduledFor)

	return n, nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, filter ports.NotificationFilter) ([]*entities.Notification, error) {
	items, err := s.notificationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

// MarkSent records that a client displayed the notification itself
func (s *NotificationService) MarkSent(ctx context.Context, id int64) (*entities.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := n.MarkSent(s.now()); err != nil {
		return nil, err
	}

	if err := s.notificationRepo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return n, nil
}

// DispatchResult summarises one dispatch sweep
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatch delivers every pending notification that is due. A failed
// delivery marks that notification failed and the sweep carries on.
func (s *NotificationService) Dispatch(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult

	now := s.now()
	pending := entities.NotificationPending
	due, err := s.notificationRepo.List(ctx, ports.NotificationFilter{Status: &pending, DueBefore: &now})
	if err != nil {
		return result, fmt.Errorf("failed to list due notifications: %w", err)
	}

	for _, n := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome := "sent"
		deliverErr := s.deliver(ctx, n)
		if deliverErr != nil {
			s.logger.Warnw("Notification delivery failed",
				"notification_id", n.ID,
				"method", n.Method,
				"error", deliverErr,
			)
			outcome = "failed"
		}

		var transitionErr error
		if outcome == "failed" {
			transitionErr = n.MarkFailed()
		} else {
			transitionErr = n.MarkSent(s.now())
		}
		if transitionErr != nil {
			s.logger.Warnw("Notification left pending state during dispatch",
				"notification_id", n.ID,
				"status", n.Status,
				"outcome", outcome,
				"error", transitionErr,
			)
			continue
		}

		if outcome == "failed" {
			result.Failed++
		} else {
			result.Sent++
		}
		s.metrics.NotificationDispatched(string(n.Method), outcome)

		if err := s.notificationRepo.Update(ctx, n); err != nil {
			s.logger.Errorw("Failed to record notification status", "notification_id", n.ID, "error", err)
		}
	}

	if len(due) > 0 {
		s.logger.Infow("Notification sweep finished", "sent", result.Sent, "failed", result.Failed)
	}

	return result, nil
}

func (s *NotificationService) deliver(ctx context.Context, n *entities.Notification) error {
	recipient, err := s.memberRepo.GetByID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("recipient %d: %w", n.RecipientID, err)
	}
	if recipient.NotificationPreference == entities.NotifyNone {
		return fmt.Errorf("recipient %d opted out of notifications", recipient.ID)
	}
	return s.deliverer.Deliver(ctx, n, recipient)
}
