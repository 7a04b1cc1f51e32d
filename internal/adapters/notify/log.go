package notify

import (
	"context"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/logger"
	"github.com/familyhub/core/internal/ports"
)

// LogDeliverer records the notification in the application log. It stands
// in for push, sms and in-app channels which are handled by the clients.
type LogDeliverer struct {
	logger *logger.Logger
}

func NewLogDeliverer(appLogger *logger.Logger) *LogDeliverer {
	return &LogDeliverer{logger: appLogger.WithComponent("notify")}
}

func (d *LogDeliverer) Deliver(ctx context.Context, n *entities.Notification, recipient *entities.FamilyMember) error {
	d.logger.Infow("Notification delivered",
		"notification_id", n.ID,
		"method", n.Method,
		"recipient_id", recipient.ID,
		"recipient", recipient.Name,
		"title", n.Title,
	)
	return nil
}

// Router picks a deliverer per delivery method, falling back to a default
type Router struct {
	routes   map[entities.DeliveryMethod]ports.Deliverer
	fallback ports.Deliverer
}

func NewRouter(fallback ports.Deliverer) *Router {
	return &Router{
		routes:   make(map[entities.DeliveryMethod]ports.Deliverer),
		fallback: fallback,
	}
}

// Handle registers d for method
func (r *Router) Handle(method entities.DeliveryMethod, d ports.Deliverer) *Router {
	r.routes[method] = d
	return r
}

func (r *Router) Deliver(ctx context.Context, n *entities.Notification, recipient *entities.FamilyMember) error {
	if d, ok := r.routes[n.Method]; ok {
		return d.Deliver(ctx, n, recipient)
	}
	return r.fallback.Deliver(ctx, n, recipient)
}
