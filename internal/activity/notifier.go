package activity

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// BusNotifier forwards escalated events to the event bus.
type BusNotifier struct {
	bus    Publisher
	logger *slog.Logger
}

func NewBusNotifier(bus Publisher, logger *slog.Logger) *BusNotifier {
	return &BusNotifier{bus: bus, logger: logger}
}

func (n *BusNotifier) SecurityEventEscalated(ctx context.Context, ev SecurityEvent) {
	event := events.NewSecurityEventEscalatedEvent(ev.ID, ev.Timestamp, ev.IP, ev.UserID, ev.Action, ev.Path, string(ev.Severity), ev.Details)
	if err := n.bus.Publish(ctx, event); err != nil {
		n.logger.Error("failed to publish escalated security event", "error", err, "action", ev.Action)
	}
}
