package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

// EventHandler reports decided access requests. Pending requests are counted
// and announced so operators know the review queue has grown.
type EventHandler struct {
	logger  *slog.Logger
	pending atomic.Int64
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleAccessRequestDecided(ctx context.Context, event events.Event) error {
	decided, ok := event.(*events.AccessRequestDecidedEvent)
	if !ok {
		h.logger.Error("invalid event type for access decided handler", "event_type", event.EventType())
		return fmt.Errorf("expected AccessRequestDecidedEvent, got %T", event)
	}

	if decided.Status != string(StatusPending) {
		h.logger.Info("access request approved",
			"request_id", decided.RequestID,
			"request_type", decided.RequestType,
			"event_id", decided.EventID())
		return nil
	}

	queued := h.pending.Add(1)
	h.logger.Warn("access request awaiting review",
		"request_id", decided.RequestID,
		"request_type", decided.RequestType,
		"pending_since_start", queued,
		"event_id", decided.EventID())
	return nil
}

// Pending is the number of pending decisions seen since start.
func (h *EventHandler) Pending() int64 {
	return h.pending.Load()
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeAccessRequestDecided, h.HandleAccessRequestDecided)

	h.logger.Info("access event handlers registered",
		"handlers", []string{events.EventTypeAccessRequestDecided})
}
