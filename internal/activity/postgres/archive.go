package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/chitfund-portal/internal/core/events"
)

// Archive keeps a durable copy of escalated security events. The in-memory
// monitor stays the source for queries.
type Archive struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewArchive(db *sqlx.DB, logger *slog.Logger) *Archive {
	return &Archive{db: db, logger: logger}
}

type ArchivedEvent struct {
	ID        string    `db:"id" json:"id"`
	LoggedAt  time.Time `db:"logged_at" json:"loggedAt"`
	IP        string    `db:"ip" json:"ip"`
	UserID    string    `db:"user_id" json:"userId"`
	Action    string    `db:"action" json:"action"`
	Path      string    `db:"path" json:"path"`
	Severity  string    `db:"severity" json:"severity"`
	Details   string    `db:"details" json:"details"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

const insertSecurityEvent = `INSERT INTO security_events (id, logged_at, ip, user_id, action, path, severity, details, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (a *Archive) Store(ctx context.Context, ev *events.SecurityEventEscalatedEvent) error {
	details := "{}"
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
		details = string(b)
	}

	row := ArchivedEvent{
		ID:        ev.SecurityEventID,
		LoggedAt:  ev.LoggedAt,
		IP:        ev.IP,
		UserID:    ev.UserID,
		Action:    ev.Action,
		Path:      ev.Path,
		Severity:  ev.Severity,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	_, err := a.db.ExecContext(ctx, a.db.Rebind(insertSecurityEvent),
		row.ID, row.LoggedAt, row.IP, row.UserID, row.Action, row.Path, row.Severity, row.Details, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// ListSince returns archived events logged at or after since, oldest first.
func (a *Archive) ListSince(ctx context.Context, since time.Time, limit int) ([]ArchivedEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []ArchivedEvent
	query := a.db.Rebind(`SELECT id, logged_at, ip, user_id, action, path, severity, details, created_at
FROM security_events WHERE logged_at >= ? ORDER BY logged_at ASC LIMIT ?`)
	if err := a.db.SelectContext(ctx, &rows, query, since, limit); err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	return rows, nil
}

// DeleteBefore removes archived events logged before cutoff.
func (a *Archive) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx, a.db.Rebind(`DELETE FROM security_events WHERE logged_at < ?`), cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete security events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (a *Archive) HandleSecurityEventEscalated(ctx context.Context, event events.Event) error {
	escalated, ok := event.(*events.SecurityEventEscalatedEvent)
	if !ok {
		a.logger.Error("invalid event type for security archive handler", "event_type", event.EventType())
		return fmt.Errorf("expected SecurityEventEscalatedEvent, got %T", event)
	}
	if err := a.Store(ctx, escalated); err != nil {
		return err
	}
	a.logger.Info("security event archived",
		"security_event_id", escalated.SecurityEventID,
		"action", escalated.Action,
		"severity", escalated.Severity)
	return nil
}

func (a *Archive) RegisterEventHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeSecurityEventEscalated, a.HandleSecurityEventEscalated)
}
