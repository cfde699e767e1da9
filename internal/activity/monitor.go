package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCapacity  = 1000
	DefaultRetention = 24 * time.Hour
)

// Notifier receives escalated events after they are stored.
type Notifier interface {
	SecurityEventEscalated(ctx context.Context, ev SecurityEvent)
}

// Logger is the write side of the monitor, used by middleware and services.
type Logger interface {
	Log(ctx context.Context, ev SecurityEvent) SecurityEvent
}

type Option func(*Monitor)

func WithNotifier(n Notifier) Option {
	return func(m *Monitor) { m.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor is a bounded append-only log of security events. It is created once
// at process start and shared by reference; Close detaches it at shutdown.
type Monitor struct {
	mu       sync.Mutex
	buf      []SecurityEvent
	head     int // index of the oldest event
	size     int
	closed   bool
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

func NewMonitor(capacity int, logger *slog.Logger, opts ...Option) *Monitor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		buf:    make([]SecurityEvent, capacity),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Capacity() int {
	return len(m.buf)
}

// Log stamps and appends ev, evicting the oldest entry when full. High and
// critical events are also written at error level and handed to the notifier.
func (m *Monitor) Log(ctx context.Context, ev SecurityEvent) SecurityEvent {
	ev.Timestamp = m.now().UTC()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Severity == "" {
		ev.Severity = SeverityLow
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Warn("security event dropped, monitor closed", "action", ev.Action)
		return ev
	}
	tail := (m.head + m.size) % len(m.buf)
	m.buf[tail] = ev
	if m.size == len(m.buf) {
		m.head = (m.head + 1) % len(m.buf)
	} else {
		m.size++
	}
	notifier := m.notifier
	m.mu.Unlock()

	if ev.Severity.Escalates() {
		m.logger.Error("security event",
			"id", ev.ID,
			"action", ev.Action,
			"severity", ev.Severity,
			"ip", ev.IP,
			"user_id", ev.UserID,
			"path", ev.Path,
			"details", ev.Details)
		if notifier != nil {
			notifier.SecurityEventEscalated(ctx, ev)
		}
	} else {
		m.logger.Debug("security event",
			"action", ev.Action,
			"severity", ev.Severity,
			"ip", ev.IP,
			"path", ev.Path)
	}
	return ev
}

// Events returns every matching event, oldest first.
func (m *Monitor) Events(f Filter) []SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SecurityEvent, 0)
	for i := 0; i < m.size; i++ {
		ev := m.buf[(m.head+i)%len(m.buf)]
		if f.Matches(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Recent returns the newest limit matching events in chronological order and
// the total number of matches.
func (m *Monitor) Recent(f Filter, limit int) ([]SecurityEvent, int) {
	events := m.Events(f)
	total := len(events)
	if limit > 0 && total > limit {
		events = events[total-limit:]
	}
	return events, total
}

// Prune drops events older than olderThan (DefaultRetention when <= 0) and
// reports how many were removed. It only runs when called.
func (m *Monitor) Prune(olderThan time.Duration) int {
	if olderThan <= 0 {
		olderThan = DefaultRetention
	}
	cutoff := m.now().UTC().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make([]SecurityEvent, 0, m.size)
	for i := 0; i < m.size; i++ {
		ev := m.buf[(m.head+i)%len(m.buf)]
		if !ev.Timestamp.Before(cutoff) {
			kept = append(kept, ev)
		}
	}
	removed := m.size - len(kept)

	for i := range m.buf {
		m.buf[i] = SecurityEvent{}
	}
	copy(m.buf, kept)
	m.head = 0
	m.size = len(kept)
	return removed
}

func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.notifier = nil
}
