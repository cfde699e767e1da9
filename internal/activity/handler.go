package activity

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/activity/postgres"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

type Reader interface {
	Recent(f Filter, limit int) ([]SecurityEvent, int)
}

type ArchiveReader interface {
	ListSince(ctx context.Context, since time.Time, limit int) ([]postgres.ArchivedEvent, error)
}

type Handler struct {
	*transport.BaseHandler
	reader     Reader
	archive    ArchiveReader
	queryLimit int
}

// WithArchive enables the archived event listing.
func (h *Handler) WithArchive(archive ArchiveReader) *Handler {
	h.archive = archive
	return h
}

func (h *Handler) HasArchive() bool {
	return h.archive != nil
}

func NewHandler(reader Reader, queryLimit int, logger *slog.Logger) *Handler {
	if queryLimit <= 0 {
		queryLimit = 100
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		reader:      reader,
		queryLimit:  queryLimit,
	}
}

type ListResponse struct {
	Success bool            `json:"success"`
	Events  []SecurityEvent `json:"events"`
	Total   int             `json:"total"`
}

// ListEvents handles GET /api/activity. Callers are admin-only; the route is
// mounted behind the admin role check.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f Filter
	if s := q.Get("severity"); s != "" {
		sev, ok := ParseSeverity(s)
		if !ok {
			h.WriteAppError(w, errors.NewValidationFieldError("severity",
				"severity must be one of low, medium, high, critical", errors.ErrCodeInvalidFilter))
			return
		}
		f.Severity = sev
	}
	f.IP = q.Get("ip")
	f.UserID = q.Get("userId")

	events, total := h.reader.Recent(f, h.queryLimit)
	h.WriteJSON(w, http.StatusOK, ListResponse{
		Success: true,
		Events:  events,
		Total:   total,
	})
}

type ArchiveResponse struct {
	Success bool                     `json:"success"`
	Events  []postgres.ArchivedEvent `json:"events"`
}

// ListArchived handles GET /api/activity/archive?since=<RFC3339>. Without
// since, the last retention day is returned.
func (h *Handler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.WriteAppError(w, errors.NewNotFoundError("Security event archive is not configured", errors.ErrCodeArchiveUnavailable))
		return
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	if s := r.URL.Query().Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.WriteAppError(w, errors.NewValidationFieldError("since", "since must be an RFC3339 timestamp", errors.ErrCodeInvalidFilter))
			return
		}
		since = t
	}

	rows, err := h.archive.ListSince(r.Context(), since, h.queryLimit)
	if err != nil {
		h.WriteAppError(w, errors.NewInternalError("failed to list archived events", err))
		return
	}
	if rows == nil {
		rows = []postgres.ArchivedEvent{}
	}
	h.WriteJSON(w, http.StatusOK, ArchiveResponse{Success: true, Events: rows})
}
