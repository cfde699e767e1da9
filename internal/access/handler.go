package access

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/frahmantamala/chitfund-portal/internal"
	"github.com/frahmantamala/chitfund-portal/internal/auth"
	"github.com/frahmantamala/chitfund-portal/internal/session"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

type ServiceAPI interface {
	Submit(ctx context.Context, dto SubmitAccessRequestDTO) (*Decision, error)
	SubmitAdmin(ctx context.Context, userID, email string) (*Decision, error)
	List(ctx context.Context, filter ListFilter) ([]*AccessRequest, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	issuer  *session.Issuer
}

func NewHandler(service ServiceAPI, issuer *session.Issuer, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
		issuer:      issuer,
	}
}

// Submit handles POST /api/access/request. Cookies are written in the same
// response only when the request was approved.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var dto SubmitAccessRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	decision, err := h.Service.Submit(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	if decision.Approved {
		req := decision.Request
		h.issuer.Issue(w, req.RequestType.UserType(), req.Email, req.ID, req.AccessLevel())
	}

	h.WriteJSON(w, http.StatusOK, SubmitResponse{
		Success:   true,
		RequestID: decision.RequestID,
		Approved:  decision.Approved,
		Message:   decision.Message,
	})
}

// Status handles GET /api/access/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.issuer.Read(r)
	if !ok {
		h.WriteJSON(w, http.StatusOK, StatusResponse{HasAccess: false})
		return
	}
	h.WriteJSON(w, http.StatusOK, StatusResponse{
		HasAccess: true,
		UserType:  string(cred.UserType),
		UserEmail: cred.Email,
		RequestID: cred.RequestID,
	})
}

// Clear handles POST /api/access/clear.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.issuer.Clear(w)
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// List handles GET /api/access/requests for admins.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter ListFilter
	switch s := Status(q.Get("status")); s {
	case "":
	case StatusPending, StatusApproved:
		filter.Status = s
	default:
		h.WriteAppError(w, errors.NewValidationFieldError("status", "status must be pending or approved", errors.ErrCodeInvalidFilter))
		return
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit <= 0 {
			h.WriteAppError(w, errors.NewValidationFieldError("limit", "limit must be a positive integer", errors.ErrCodeInvalidFilter))
			return
		}
		filter.Limit = limit
	}

	reqs, err := h.Service.List(r.Context(), filter)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ListResponse{Success: true, Requests: reqs})
}

// AdminSession handles POST /api/auth/admin-session. The route sits behind
// the admin role check, so the payload is always present here.
func (h *Handler) AdminSession(w http.ResponseWriter, r *http.Request) {
	payload, ok := auth.PayloadFromContext(r.Context())
	if !ok || payload.Role != auth.RoleAdmin {
		h.WriteAppError(w, errors.ErrInvalidToken)
		return
	}

	decision, err := h.Service.SubmitAdmin(r.Context(), payload.UserID, payload.Email)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	req := decision.Request
	cred := h.issuer.Issue(w, req.RequestType.UserType(), req.Email, req.ID, req.AccessLevel())
	h.WriteJSON(w, http.StatusOK, AdminSessionResponse{
		Success:     true,
		RequestID:   req.ID,
		UserType:    string(cred.UserType),
		AccessLevel: string(cred.AccessLevel),
	})
}
