package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	authorizer *Authorizer
}

func NewHandler(authorizer *Authorizer, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		authorizer:  authorizer,
	}
}

type VerifyRequest struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type VerifyResponse struct {
	Success bool          `json:"success"`
	User    *TokenPayload `json:"user"`
}

// Verify handles POST /api/auth/verify. The token may come in the body or as
// a bearer header.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	if req.Token == "" {
		req.Token = h.ExtractTokenFromHeader(r)
	}

	// an unknown role can never match and is reported as a mismatch
	payload, err := h.authorizer.Authorize(r.Context(), req.Token, Role(req.Role), transport.ClientIP(r), r.URL.Path)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, VerifyResponse{Success: true, User: payload})
}
