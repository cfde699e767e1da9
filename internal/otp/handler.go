package otp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/chitfund-portal/internal/core/common/validation"
	"github.com/frahmantamala/chitfund-portal/internal/transport"
)

type ServiceAPI interface {
	Send(ctx context.Context, phone string) (time.Time, error)
	Verify(ctx context.Context, phone, code, ip string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		Service:     service,
	}
}

type SendRequest struct {
	Phone string `json:"phone"`
}

type SendResponse struct {
	Success   bool      `json:"success"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type VerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	v := validation.NewValidator()
	v.Field("phone", req.Phone).Required()
	if err := v.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	expiresAt, err := h.Service.Send(r.Context(), req.Phone)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SendResponse{Success: true, ExpiresAt: expiresAt})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteAppError(w, err)
		return
	}
	v := validation.NewValidator()
	v.Field("phone", req.Phone).Required()
	v.Field("code", req.Code).Required().MaxLength(10)
	if err := v.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}

	if err := h.Service.Verify(r.Context(), req.Phone, req.Code, transport.ClientIP(r)); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true, "verified": true})
}
