package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pesa/internal/auth/service"
	"pesa/pkg/platform/httputil"
)

// AuthService is the slice of the access gate the handler needs.
type AuthService interface {
	Login(ctx context.Context, phone, pin string) (*service.LoginResult, error)
}

// Handler exposes the login endpoint.
type Handler struct {
	service AuthService
	logger  *slog.Logger
}

func New(service AuthService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublicRoutes mounts the unauthenticated login endpoint.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.login)
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, req.Phone, req.PIN)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		AccountID: result.Account.ID.String(),
		Role:      string(result.Account.Role),
	})
}
