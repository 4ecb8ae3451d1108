package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pesa/internal/account/models"
	"pesa/internal/account/service"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/httputil"
	"pesa/pkg/requestcontext"
)

// AccountService is the slice of the account service the handler needs.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Account, error)
	SetStatus(ctx context.Context, id domain.AccountID, action service.StatusAction, actor domain.AccountID) (*models.Account, error)
	Get(ctx context.Context, id domain.AccountID) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// Handler exposes the account HTTP surface.
type Handler struct {
	service AccountService
	logger  *slog.Logger
}

func New(service AccountService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublicRoutes mounts the unauthenticated account endpoints.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.register)
}

// RegisterRoutes mounts the authenticated account endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts/me", h.me)
}

// RegisterApproverRoutes mounts the approver-only account endpoints.
func (h *Handler) RegisterApproverRoutes(r chi.Router) {
	r.Get("/accounts", h.list)
	r.Patch("/accounts/{accountID}/status", h.setStatus)
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
	PIN   string `json:"pin"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  req.Role,
		PIN:   req.PIN,
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "registration rejected", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := h.service.Get(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

type statusRequest struct {
	Action string `json:"action"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}
	var req statusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.service.SetStatus(ctx, id, service.StatusAction(req.Action), requestcontext.AccountID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "status transition rejected",
			"account_id", id,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}
