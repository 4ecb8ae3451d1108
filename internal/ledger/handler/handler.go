package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pesa/internal/ledger/models"
	"pesa/internal/ledger/service"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/httputil"
	"pesa/pkg/requestcontext"
)

// LedgerService is the slice of the ledger service the handler needs.
type LedgerService interface {
	Transfer(ctx context.Context, in service.TransferInput) (*models.Transaction, error)
	History(ctx context.Context, id domain.AccountID, limit int) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit int) ([]models.Transaction, error)
}

// Handler exposes the wallet HTTP surface.
type Handler struct {
	service LedgerService
	logger  *slog.Logger
}

func New(service LedgerService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the authenticated wallet endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/wallet/transfer", h.transfer)
	r.Get("/wallet/transactions", h.history)
}

// RegisterApproverRoutes mounts the approver-only log read.
func (h *Handler) RegisterApproverRoutes(r chi.Router) {
	r.Get("/wallet/transactions/all", h.listAll)
}

type transferRequest struct {
	To      string `json:"to,omitempty"`
	ToPhone string `json:"to_phone,omitempty"`
	Amount  int64  `json:"amount"`
	PIN     string `json:"pin"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req transferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	in := service.TransferInput{
		From:    requestcontext.AccountID(ctx),
		ToPhone: req.ToPhone,
		Amount:  req.Amount,
		PIN:     req.PIN,
	}
	if req.To != "" {
		to, err := domain.ParseAccountID(req.To)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid destination account id"))
			return
		}
		in.To = to
	}

	t, err := h.service.Transfer(ctx, in)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"from", in.From,
			"amount", in.Amount,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ts, err := h.service.History(ctx, requestcontext.AccountID(ctx), parseLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": ts})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	ts, err := h.service.ListAll(r.Context(), parseLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": ts})
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
