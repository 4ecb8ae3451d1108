package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pesa/internal/request/models"
	"pesa/internal/request/service"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/httputil"
	"pesa/pkg/requestcontext"
)

// WorkflowService is the slice of the workflow service the handler needs.
type WorkflowService interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Request, error)
	Resolve(ctx context.Context, id domain.RequestID, action service.ResolveAction, resolver domain.AccountID) (*models.Request, error)
	Cancel(ctx context.Context, id domain.RequestID, requester domain.AccountID) (*models.Request, error)
	Return(ctx context.Context, id domain.RequestID, resolver domain.AccountID) (*models.Request, error)
	ListPending(ctx context.Context, counterparty domain.AccountID) ([]models.Request, error)
	ListByRequester(ctx context.Context, requester domain.AccountID) ([]models.Request, error)
}

// Handler exposes the request workflow over HTTP.
type Handler struct {
	service WorkflowService
	logger  *slog.Logger
}

func New(service WorkflowService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the authenticated workflow endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/requests", h.create)
	r.Get("/requests", h.listPending)
	r.Get("/requests/mine", h.listMine)
	r.Post("/requests/{requestID}/resolve", h.resolve)
	r.Post("/requests/{requestID}/cancel", h.cancel)
	r.Post("/requests/{requestID}/return", h.returnAsset)
}

type createRequest struct {
	CounterpartyPhone string `json:"counterparty_phone"`
	Kind              string `json:"kind"`
	Amount            int64  `json:"amount,omitempty"`
	ResourceID        string `json:"resource_id,omitempty"`
	PIN               string `json:"pin"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.Create(ctx, service.CreateInput{
		Requester:         requestcontext.AccountID(ctx),
		CounterpartyPhone: req.CounterpartyPhone,
		Kind:              req.Kind,
		Amount:            req.Amount,
		ResourceID:        req.ResourceID,
		PIN:               req.PIN,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "request creation rejected", "kind", req.Kind, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.service.ListPending(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requests, err := h.service.ListByRequester(ctx, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

type resolveRequest struct {
	Action string `json:"action"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}
	var req resolveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.Resolve(ctx, id, service.ResolveAction(req.Action), requestcontext.AccountID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "resolution rejected",
			"request_id", id,
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}
	request, err := h.service.Cancel(ctx, id, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) returnAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}
	request, err := h.service.Return(ctx, id, requestcontext.AccountID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, request)
}
