package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pesa/internal/asset/models"
	"pesa/internal/asset/service"
	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
	"pesa/pkg/platform/httputil"
)

// AssetService is the slice of the asset service the handler needs.
type AssetService interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Resource, error)
	Restock(ctx context.Context, id domain.ResourceID, units int64) (*models.Resource, error)
	List(ctx context.Context) ([]models.Resource, error)
}

// Handler exposes the resource catalog over HTTP.
type Handler struct {
	service AssetService
	logger  *slog.Logger
}

func New(service AssetService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the authenticated catalog read.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/assets", h.list)
}

// RegisterApproverRoutes mounts catalog management endpoints.
func (h *Handler) RegisterApproverRoutes(r chi.Router) {
	r.Post("/assets", h.create)
	r.Post("/assets/{resourceID}/restock", h.restock)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	resources, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"resources": resources})
}

type createRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	resource, err := h.service.Create(r.Context(), service.CreateInput{
		Name:     req.Name,
		Quantity: req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resource)
}

type restockRequest struct {
	Units int64 `json:"units"`
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseResourceID(chi.URLParam(r, "resourceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid resource id"))
		return
	}
	var req restockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	resource, err := h.service.Restock(r.Context(), id, req.Units)
	if err != nil {
		h.logger.WarnContext(r.Context(), "restock rejected", "resource_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resource)
}
