package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/service"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/httputil"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/validator"
)

// InventoryHandler handles HTTP requests for stock endpoints. The saga reacts
// only to events; these endpoints exist for seeding and operations.
type InventoryHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory HTTP handler.
func NewInventoryHandler(svc *service.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		logger:  logger,
	}
}

// SetStockRequest is the JSON request body for setting a stock level.
type SetStockRequest struct {
	Available int `json:"available" validate:"gte=0"`
}

// ListStock handles GET /stock
func (h *InventoryHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListStock(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}

// GetStock handles GET /stock/{name}
func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetStock(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}

// SetStock handles PUT /stock/{name}
func (h *InventoryHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item := domain.StockItem{
		Name:      chi.URLParam(r, "name"),
		Available: req.Available,
	}

	if err := h.service.SetStock(r.Context(), item); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: item})
}
