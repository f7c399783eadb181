package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/service"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/httputil"
)

// PaymentHandler handles HTTP requests for payment endpoints.
type PaymentHandler struct {
	service      *service.PaymentService
	circuitState func() gobreaker.State
	logger       *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, circuitState func() gobreaker.State, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:      svc,
		circuitState: circuitState,
		logger:       logger,
	}
}

// CircuitResponse is the JSON response describing the capture breaker.
type CircuitResponse struct {
	State string `json:"state"`
}

// ListCaptures handles GET /payments/{orderID}
func (h *PaymentHandler) ListCaptures(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}

	captures, err := h.service.ListCaptures(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: captures})
}

// Circuit handles GET /circuit, reporting the live breaker state.
func (h *PaymentHandler) Circuit(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CircuitResponse{
		State: h.circuitState().String(),
	}})
}
