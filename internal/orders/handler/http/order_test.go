package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/event"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/service"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/httputil"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ResolveByCorrelationID(ctx context.Context, correlationID, status, reason string) (bool, error) {
	args := m.Called(ctx, correlationID, status, reason)
	return args.Bool(0), args.Error(1)
}

type capturingPublisher struct {
	keys []string
}

func (p *capturingPublisher) Publish(_ context.Context, routingKey string, _ *rabbit.Event) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

func newTestRouter(repo *mockOrderRepository, pub *capturingPublisher) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewOrderService(repo, event.NewProducer(pub, logger), logger)
	h := NewOrderHandler(svc, logger)

	r := chi.NewRouter()
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)
	return r
}

func TestCreateOrderHTTP(t *testing.T) {
	repo := &mockOrderRepository{}
	pub := &capturingPublisher{}
	router := newTestRouter(repo, pub)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	body, _ := json.Marshal(map[string]any{
		"customer_id":  "cust-1",
		"items":        []map[string]any{{"name": "widget", "price": 10.0, "quantity": 2}},
		"total_amount": 20.0,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data CreateOrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.OrderID)
	assert.NotEmpty(t, resp.Data.CorrelationID)
	assert.Equal(t, domain.StatusCreated, resp.Data.Status)

	assert.Equal(t, []string{"order.created"}, pub.keys)
	repo.AssertExpectations(t)
}

func TestCreateOrderHTTPInvalidBody(t *testing.T) {
	router := newTestRouter(&mockOrderRepository{}, &capturingPublisher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderHTTPValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing customer_id", map[string]any{
			"items":        []map[string]any{{"name": "widget", "price": 10.0, "quantity": 2}},
			"total_amount": 20.0,
		}},
		{"no items", map[string]any{
			"customer_id":  "cust-1",
			"items":        []map[string]any{},
			"total_amount": 20.0,
		}},
		{"zero total", map[string]any{
			"customer_id": "cust-1",
			"items":       []map[string]any{{"name": "widget", "price": 10.0, "quantity": 2}},
		}},
		{"zero quantity", map[string]any{
			"customer_id":  "cust-1",
			"items":        []map[string]any{{"name": "widget", "price": 10.0, "quantity": 0}},
			"total_amount": 20.0,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			pub := &capturingPublisher{}
			router := newTestRouter(repo, pub)

			body, _ := json.Marshal(tt.body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, pub.keys, "no event may be published for a rejected request")
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestGetOrderHTTP(t *testing.T) {
	repo := &mockOrderRepository{}
	router := newTestRouter(repo, &capturingPublisher{})

	const id = "7f6f2c8e-9a64-4b5c-b3b6-6f2f0a9d1e11"
	repo.On("GetByID", mock.Anything, id).Return(&domain.Order{
		ID:     id,
		Status: domain.StatusConfirmed,
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusConfirmed, resp.Data.Status)
	repo.AssertExpectations(t)
}

func TestGetOrderHTTPInvalidID(t *testing.T) {
	repo := &mockOrderRepository{}
	router := newTestRouter(repo, &capturingPublisher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetOrderHTTPNotFound(t *testing.T) {
	repo := &mockOrderRepository{}
	router := newTestRouter(repo, &capturingPublisher{})

	const id = "7f6f2c8e-9a64-4b5c-b3b6-6f2f0a9d1e11"
	repo.On("GetByID", mock.Anything, id).Return(nil, apperrors.NotFound("order", id))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp httputil.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestListOrdersHTTP(t *testing.T) {
	repo := &mockOrderRepository{}
	router := newTestRouter(repo, &capturingPublisher{})

	repo.On("List", mock.Anything, 5).Return([]domain.Order{{ID: "a"}, {ID: "b"}}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestListOrdersHTTPBadLimit(t *testing.T) {
	repo := &mockOrderRepository{}
	router := newTestRouter(repo, &capturingPublisher{})

	for _, limit := range []string{"0", "101", "abc"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?limit="+limit, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
