package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/event"
	apperrors "github.com/Mary2201/ProyectoFinalIntegraHub/pkg/errors"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	created    []*domain.Order
	createErr  error
	resolved   []string
	resolveOK  bool
	resolveErr error
	orders     map[string]*domain.Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[string]*domain.Order{}, resolveOK: true}
}

func (r *fakeRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, o)
	r.orders[o.ID] = o
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	return o, nil
}

func (r *fakeRepo) List(_ context.Context, limit int) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRepo) ResolveByCorrelationID(_ context.Context, correlationID, status, reason string) (bool, error) {
	if r.resolveErr != nil {
		return false, r.resolveErr
	}
	r.resolved = append(r.resolved, correlationID+":"+status)
	return r.resolveOK, nil
}

type fakePublisher struct {
	published  []publishedEvent
	publishErr error
}

type publishedEvent struct {
	routingKey string
	event      *rabbit.Event
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, event *rabbit.Event) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.published = append(p.published, publishedEvent{routingKey: routingKey, event: event})
	return nil
}

func newService(repo *fakeRepo, pub *fakePublisher) *OrderService {
	producer := event.NewProducer(pub, testLogger())
	return NewOrderService(repo, producer, testLogger())
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerID: "cust-1",
		Items: []CreateOrderItemInput{
			{Name: "widget", Price: 10.0, Quantity: 2},
		},
		TotalAmount: 20.0,
	}
}

func TestCreateOrder(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := newService(repo, pub)

	order, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.NotEmpty(t, order.CorrelationID)
	assert.Equal(t, domain.StatusCreated, order.Status)
	assert.Len(t, repo.created, 1)

	require.Len(t, pub.published, 1)
	assert.Equal(t, events.RoutingKeyOrderCreated, pub.published[0].routingKey)
	assert.Equal(t, order.CorrelationID, pub.published[0].event.CorrelationID)

	var data events.OrderCreated
	require.NoError(t, pub.published[0].event.UnmarshalData(&data))
	assert.Equal(t, order.ID, data.OrderID)
	assert.Equal(t, "cust-1", data.CustomerID)
	assert.Equal(t, 20.0, data.TotalAmount)
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"missing customer", func(in *CreateOrderInput) { in.CustomerID = "" }},
		{"no items", func(in *CreateOrderInput) { in.Items = nil }},
		{"zero total", func(in *CreateOrderInput) { in.TotalAmount = 0 }},
		{"zero quantity", func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc := newService(repo, &fakePublisher{})

			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreateOrder(context.Background(), input)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "INVALID_INPUT", appErr.Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestCreateOrderRepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("connection refused")
	pub := &fakePublisher{}
	svc := newService(repo, pub)

	_, err := svc.CreateOrder(context.Background(), validInput())
	require.Error(t, err)
	assert.Empty(t, pub.published, "no event may be published for an unsaved order")
}

func TestCreateOrderPublishFailureStillSucceeds(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{publishErr: errors.New("broker down")}
	svc := newService(repo, pub)

	order, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, order.Status)
	assert.Len(t, repo.created, 1)
}

func TestResolveOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakePublisher{})

	err := svc.ResolveOrder(context.Background(), "corr-1", domain.StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"corr-1:" + domain.StatusConfirmed}, repo.resolved)
}

func TestResolveOrderRejectsNonTerminalStatus(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakePublisher{})

	err := svc.ResolveOrder(context.Background(), "corr-1", domain.StatusCreated, "")
	require.Error(t, err)
	assert.Empty(t, repo.resolved)

	err = svc.ResolveOrder(context.Background(), "corr-1", "PENDING", "")
	require.Error(t, err)
}

func TestResolveOrderUnknownCorrelationIsNoop(t *testing.T) {
	repo := newFakeRepo()
	repo.resolveOK = false
	svc := newService(repo, &fakePublisher{})

	err := svc.ResolveOrder(context.Background(), "corr-unknown", domain.StatusRejectedStock, "insufficient stock")
	assert.NoError(t, err)
}

func TestResolveOrderRepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.resolveErr = errors.New("connection refused")
	svc := newService(repo, &fakePublisher{})

	err := svc.ResolveOrder(context.Background(), "corr-1", domain.StatusConfirmed, "")
	assert.Error(t, err)
}

func TestListOrdersClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, &fakePublisher{})

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(context.Background(), validInput())
		require.NoError(t, err)
	}

	orders, err := svc.ListOrders(context.Background(), -5)
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	orders, err = svc.ListOrders(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
