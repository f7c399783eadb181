package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/events"
	invdomain "github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/domain"
	invevent "github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/event"
	invservice "github.com/Mary2201/ProyectoFinalIntegraHub/internal/inventory/service"
	orddomain "github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/domain"
	ordevent "github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/event"
	ordservice "github.com/Mary2201/ProyectoFinalIntegraHub/internal/orders/service"
	paydomain "github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/domain"
	payevent "github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/event"
	"github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/gateway"
	payservice "github.com/Mary2201/ProyectoFinalIntegraHub/internal/payments/service"
	"github.com/Mary2201/ProyectoFinalIntegraHub/pkg/rabbit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loopbackBus routes published events synchronously to the handlers bound to
// their routing key, standing in for the topic exchange.
type loopbackBus struct {
	handlers map[string][]rabbit.Handler
}

func newLoopbackBus() *loopbackBus {
	return &loopbackBus{handlers: map[string][]rabbit.Handler{}}
}

func (b *loopbackBus) bind(handler rabbit.Handler, routingKeys ...string) {
	for _, key := range routingKeys {
		b.handlers[key] = append(b.handlers[key], handler)
	}
}

func (b *loopbackBus) Publish(ctx context.Context, routingKey string, event *rabbit.Event) error {
	for _, handler := range b.handlers[routingKey] {
		if err := handler(ctx, routingKey, event); err != nil {
			return err
		}
	}
	return nil
}

// memOrderRepo is an in-memory order store with the same guarded resolve
// semantics as the real repository.
type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*orddomain.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[string]*orddomain.Order{}}
}

func (r *memOrderRepo) Create(_ context.Context, o *orddomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*orddomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, errors.New("order not found")
	}
	return o, nil
}

func (r *memOrderRepo) List(_ context.Context, limit int) ([]orddomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]orddomain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (r *memOrderRepo) ResolveByCorrelationID(_ context.Context, correlationID, status, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.CorrelationID == correlationID && o.Status == orddomain.StatusCreated {
			o.Status = status
			o.FailureReason = reason
			o.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// memStockRepo reserves against an in-memory stock table, all-or-nothing.
type memStockRepo struct {
	mu    sync.Mutex
	stock map[string]int
}

func newMemStockRepo(stock map[string]int) *memStockRepo {
	return &memStockRepo{stock: stock}
}

func (r *memStockRepo) Reserve(_ context.Context, lines []invdomain.ReservationLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range lines {
		if r.stock[line.Name] < line.Quantity {
			return invdomain.ErrInsufficientStock
		}
	}
	for _, line := range lines {
		r.stock[line.Name] -= line.Quantity
	}
	return nil
}

func (r *memStockRepo) GetByName(_ context.Context, name string) (*invdomain.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	available, ok := r.stock[name]
	if !ok {
		return nil, errors.New("item not found")
	}
	return &invdomain.StockItem{Name: name, Available: available}, nil
}

func (r *memStockRepo) Upsert(_ context.Context, item invdomain.StockItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[item.Name] = item.Available
	return nil
}

func (r *memStockRepo) List(_ context.Context) ([]invdomain.StockItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]invdomain.StockItem, 0, len(r.stock))
	for name, available := range r.stock {
		out = append(out, invdomain.StockItem{Name: name, Available: available})
	}
	return out, nil
}

// memCaptureRepo records capture attempts in memory.
type memCaptureRepo struct {
	mu       sync.Mutex
	captures []paydomain.Capture
}

func (r *memCaptureRepo) Save(_ context.Context, c *paydomain.Capture) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures = append(r.captures, *c)
	return nil
}

func (r *memCaptureRepo) ListByOrderID(_ context.Context, orderID string) ([]paydomain.Capture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []paydomain.Capture
	for _, c := range r.captures {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out, nil
}

// scriptedGateway answers with a fixed result or error.
type scriptedGateway struct {
	result *gateway.CaptureResult
	err    error
	calls  int
}

func (g *scriptedGateway) Capture(_ context.Context, _ gateway.CaptureInput) (*gateway.CaptureResult, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

// saga wires the three participants over a loopback bus with per-queue
// idempotency ledgers, mirroring the production topology.
type saga struct {
	orders    *ordservice.OrderService
	orderRepo *memOrderRepo
	stockRepo *memStockRepo
	captures  *memCaptureRepo
	gateway   *scriptedGateway
}

func newSaga(t *testing.T, stock map[string]int, gw *scriptedGateway) *saga {
	t.Helper()
	logger := testLogger()
	bus := newLoopbackBus()

	orderRepo := newMemOrderRepo()
	orderService := ordservice.NewOrderService(orderRepo, ordevent.NewProducer(bus, logger), logger)
	orderConsumer := ordevent.NewConsumer(orderService, logger)

	stockRepo := newMemStockRepo(stock)
	invSvc := invservice.NewInventoryService(stockRepo, invevent.NewProducer(bus, logger), logger)
	invConsumer := invevent.NewConsumer(invSvc, logger)

	captures := &memCaptureRepo{}
	paySvc := payservice.NewPaymentService(gw, captures, payevent.NewProducer(bus, logger), logger)
	payConsumer := payevent.NewConsumer(paySvc, logger)

	ledgerTTL := time.Minute
	bus.bind(
		rabbit.IdempotentHandler(invevent.QueueName, rabbit.NewMemoryIdempotencyStore(ledgerTTL), invConsumer.Handle, logger),
		invevent.Bindings()...,
	)
	bus.bind(
		rabbit.IdempotentHandler(payevent.QueueName, rabbit.NewMemoryIdempotencyStore(ledgerTTL), payConsumer.Handle, logger),
		payevent.Bindings()...,
	)
	bus.bind(
		rabbit.IdempotentHandler(ordevent.QueueName, rabbit.NewMemoryIdempotencyStore(ledgerTTL), orderConsumer.Handle, logger),
		ordevent.Bindings()...,
	)

	return &saga{
		orders:    orderService,
		orderRepo: orderRepo,
		stockRepo: stockRepo,
		captures:  captures,
		gateway:   gw,
	}
}

func placeOrder(t *testing.T, s *saga) *orddomain.Order {
	t.Helper()
	order, err := s.orders.CreateOrder(context.Background(), ordservice.CreateOrderInput{
		CustomerID: "cust-1",
		Items: []ordservice.CreateOrderItemInput{
			{Name: "widget", Price: 25.0, Quantity: 2},
		},
		TotalAmount: 50.0,
	})
	require.NoError(t, err)
	return order
}

func TestSagaHappyPathConfirmsOrder(t *testing.T) {
	gw := &scriptedGateway{result: &gateway.CaptureResult{
		TransactionID: "txn-1",
		Status:        gateway.StatusCaptured,
	}}
	s := newSaga(t, map[string]int{"widget": 10}, gw)

	order := placeOrder(t, s)

	final, err := s.orderRepo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orddomain.StatusConfirmed, final.Status)
	assert.Empty(t, final.FailureReason)

	// Stock was decremented and the gateway charged once.
	item, err := s.stockRepo.GetByName(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, 8, item.Available)
	assert.Equal(t, 1, gw.calls)

	captures, err := s.captures.ListByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, captures, 1)
	assert.Equal(t, gateway.StatusCaptured, captures[0].Status)
	assert.Equal(t, 50.0, captures[0].Amount)
}

func TestSagaInsufficientStockRejectsOrder(t *testing.T) {
	gw := &scriptedGateway{result: &gateway.CaptureResult{
		TransactionID: "txn-1",
		Status:        gateway.StatusCaptured,
	}}
	s := newSaga(t, map[string]int{"widget": 1}, gw)

	order := placeOrder(t, s)

	final, err := s.orderRepo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orddomain.StatusRejectedStock, final.Status)
	assert.Equal(t, invservice.ReasonInsufficientStock, final.FailureReason)

	// Payment never ran and stock is untouched.
	assert.Equal(t, 0, gw.calls)
	item, err := s.stockRepo.GetByName(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Available)
}

func TestSagaDeclinedPaymentRejectsOrder(t *testing.T) {
	gw := &scriptedGateway{result: &gateway.CaptureResult{
		Status: gateway.StatusDeclined,
		Reason: "card declined",
	}}
	s := newSaga(t, map[string]int{"widget": 10}, gw)

	order := placeOrder(t, s)

	final, err := s.orderRepo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orddomain.StatusRejectedPayment, final.Status)
	assert.Equal(t, "card declined", final.FailureReason)

	// Stock stays reserved; releasing it is a manual operation.
	item, err := s.stockRepo.GetByName(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, 8, item.Available)
}

func TestSagaDuplicateOutcomeDoesNotRegressOrder(t *testing.T) {
	gw := &scriptedGateway{result: &gateway.CaptureResult{
		TransactionID: "txn-1",
		Status:        gateway.StatusCaptured,
	}}
	s := newSaga(t, map[string]int{"widget": 10}, gw)

	order := placeOrder(t, s)

	// A late failure event for the same saga must not disturb settled state.
	late, err := rabbit.NewEvent(events.TypePaymentFailed, order.CorrelationID, events.PaymentFailed{
		OrderID: order.ID,
		Reason:  "late duplicate",
	})
	require.NoError(t, err)

	logger := testLogger()
	consumer := ordevent.NewConsumer(s.orders, logger)
	require.NoError(t, consumer.Handle(context.Background(), events.RoutingKeyPaymentFailed, late))

	final, err := s.orderRepo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, orddomain.StatusConfirmed, final.Status)
	assert.Empty(t, final.FailureReason)
}
