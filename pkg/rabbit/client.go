package rabbit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes a single event. The routing key carries the event's
// position in the saga (order.created, inventory.reserved, ...).
//
// The returned error drives acknowledgement:
//   - nil: the message is acked.
//   - wraps ErrRequeue: the message is nacked with requeue (transient failure).
//   - anything else: the message is nacked without requeue, which dead-letters
//     it when the queue declares a DLX.
type Handler func(ctx context.Context, routingKey string, event *Event) error

// Publisher is the producing side of the client, narrowed for services that
// only emit events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event *Event) error
}

// Config holds broker connection and topology configuration. Every service
// declares the same exchange and dead-letter topology so startup order does
// not matter.
type Config struct {
	URL                string
	Exchange           string
	DeadLetterExchange string
	DeadLetterQueue    string
	ReconnectWait      time.Duration
}

// DefaultConfig returns the standard event bus topology.
func DefaultConfig(url string) Config {
	return Config{
		URL:                url,
		Exchange:           "integrahub.events",
		DeadLetterExchange: "integrahub.dlx",
		DeadLetterQueue:    "payments_dlq",
		ReconnectWait:      5 * time.Second,
	}
}

// QueueConfig describes one consuming queue and its bindings.
type QueueConfig struct {
	Name       string
	Bindings   []string
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	AutoAck    bool
	// DeadLetter declares the queue with an x-dead-letter-exchange argument so
	// rejected messages are routed to the dead-letter topology.
	DeadLetter bool
}

// ParticipantQueue returns the configuration for a named durable queue with
// manual acknowledgement, the shape used by saga participants.
func ParticipantQueue(name string, bindings ...string) QueueConfig {
	return QueueConfig{
		Name:     name,
		Bindings: bindings,
		Durable:  true,
	}
}

// ObserverQueue returns the configuration for a server-named exclusive queue
// bound to every event. Observers auto-ack: they are best-effort fan-out and
// must never hold up the saga.
func ObserverQueue() QueueConfig {
	return QueueConfig{
		Bindings:   []string{"#"},
		Exclusive:  true,
		AutoDelete: true,
		AutoAck:    true,
	}
}

type subscription struct {
	queue   QueueConfig
	handler Handler
}

// Client owns one AMQP connection shared by the service's publisher and
// consumers. Run supervises the connection and re-establishes the full
// topology after any broker failure.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	conn   *amqp.Connection
	pubCh  *amqp.Channel
	subs   []subscription
	closed bool
}

// NewClient creates a broker client. Call Subscribe before Run; Run declares
// the topology and starts the consumers.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 5 * time.Second
	}
	return &Client{cfg: cfg, logger: logger}
}

// Subscribe registers a queue and its handler. Must be called before Run.
func (c *Client) Subscribe(queue QueueConfig, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, subscription{queue: queue, handler: handler})
}

// Publish sends an event to the topic exchange under the given routing key.
// Messages are persistent and carry the correlation ID as broker metadata.
func (c *Client) Publish(ctx context.Context, routingKey string, event *Event) error {
	c.mu.RLock()
	ch := c.pubCh
	c.mu.RUnlock()

	if ch == nil {
		ProducerPublishErrors.WithLabelValues(routingKey).Inc()
		return ErrNotConnected
	}

	body, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = ch.PublishWithContext(ctx, c.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     event.EventID,
		CorrelationId: event.CorrelationID,
		Timestamp:     event.Timestamp,
		Type:          event.EventType,
		Body:          body,
	})
	if err != nil {
		ProducerPublishErrors.WithLabelValues(routingKey).Inc()
		c.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("routing_key", routingKey),
			slog.String("event_type", event.EventType),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	ProducerMessagesPublished.WithLabelValues(routingKey).Inc()
	c.logger.DebugContext(ctx, "event published",
		slog.String("routing_key", routingKey),
		slog.String("event_type", event.EventType),
		slog.String("correlation_id", event.CorrelationID),
	)
	return nil
}

// Ready reports whether the broker connection is currently established.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pubCh != nil
}

// Run connects to the broker and blocks until ctx is canceled, reconnecting
// after connection loss with a fixed wait. The saga tolerates broker outages
// of any length: durable queues buffer events until consumers return.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		ReconnectsTotal.Inc()
		c.logger.Warn("broker connection lost, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("wait", c.cfg.ReconnectWait),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectWait):
		}
	}
}

// runOnce establishes one connection, declares the topology, starts the
// consumers and waits for either ctx cancellation or connection loss.
func (c *Client) runOnce(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.declareTopology(pubCh); err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.pubCh = pubCh
	subs := c.subs
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.pubCh = nil
		c.mu.Unlock()
	}()

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, sub := range subs {
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open consumer channel: %w", err)
		}
		deliveries, err := c.startConsumer(ch, sub.queue)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func(sub subscription, deliveries <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range deliveries {
				c.dispatch(consumeCtx, sub, d)
			}
		}(sub, deliveries)
	}

	c.logger.Info("broker connected",
		slog.String("exchange", c.cfg.Exchange),
		slog.Int("consumers", len(subs)),
	)

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	select {
	case <-ctx.Done():
		conn.Close()
		wg.Wait()
		return nil
	case amqpErr := <-closed:
		cancel()
		wg.Wait()
		if amqpErr != nil {
			return amqpErr
		}
		return errors.New("connection closed")
	}
}

// declareTopology declares the topic exchange and the dead-letter exchange
// plus its catch-all queue. All declarations are idempotent.
func (c *Client) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.cfg.Exchange, err)
	}
	if c.cfg.DeadLetterExchange == "" {
		return nil
	}
	if err := ch.ExchangeDeclare(c.cfg.DeadLetterExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange %s: %w", c.cfg.DeadLetterExchange, err)
	}
	if c.cfg.DeadLetterQueue != "" {
		if _, err := ch.QueueDeclare(c.cfg.DeadLetterQueue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare dead-letter queue %s: %w", c.cfg.DeadLetterQueue, err)
		}
		if err := ch.QueueBind(c.cfg.DeadLetterQueue, "#", c.cfg.DeadLetterExchange, false, nil); err != nil {
			return fmt.Errorf("bind dead-letter queue %s: %w", c.cfg.DeadLetterQueue, err)
		}
	}
	return nil
}

// startConsumer declares the queue, binds it and begins consuming. Manual-ack
// consumers are limited to one unacknowledged message so redeliveries stay
// ordered per participant.
func (c *Client) startConsumer(ch *amqp.Channel, q QueueConfig) (<-chan amqp.Delivery, error) {
	var args amqp.Table
	if q.DeadLetter && c.cfg.DeadLetterExchange != "" {
		args = amqp.Table{"x-dead-letter-exchange": c.cfg.DeadLetterExchange}
	}

	declared, err := ch.QueueDeclare(q.Name, q.Durable, q.AutoDelete, q.Exclusive, false, args)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", q.Name, err)
	}

	for _, binding := range q.Bindings {
		if err := ch.QueueBind(declared.Name, binding, c.cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind queue %s to %s: %w", declared.Name, binding, err)
		}
	}

	if !q.AutoAck {
		if err := ch.Qos(1, 0, false); err != nil {
			return nil, fmt.Errorf("set qos on %s: %w", declared.Name, err)
		}
	}

	deliveries, err := ch.Consume(declared.Name, "", q.AutoAck, q.Exclusive, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume from %s: %w", declared.Name, err)
	}
	return deliveries, nil
}

// dispatch runs the handler for one delivery and acknowledges according to
// the returned error classification.
func (c *Client) dispatch(ctx context.Context, sub subscription, d amqp.Delivery) {
	queue := sub.queue.Name
	event, err := UnmarshalEvent(d.Body)
	if err != nil {
		c.logger.Error("failed to unmarshal event, rejecting",
			slog.String("queue", queue),
			slog.String("routing_key", d.RoutingKey),
			slog.String("error", err.Error()),
		)
		ConsumerMessagesRejected.WithLabelValues(queue, d.RoutingKey).Inc()
		if !sub.queue.AutoAck {
			c.nack(d, false)
		}
		return
	}

	err = sub.handler(ctx, d.RoutingKey, event)
	if sub.queue.AutoAck {
		if err != nil {
			c.logger.Error("observer handler failed",
				slog.String("queue", queue),
				slog.String("routing_key", d.RoutingKey),
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	switch {
	case err == nil:
		ConsumerMessagesProcessed.WithLabelValues(queue, d.RoutingKey).Inc()
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack message", slog.String("queue", queue), slog.String("error", ackErr.Error()))
		}
	case errors.Is(err, ErrRequeue):
		ConsumerMessagesRequeued.WithLabelValues(queue, d.RoutingKey).Inc()
		c.logger.Warn("transient handler failure, requeueing",
			slog.String("queue", queue),
			slog.String("routing_key", d.RoutingKey),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		c.nack(d, true)
	default:
		ConsumerMessagesRejected.WithLabelValues(queue, d.RoutingKey).Inc()
		c.logger.Error("handler failed, rejecting message",
			slog.String("queue", queue),
			slog.String("routing_key", d.RoutingKey),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		c.nack(d, false)
	}
}

func (c *Client) nack(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("failed to nack message",
			slog.String("routing_key", d.RoutingKey),
			slog.String("error", err.Error()),
		)
	}
}

func errString(err error) string {
	if err == nil {
		return "connection closed"
	}
	return err.Error()
}
