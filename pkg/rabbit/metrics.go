package rabbit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConsumerMessagesProcessed counts the total number of successfully processed messages.
	ConsumerMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbit_consumer_messages_processed_total",
			Help: "Total number of successfully processed messages",
		},
		[]string{"queue", "routing_key"},
	)

	// ConsumerMessagesRejected counts messages nacked without requeue (dead-lettered
	// when the queue has a DLX, dropped otherwise).
	ConsumerMessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbit_consumer_messages_rejected_total",
			Help: "Total number of messages rejected without requeue",
		},
		[]string{"queue", "routing_key"},
	)

	// ConsumerMessagesRequeued counts messages nacked with requeue after a transient failure.
	ConsumerMessagesRequeued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbit_consumer_messages_requeued_total",
			Help: "Total number of messages returned to the queue for redelivery",
		},
		[]string{"queue", "routing_key"},
	)

	// ConsumerMessagesDuplicate counts messages skipped by the idempotency guard.
	ConsumerMessagesDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbit_consumer_messages_duplicate_total",
			Help: "Total number of duplicate messages skipped by the idempotency guard",
		},
		[]string{"queue", "routing_key"},
	)

	// ProducerMessagesPublished counts the total number of events published.
	ProducerMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbit_producer_messages_published_total",
			Help: "Total number of events published to the exchange",
		},
		[]string{"routing_key"},
	)

	// ProducerPublishErrors counts the total number of publish failures.
	ProducerPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbit_producer_publish_errors_total",
			Help: "Total number of publish errors",
		},
		[]string{"routing_key"},
	)

	// ReconnectsTotal counts broker reconnection attempts.
	ReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rabbit_reconnects_total",
			Help: "Total number of broker reconnection attempts",
		},
	)
)
