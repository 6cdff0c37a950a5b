package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-seat-allocation/internal/queue"
)

// Publisher announces committed allocation runs.
type Publisher interface {
	PublishAllocated(ctx context.Context, ev queue.AllocationCompletedEvent) error
}

// AMQPPublisher publishes to the seating.allocated queue.  Each call dials
// its own connection.
type AMQPPublisher struct {
	url string
}

// NewAMQPPublisher creates a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url}
}

// PublishAllocated sends ev as a persistent JSON message.  Errors are
// returned for the caller to log.
func (p *AMQPPublisher) PublishAllocated(ctx context.Context, ev queue.AllocationCompletedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.AllocatedQueue, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.RunID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                   // default exchange
		queue.AllocatedQueue, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishAllocated implements Publisher.
func (NopPublisher) PublishAllocated(context.Context, queue.AllocationCompletedEvent) error {
	return nil
}
