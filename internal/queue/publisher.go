package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cinepass/reservation-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	reservationCreatedQueue   = "reservation.created"
	reservationCancelledQueue = "reservation.cancelled"
)

// AMQPPublisher publishes reservation events to RabbitMQ. Downstream
// consumers (notification and analytics services) own what happens next;
// this service only guarantees a durable message per committed booking
// or cancellation.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Declarations are idempotent. Durable queues so events survive broker restarts.
	for _, name := range []string{reservationCreatedQueue, reservationCancelledQueue} {
		_, err := channel.QueueDeclare(name, true, false, false, false, nil)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, err
		}
	}

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
	}, nil
}

func (p *AMQPPublisher) PublishReservationCreated(ctx context.Context, event domain.ReservationEvent) error {
	return p.publish(ctx, reservationCreatedQueue, event)
}

func (p *AMQPPublisher) PublishReservationCancelled(ctx context.Context, event domain.ReservationEvent) error {
	return p.publish(ctx, reservationCancelledQueue, event)
}

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, event domain.ReservationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	return p.channel.PublishWithContext(ctx, "", queueName, false, false, msg)
}

func (p *AMQPPublisher) Close() error {
	return errors.Join(p.channel.Close(), p.conn.Close())
}

// NoopPublisher is used when no broker URL is configured and in tests.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (NoopPublisher) PublishReservationCreated(ctx context.Context, event domain.ReservationEvent) error {
	return nil
}

func (NoopPublisher) PublishReservationCancelled(ctx context.Context, event domain.ReservationEvent) error {
	return nil
}
