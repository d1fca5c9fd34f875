package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/discover-nairobi/internal/queue"
)

// Publisher emits booking lifecycle messages.  Callers treat failures as
// non-fatal.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, event q.BookingCancelledEvent) error
}

// AMQPPublisher publishes persistent JSON messages to the default exchange
// with the queue name as routing key.  It dials per message, which keeps
// the publisher stateless across broker restarts.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

func (p *AMQPPublisher) PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error {
	return p.publish(ctx, q.BookingConfirmedQueue, event)
}

func (p *AMQPPublisher) PublishBookingCancelled(ctx context.Context, event q.BookingCancelledEvent) error {
	return p.publish(ctx, q.BookingCancelledQueue, event)
}

func (p *AMQPPublisher) publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal %s: %v", queue, err)
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare %s failed: %v", queue, err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish %s failed: %v", queue, err)
		return err
	}
	return nil
}

// NopPublisher drops every message.  It is used when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) PublishBookingConfirmed(context.Context, q.BookingConfirmedEvent) error {
	return nil
}

func (NopPublisher) PublishBookingCancelled(context.Context, q.BookingCancelledEvent) error {
	return nil
}
