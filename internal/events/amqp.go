package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// confirmation is the broker's answer to one published message.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type confirmChannel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

// AMQPPublisher publishes to a topic exchange with publisher confirms; the
// subject is used as routing key. Each publish waits for the confirmation
// matching its own delivery tag.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       confirmChannel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: enable publisher confirms: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: amqpChannel{ch}, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, subject string, payload any) error {
	body, err := encode(subject, payload)
	if err != nil {
		return err
	}

	conf, err := p.ch.publish(ctx, p.exchange, subject, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
		Headers:      amqp.Table{"x-source": "pos-service"},
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}

	ack, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("events: wait for confirm of %s: %w", subject, err)
	}
	if !ack {
		return fmt.Errorf("events: broker rejected %s", subject)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}
