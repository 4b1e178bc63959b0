package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPPublisher mirrors context changes onto a topic exchange so
// services outside this process can follow the rep's deal context
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	logger   zerolog.Logger
}

// DialAMQP connects to the broker and declares the topic exchange
func DialAMQP(url, exchange string, logger zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info().Str("exchange", exchange).Msg("amqp publisher connected")
	return &AMQPPublisher{conn: conn, exchange: exchange, logger: logger}, nil
}

// Publish sends body as JSON under the routing key. A fresh channel per
// publish keeps a broker-side channel error from poisoning later calls.
func (p *AMQPPublisher) Publish(ctx context.Context, key string, body any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType: "application/json",
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		Body:        data,
	})
}

// Close shuts the broker connection
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}
