package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/albapepper/notify-engine/internal/notifications"
)

// Publisher is the part of *amqp.Channel the sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes each delivery as JSON to a topic exchange with the
// routing key notify.<group>.
type AMQPSink struct {
	pub      Publisher
	exchange string
	conn     *amqp.Connection
}

// DialAMQP connects, opens a channel and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	s := NewAMQPSink(ch, exchange)
	s.conn = conn
	return s, nil
}

// NewAMQPSink publishes through an existing channel.
func NewAMQPSink(pub Publisher, exchange string) *AMQPSink {
	return &AMQPSink{pub: pub, exchange: exchange}
}

// RoutingKey is the topic a delivery for g is published under.
func RoutingKey(g notifications.Group) string {
	return "notify." + string(g)
}

func (s *AMQPSink) Deliver(ctx context.Context, d notifications.Delivery) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode delivery: %w", err)
	}
	err = s.pub.PublishWithContext(ctx, s.exchange, RoutingKey(d.Group), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    d.ID,
		Timestamp:    d.At,
		Type:         string(d.Kind),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", d.ID, err)
	}
	return nil
}

// Close closes the connection opened by DialAMQP.
func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

var _ Sink = (*AMQPSink)(nil)
