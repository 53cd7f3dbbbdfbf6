package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher forwards events to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// NewAMQPPublisher dials url and declares exchange as a durable topic exchange.
func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger.With("component", "changefeed.amqp")}, nil
}

func dialExchange(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// Publish sends event with routing key "<table>.<action>". Failures are logged.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) {
	msg, err := encodeEvent(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode change event", "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish change event",
			"error", err,
			"routing_key", event.RoutingKey(),
		)
	}
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Relay consumes events from the exchange through a private queue and
// republishes them locally, so every instance's Hub sees every change.
type Relay struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewRelay binds an exclusive, auto-deleted queue to every routing key of exchange.
func NewRelay(url, exchange string, logger *slog.Logger) (*Relay, error) {
	conn, ch, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "#", exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{conn: conn, ch: ch, queue: q.Name, logger: logger.With("component", "changefeed.relay")}, nil
}

// Run forwards deliveries to target until ctx is done or the channel closes.
func (r *Relay) Run(ctx context.Context, target Publisher) error {
	deliveries, err := r.ch.ConsumeWithContext(ctx, r.queue, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			event, err := decodeEvent(d.Body)
			if err != nil {
				r.logger.WarnContext(ctx, "dropping malformed change event", "error", err, "routing_key", d.RoutingKey)
				continue
			}
			target.Publish(ctx, event)
		}
	}
}

// Close closes the channel and connection.
func (r *Relay) Close() error {
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func encodeEvent(event Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   event.At,
		Body:        body,
	}, nil
}

func decodeEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, err
	}
	if event.Table == "" || event.Action == "" {
		return Event{}, fmt.Errorf("event missing table or action")
	}
	return event, nil
}
