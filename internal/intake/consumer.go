package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/resocorp/jollofexpress-sub000/internal/config"
	"github.com/resocorp/jollofexpress-sub000/internal/db"
	"github.com/resocorp/jollofexpress-sub000/internal/queue"
	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

const reconnectDelay = 5 * time.Second

// Consumer listens for printable orders on the message broker and feeds
// them into the print queue. This is the "notify on new job" mechanism: the
// broker delivers each order once, so the queue never needs to be polled
// for discovery, only for retries.
type Consumer struct {
	cfg       config.IntakeConfig
	orders    *db.OrderStore
	processor *queue.Processor
}

func NewConsumer(cfg config.IntakeConfig, orders *db.OrderStore, processor *queue.Processor) *Consumer {
	if cfg.Prefetch < 1 {
		cfg.Prefetch = 1
	}
	return &Consumer{
		cfg:       cfg,
		orders:    orders,
		processor: processor,
	}
}

// Run consumes until the context is canceled, reconnecting on broker
// failures.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		err := c.consume(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}

		log.Printf("[intake] consumer stopped: %v, reconnecting in %s", err, reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.AMQPURL)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	if err := ch.ExchangeDeclare(
		c.cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		c.cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, c.cfg.RoutingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	log.Printf("[intake] listening on queue %s", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			if err := c.handleOrder(ctx, msg.Body); err != nil {
				log.Printf("[intake] failed to handle order: %v", err)
				// Malformed payloads are rejected without requeue; a
				// broker redelivery would fail identically.
				if isPermanent(err) {
					_ = msg.Reject(false)
				} else {
					_ = msg.Nack(false, true)
				}
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

func (c *Consumer) handleOrder(ctx context.Context, body []byte) error {
	var order receipt.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return fmt.Errorf("invalid order payload: %w", err)
	}

	r, err := receipt.FromOrder(&order)
	if err != nil {
		// Construction errors never enqueue a job.
		return fmt.Errorf("cannot build receipt for order %s: %w", order.OrderNumber, err)
	}

	if err := c.orders.CreateOrder(ctx, &db.Order{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Payload:     string(body),
	}); err != nil {
		return err
	}

	job, err := c.processor.Enqueue(ctx, order.ID, r)
	if err != nil {
		return err
	}
	log.Printf("[intake] enqueued job %s for order %s", job.ID, order.OrderNumber)

	result := c.processor.TriggerImmediatePrint(ctx, order.ID)
	log.Printf("[intake] immediate print for order %s: %s", order.OrderNumber, result.Status)

	return nil
}

func isPermanent(err error) bool {
	var missing *receipt.MissingFieldError
	if errors.As(err, &missing) {
		return true
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
