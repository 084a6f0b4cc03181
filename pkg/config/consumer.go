package config

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Consumer reads messages from one durable queue with manual acks.
type Consumer struct {
	channel *amqp.Channel
	queue   string
}

func NewConsumer(queueName string) (*Consumer, error) {
	if RabbitMQ == nil {
		return nil, fmt.Errorf("RabbitMQ connection not initialized")
	}

	ch, err := RabbitMQ.Channel()
	if err != nil {
		return nil, err
	}

	q, err := declareQueue(ch, queueName)
	if err != nil {
		return nil, err
	}

	// One launch at a time per worker; each one holds a payer lock.
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, err
	}

	return &Consumer{channel: ch, queue: q.Name}, nil
}

// Consume blocks, dispatching deliveries to handler until ctx is done or
// the channel closes. A handler error requeues the message only when
// requeue reports true for it.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, []byte) error, requeue func(error) bool) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return err
	}

	log.WithField("queue", c.queue).Info("Consumer is running")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel for %s closed", c.queue)
			}
			if err := handler(ctx, msg.Body); err != nil {
				retry := requeue != nil && requeue(err)
				log.WithError(err).WithField("requeue", retry).Error("Handle msg failed")
				msg.Nack(false, retry)
				continue
			}
			msg.Ack(false)
		}
	}
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
