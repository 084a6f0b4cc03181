package config

import (
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Publisher writes JSON messages to durable queues.
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	declared map[string]bool
}

// NewPublisher opens a channel on the shared RabbitMQ connection.
func NewPublisher() (*Publisher, error) {
	if RabbitMQ == nil {
		return nil, fmt.Errorf("RabbitMQ connection not initialized")
	}

	ch, err := RabbitMQ.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Publisher{channel: ch, declared: make(map[string]bool)}, nil
}

// Publish marshals message and sends it persistently to queueName.
func (p *Publisher) Publish(queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[queueName] {
		if _, err := declareQueue(p.channel, queueName); err != nil {
			return fmt.Errorf("failed to declare queue: %w", err)
		}
		p.declared[queueName] = true
	}

	err = p.channel.Publish(
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.WithFields(log.Fields{"queue": queueName, "bytes": len(body)}).Debug("Published message")
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
