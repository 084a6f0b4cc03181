package config

import (
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Queues used by the launch service.
const (
	LaunchRequestQueue = "token_launch_requests"
	LaunchEventQueue   = "token_launch_events"
)

var RabbitMQ *amqp.Connection

// InitRabbitMQ dials the broker, retrying while it comes up.
func InitRabbitMQ() {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		os.Getenv("RABBITMQ_USER"),
		os.Getenv("RABBITMQ_PASSWORD"),
		os.Getenv("RABBITMQ_HOST"),
		os.Getenv("RABBITMQ_PORT"),
	)

	maxRetries := 10
	retryDelay := 3 * time.Second

	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			RabbitMQ = conn
			log.WithField("host", os.Getenv("RABBITMQ_HOST")).Info("Connected to RabbitMQ")
			return
		}

		if i < maxRetries-1 {
			log.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}

	log.Fatalf("Failed to connect to RabbitMQ after %d attempts: %v", maxRetries, err)
}

// RabbitMQEnabled reports whether broker settings are present.
func RabbitMQEnabled() bool {
	return os.Getenv("RABBITMQ_HOST") != ""
}

func declareQueue(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}
