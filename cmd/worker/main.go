package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logrus "github.com/sirupsen/logrus"

	"tokenlaunch/internal/app"
	"tokenlaunch/internal/launch"
	"tokenlaunch/pkg/config"
)

// maxLaunchAttempts caps how often a request with a retryable failure
// is run before it is dropped.
const maxLaunchAttempts = 3

var (
	// errMalformed marks messages that can never be processed.
	errMalformed = errors.New("malformed launch request")
	// errRequeue marks deliveries the broker should hand out again.
	errRequeue = errors.New("launch retry could not be scheduled")

	retryBackoff = 5 * time.Second
)

type launchRunner interface {
	Launch(ctx context.Context, intent launch.Intent) (*launch.Result, error)
}

type retryPublisher interface {
	Publish(queueName string, message interface{}) error
}

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(config.LogLevel())

	cfg, err := config.LoadLaunchConfig()
	if err != nil {
		logrus.Fatal("Invalid launch configuration: ", err)
	}

	config.InitDB()

	config.InitRabbitMQ()
	defer config.RabbitMQ.Close()

	publisher, err := config.NewPublisher()
	if err != nil {
		logrus.Fatal("Failed to create publisher: ", err)
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, config.DB, publisher)
	if err != nil {
		logrus.Fatal("Failed to set up launch services: ", err)
	}
	defer services.Close()

	msgConsumer, err := config.NewConsumer(config.LaunchRequestQueue)
	if err != nil {
		logrus.Fatal("Failed to create consumer: ", err)
	}
	defer msgConsumer.Close()

	logrus.WithField("network", cfg.Network).Info("Token launch worker started, waiting for messages...")

	err = msgConsumer.Consume(ctx, func(ctx context.Context, body []byte) error {
		return handleLaunchRequest(ctx, services.Launcher, publisher, body)
	}, shouldRequeue)
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatal("Consumer stopped: ", err)
	}
	logrus.Info("Token launch worker stopped")
}

func handleLaunchRequest(ctx context.Context, launcher launchRunner, retries retryPublisher, body []byte) error {
	var msg launch.QueuedRequest
	if err := json.Unmarshal(body, &msg); err != nil {
		logrus.Errorf("Failed to unmarshal message: %v", err)
		return errMalformed
	}

	entry := logrus.WithFields(logrus.Fields{
		"request_id": msg.RequestID,
		"attempt":    msg.Attempt + 1,
	})

	intent, err := msg.Intent.ToIntent()
	if err != nil {
		entry.WithError(err).Error("Rejected launch request")
		return err
	}

	result, err := launcher.Launch(ctx, intent)
	if err != nil {
		entry.WithError(err).WithField("kind", launch.KindOf(err)).Error("Queued launch failed")
		if !shouldRetry(msg.Attempt, err) {
			return err
		}
		return scheduleRetry(ctx, retries, msg, retryBackoff<<msg.Attempt)
	}

	entry.WithFields(logrus.Fields{
		"mint":      result.Mint,
		"signature": result.Signature(),
	}).Info("Queued launch completed")
	return nil
}

// shouldRetry reports whether a request that failed with err on its
// attempt-th earlier run gets another run.
func shouldRetry(attempt int, err error) bool {
	return launch.KindOf(err).Retryable() && attempt+1 < maxLaunchAttempts
}

// scheduleRetry waits delay and republishes msg with its attempt raised.
func scheduleRetry(ctx context.Context, retries retryPublisher, msg launch.QueuedRequest, delay time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", errRequeue, ctx.Err())
	case <-time.After(delay):
	}

	msg.Attempt++
	if err := retries.Publish(config.LaunchRequestQueue, msg); err != nil {
		return fmt.Errorf("%w: %v", errRequeue, err)
	}
	logrus.WithFields(logrus.Fields{
		"request_id": msg.RequestID,
		"attempt":    msg.Attempt + 1,
	}).Info("Queued launch scheduled for retry")
	return nil
}

// shouldRequeue hands a delivery back to the broker only when its retry
// could not be republished. Every other failure is final.
func shouldRequeue(err error) bool {
	return errors.Is(err, errRequeue)
}
