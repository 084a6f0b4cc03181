package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenlaunch/internal/launch"
	"tokenlaunch/pkg/config"
)

type failingLauncher struct {
	err   error
	calls int
}

func (f *failingLauncher) Launch(context.Context, launch.Intent) (*launch.Result, error) {
	f.calls++
	return nil, f.err
}

type recordingPublisher struct {
	err      error
	queues   []string
	requests []launch.QueuedRequest
}

func (p *recordingPublisher) Publish(queueName string, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.queues = append(p.queues, queueName)
	p.requests = append(p.requests, message.(launch.QueuedRequest))
	return nil
}

func queuedBody(t *testing.T, attempt int) []byte {
	t.Helper()
	body, err := json.Marshal(launch.QueuedRequest{
		RequestID: "req-1",
		Intent:    launch.IntentRequest{Name: "Cosmic Coin", Symbol: "CSMC", Decimals: 9, Supply: 1000},
		Attempt:   attempt,
	})
	require.NoError(t, err)
	return body
}

func TestShouldRetry(t *testing.T) {
	upload := &launch.Error{Kind: launch.KindUpload}

	assert.True(t, shouldRetry(0, upload))
	assert.True(t, shouldRetry(0, &launch.Error{Kind: launch.KindNetworkCongestion}))
	assert.True(t, shouldRetry(maxLaunchAttempts-2, upload))
	assert.False(t, shouldRetry(maxLaunchAttempts-1, upload))
	assert.False(t, shouldRetry(0, &launch.Error{Kind: launch.KindCancelled}))
	assert.False(t, shouldRetry(0, &launch.Error{Kind: launch.KindConfirmation}))
	assert.False(t, shouldRetry(0, errors.New("plain")))
}

func TestShouldRequeue(t *testing.T) {
	assert.False(t, shouldRequeue(errMalformed))
	assert.False(t, shouldRequeue(&launch.Error{Kind: launch.KindUpload}))
	assert.False(t, shouldRequeue(&launch.Error{Kind: launch.KindNetworkCongestion}))
	assert.True(t, shouldRequeue(errRequeue))
}

func TestHandleLaunchRequestMalformed(t *testing.T) {
	err := handleLaunchRequest(context.Background(), launch.NewLauncher(launch.Deps{}), &recordingPublisher{}, []byte("{"))
	assert.ErrorIs(t, err, errMalformed)
}

func TestHandleLaunchRequestRetries(t *testing.T) {
	retryBackoff = time.Millisecond
	t.Cleanup(func() { retryBackoff = 5 * time.Second })

	t.Run("retryable failure is republished with the next attempt", func(t *testing.T) {
		launcher := &failingLauncher{err: &launch.Error{Kind: launch.KindUpload}}
		publisher := &recordingPublisher{}

		err := handleLaunchRequest(context.Background(), launcher, publisher, queuedBody(t, 0))
		require.NoError(t, err)

		require.Len(t, publisher.requests, 1)
		assert.Equal(t, config.LaunchRequestQueue, publisher.queues[0])
		assert.Equal(t, 1, publisher.requests[0].Attempt)
		assert.Equal(t, "req-1", publisher.requests[0].RequestID)
	})

	t.Run("last attempt is dropped", func(t *testing.T) {
		launcher := &failingLauncher{err: &launch.Error{Kind: launch.KindUpload}}
		publisher := &recordingPublisher{}

		err := handleLaunchRequest(context.Background(), launcher, publisher, queuedBody(t, maxLaunchAttempts-1))
		require.Error(t, err)
		assert.False(t, shouldRequeue(err))
		assert.Empty(t, publisher.requests)
		assert.Equal(t, 1, launcher.calls)
	})

	t.Run("permanent failure is not republished", func(t *testing.T) {
		launcher := &failingLauncher{err: &launch.Error{Kind: launch.KindInsufficientFunds}}
		publisher := &recordingPublisher{}

		err := handleLaunchRequest(context.Background(), launcher, publisher, queuedBody(t, 0))
		require.Error(t, err)
		assert.False(t, shouldRequeue(err))
		assert.Empty(t, publisher.requests)
	})

	t.Run("failed republish goes back to the broker", func(t *testing.T) {
		launcher := &failingLauncher{err: &launch.Error{Kind: launch.KindNetworkCongestion}}
		publisher := &recordingPublisher{err: errors.New("channel closed")}

		err := handleLaunchRequest(context.Background(), launcher, publisher, queuedBody(t, 0))
		assert.True(t, shouldRequeue(err))
	})
}
