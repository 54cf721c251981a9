package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// enableLogging turns zerolog back on for tests that assert on log output
func enableLogging(t *testing.T) *bytes.Buffer {
	t.Helper()

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.Disabled) })

	return new(bytes.Buffer)
}

func TestReportRunError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		level    string
		expected string
	}{
		{
			name:     "queue not found",
			err:      fmt.Errorf("%w: orders-dlq", ErrQueueNotFound),
			level:    `"level":"error"`,
			expected: "Queue not found, nothing was read",
		},
		{
			name:     "connection error",
			err:      fmt.Errorf("%w: receive messages: timeout", ErrConnection),
			level:    `"level":"error"`,
			expected: "AWS client error",
		},
		{
			name:     "interrupted",
			err:      fmt.Errorf("pause between polls interrupted: %w", context.Canceled),
			level:    `"level":"warn"`,
			expected: "Interrupted before the DLQ was drained",
		},
		{
			name:     "anything else",
			err:      fmt.Errorf("%w: invalid count", ErrUnexpected),
			level:    `"level":"error"`,
			expected: "Unexpected error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := enableLogging(t)

			reportRunError(zerolog.New(buf), tt.err)

			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), tt.expected)
			assert.Contains(t, buf.String(), tt.err.Error())
		})
	}
}

func TestReportRunErrorNil(t *testing.T) {
	buf := enableLogging(t)

	reportRunError(zerolog.New(buf), nil)

	assert.Empty(t, buf.String())
}

func TestQueueNotFoundLogsAvailableQueues(t *testing.T) {
	buf := enableLogging(t)

	client := new(MockQueueClient)
	client.On("Resolve", mock.Anything, "missing-dlq").Return(QueueHandle{}, ErrQueueNotFound)
	client.On("ListAll", mock.Anything).Return([]string{"https://sqs/a", "https://sqs/b"}, nil)

	var out bytes.Buffer
	drainer := NewDrainer(client, "us-west-2", NewPayloadPrinter(&out), zerolog.New(buf))
	_, err := drainer.Drain(context.Background(), "missing-dlq")

	assert.ErrorIs(t, err, ErrQueueNotFound)
	logs := buf.String()
	assert.Contains(t, logs, "Queue 'missing-dlq' does not exist in region 'us-west-2'")
	assert.Contains(t, logs, "Available queues in this region:")
	assert.Contains(t, logs, " - https://sqs/a")
	assert.Contains(t, logs, " - https://sqs/b")
}

func TestQueueNotFoundWithNoQueuesInRegion(t *testing.T) {
	buf := enableLogging(t)

	client := new(MockQueueClient)
	client.On("Resolve", mock.Anything, "missing-dlq").Return(QueueHandle{}, ErrQueueNotFound)
	client.On("ListAll", mock.Anything).Return([]string{}, nil)

	var out bytes.Buffer
	drainer := NewDrainer(client, "us-west-2", NewPayloadPrinter(&out), zerolog.New(buf))
	_, _ = drainer.Drain(context.Background(), "missing-dlq")

	assert.Contains(t, buf.String(), "No queues found in this region.")
}

func TestEmptyQueueReportsCompletion(t *testing.T) {
	buf := enableLogging(t)

	client := new(MockQueueClient)
	client.On("Resolve", mock.Anything, "orders-dlq").Return(testQueue, nil)
	client.On("ApproximateCount", mock.Anything, testQueue).Return(0, nil)

	var out bytes.Buffer
	drainer := NewDrainer(client, "us-west-2", NewPayloadPrinter(&out), zerolog.New(buf))
	_, err := drainer.Drain(context.Background(), "orders-dlq")

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "DLQ is empty or no more messages to process.")
	assert.Contains(t, buf.String(), "DLQ read summary")
}

func TestRecoverRunLogsThroughRunLogger(t *testing.T) {
	buf := enableLogging(t)

	func() {
		logger := zerolog.New(buf)
		defer recoverRun(&logger)

		// the run logger is built after the deferred recover is in place
		logger = logger.With().Str("run_id", "run-1").Str("queue", "orders-dlq").Logger()
		panic("boom")
	}()

	logs := buf.String()
	assert.Contains(t, logs, "Unexpected error")
	assert.Contains(t, logs, `"panic":"boom"`)
	assert.Contains(t, logs, `"run_id":"run-1"`)
	assert.Contains(t, logs, `"queue":"orders-dlq"`)
}
