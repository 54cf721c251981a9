package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	receiveBatchSize int32 = 10
	receiveWait            = 1 * time.Second
	emptyBatchPause        = 1 * time.Second
)

type DrainSummary struct {
	InitialCount int
	Batches      int
	EmptyBatches int
	Received     int
	Printed      int
	MissingID    int
	DecodeErrors int
	Redelivered  int
}

// Drainer reads a DLQ until the backend reports it empty, printing every
// payload that carries an id. It never deletes or acknowledges anything.
type Drainer struct {
	client   QueueClient
	region   string
	printer  *PayloadPrinter
	observed *ObservedMessages
	logger   zerolog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewDrainer(client QueueClient, region string, printer *PayloadPrinter, logger zerolog.Logger) *Drainer {
	return &Drainer{
		client:   client,
		region:   region,
		printer:  printer,
		observed: NewObservedMessages(),
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Drain runs the loop until ApproximateNumberOfMessages is observed at or below zero.
// That count is eventually consistent, so the loop can stop early or keep polling
// while producers outpace it.
func (d *Drainer) Drain(ctx context.Context, queueName string) (DrainSummary, error) {
	var summary DrainSummary

	queue, err := d.resolveQueue(ctx, queueName)
	if err != nil {
		return summary, err
	}
	d.logger.Info().Str("queue_url", queue.URL).Msgf("Connected to DLQ: %s", queue.Name)

	count, err := d.client.ApproximateCount(ctx, queue)
	if err != nil {
		return summary, err
	}
	summary.InitialCount = count
	d.logger.Info().Int("count", count).Msg("Initial number of messages in DLQ")

	defer d.logSummary(&summary)

	for count > 0 {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		messages, err := d.client.ReceiveBatch(ctx, queue, receiveBatchSize, receiveWait)
		if err != nil {
			return summary, err
		}
		summary.Batches++

		if len(messages) == 0 {
			summary.EmptyBatches++
			d.logger.Info().Msg("No messages received in this batch, checking again...")

			if err := d.sleep(ctx, emptyBatchPause); err != nil {
				return summary, err
			}
			count, err = d.client.ApproximateCount(ctx, queue)
			if err != nil {
				return summary, err
			}
			continue
		}

		d.logger.Debug().Int("batch_size", len(messages)).Msg("Received messages from DLQ")
		for _, msg := range messages {
			summary.Received++
			d.processMessage(msg, &summary)
		}

		count, err = d.client.ApproximateCount(ctx, queue)
		if err != nil {
			return summary, err
		}
		d.logger.Info().Int("count", count).Msg("Remaining messages in DLQ")
	}

	d.logger.Info().Msg("DLQ is empty or no more messages to process.")
	return summary, nil
}

func (d *Drainer) resolveQueue(ctx context.Context, queueName string) (QueueHandle, error) {
	queue, err := d.client.Resolve(ctx, queueName)
	if err == nil {
		return queue, nil
	}

	if errors.Is(err, ErrQueueNotFound) {
		d.logger.Error().Msgf("Queue '%s' does not exist in region '%s'", queueName, d.region)
		d.logger.Info().Msg("Listing available queues for debugging:")
		d.listQueues(ctx)
	}
	return QueueHandle{}, err
}

func (d *Drainer) listQueues(ctx context.Context) {
	urls, err := d.client.ListAll(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("Error listing queues")
		return
	}

	if len(urls) == 0 {
		d.logger.Info().Msg("No queues found in this region.")
		return
	}

	d.logger.Info().Msg("Available queues in this region:")
	for _, url := range urls {
		d.logger.Info().Msgf(" - %s", url)
	}
}

// failures here are logged and counted, never returned; one bad message must not
// stop the rest of the batch
func (d *Drainer) processMessage(msg RawMessage, summary *DrainSummary) {
	ml := d.logger.With().Str("message_id", msg.MessageID).Logger()

	defer func() {
		if r := recover(); r != nil {
			summary.DecodeErrors++
			ml.Error().Interface("panic", r).Msg("Error processing message")
		}
	}()

	payload, err := DecodeMessage(msg)
	switch {
	case errors.Is(err, ErrMissingID):
		summary.MissingID++
		ml.Info().Msgf("Skipping message ID: %s (no id found in Message)", msg.MessageID)
		return
	case errors.Is(err, ErrDecode):
		summary.DecodeErrors++
		ml.Error().Err(err).Msgf("Error decoding JSON for message ID: %s", msg.MessageID)
		return
	case err != nil:
		summary.DecodeErrors++
		ml.Error().Err(err).Msgf("Error processing message ID: %s", msg.MessageID)
		return
	}

	redelivered := d.observed.IsObserved(msg.MessageID)
	obs := d.observed.MarkObserved(msg.MessageID, payload.ID)
	if redelivered {
		summary.Redelivered++
		ml.Debug().
			Int("times_seen", obs.timesSeen).
			Str("payload_id", obs.payloadID).
			Time("first_seen", obs.firstSeen).
			Msg("Message redelivered during this run")
	}

	if payload.EventType != "" {
		ml.Debug().Str("event_type", payload.EventType).Msg("Message event type")
	}
	if receiveCount, ok := msg.Attributes["ApproximateReceiveCount"]; ok {
		ml.Debug().Str("receive_count", receiveCount).Msg("Message receive count")
	}

	if err := d.printer.Print(payload, redelivered); err != nil {
		ml.Error().Err(err).Msg("Failed to print message")
		return
	}
	summary.Printed++
}

func (d *Drainer) logSummary(summary *DrainSummary) {
	d.logger.Info().
		Int("initial_count", summary.InitialCount).
		Int("batches", summary.Batches).
		Int("empty_batches", summary.EmptyBatches).
		Int("received", summary.Received).
		Int("printed", summary.Printed).
		Int("skipped_no_id", summary.MissingID).
		Int("decode_errors", summary.DecodeErrors).
		Int("redelivered", summary.Redelivered).
		Int("distinct_messages", d.observed.Len()).
		Msg("DLQ read summary")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pause between polls interrupted: %w", ctx.Err())
	}
}
