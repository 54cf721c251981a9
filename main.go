package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// payload dumps go to stdout too, keep the log lines interleaved with them
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	app := &cli.App{
		Name:  "sqs-dlq-reader",
		Usage: "Read messages from an AWS SQS Dead Letter Queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dlq-name",
				Usage:    "Name of the SQS Dead Letter Queue",
				Required: true,
				EnvVars:  []string{"DLQ_NAME"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: readDLQ,
	}

	// errors are reported, never turned into a non-zero exit
	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("Unexpected error")
	}
}

func readDLQ(c *cli.Context) error {
	logger := log.Logger
	defer recoverRun(&logger)

	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger = log.With().
		Str("run_id", xid.New().String()).
		Str("queue", cfg.QueueName).
		Logger()

	logger.Info().Msgf("Using AWS region: %s", cfg.Region)

	awsCFG, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		reportRunError(logger, fmt.Errorf("%w: failed to load AWS config: %w", ErrConnection, err))
		return nil
	}

	drainer := NewDrainer(NewSQSQueueClient(awsCFG), cfg.Region, NewPayloadPrinter(os.Stdout), logger)
	_, err = drainer.Drain(ctx, cfg.QueueName)
	reportRunError(logger, err)
	return nil
}

// recoverRun must be deferred directly. It reads logger when the panic happens,
// so it picks up the run fields once they are set.
func recoverRun(logger *zerolog.Logger) {
	if r := recover(); r != nil {
		logger.Error().Interface("panic", r).Msg("Unexpected error")
	}
}

// reportRunError is the one place a failed run gets logged.
func reportRunError(logger zerolog.Logger, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrQueueNotFound):
		logger.Error().Err(err).Msg("Queue not found, nothing was read")
	case errors.Is(err, ErrConnection):
		logger.Error().Err(err).Msg("AWS client error")
	case errors.Is(err, context.Canceled):
		logger.Warn().Err(err).Msg("Interrupted before the DLQ was drained")
	default:
		logger.Error().Err(err).Msg("Unexpected error")
	}
}
