package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
)

// SeederConfig is read from the environment.
type SeederConfig struct {
	QueueURL       string        `env:"SQS_QUEUE_URL,required"`
	Region         string        `env:"AWS_REGION"            envDefault:"us-west-2"`
	Messages       int           `env:"SEED_MESSAGES"         envDefault:"50"`
	MissingIDRatio float64       `env:"SEED_MISSING_ID_RATIO" envDefault:"0.1"`
	MalformedRatio float64       `env:"SEED_MALFORMED_RATIO"  envDefault:"0.1"`
	EventType      string        `env:"SEED_EVENT_TYPE"       envDefault:"policy-header-record.created"`
	SendTimeout    time.Duration `env:"SEED_SEND_TIMEOUT"     envDefault:"30s"`
}

func loadSeederConfig(opts env.Options) (SeederConfig, error) {
	var cfg SeederConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return SeederConfig{}, fmt.Errorf("failed to parse seeder config: %w", err)
	}
	if cfg.Messages <= 0 {
		return SeederConfig{}, fmt.Errorf("SEED_MESSAGES must be positive, got %d", cfg.Messages)
	}
	if cfg.MalformedRatio < 0 || cfg.MissingIDRatio < 0 || cfg.MalformedRatio+cfg.MissingIDRatio > 1 {
		return SeederConfig{}, fmt.Errorf("ratios must be non-negative and sum to at most 1")
	}
	return cfg, nil
}

type messageSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type Result struct {
	Success  bool
	Duration time.Duration
	Index    int
	Kind     FixtureKind
	Error    string
}

func sendFixture(ctx context.Context, client messageSender, cfg SeederConfig, rng *rand.Rand, index int) Result {
	kind := pickKind(rng, cfg.MalformedRatio, cfg.MissingIDRatio)

	body, err := buildFixtureBody(kind, rng, index, cfg.EventType)
	if err != nil {
		return Result{Index: index, Kind: kind, Error: err.Error()}
	}

	sendCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()

	startTime := time.Now()
	_, err = client.SendMessage(sendCtx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(cfg.QueueURL),
		MessageBody: aws.String(body),
	})
	duration := time.Since(startTime)

	if err != nil {
		return Result{Duration: duration, Index: index, Kind: kind, Error: err.Error()}
	}
	return Result{Success: true, Duration: duration, Index: index, Kind: kind}
}

// sends every fixture in order, one at a time
func seed(ctx context.Context, client messageSender, cfg SeederConfig, rng *rand.Rand, results chan<- Result) {
	defer close(results)

	for i := 1; i <= cfg.Messages; i++ {
		if ctx.Err() != nil {
			return
		}
		results <- sendFixture(ctx, client, cfg, rng, i)
	}
}

func main() {
	cfg, err := loadSeederConfig(env.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	awsCFG, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Unable to load SDK config: %v\n", err)
		os.Exit(1)
	}
	client := sqs.NewFromConfig(awsCFG)

	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())

	results := make(chan Result)
	go seed(ctx, client, cfg, rand.New(rand.NewSource(time.Now().UnixNano())), results)

	// forward results to UI
	go func() {
		for result := range results {
			p.Send(resultMsg(result))
		}
		p.Send(completeMsg{})
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
