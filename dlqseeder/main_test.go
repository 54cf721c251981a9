package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func testSeederConfig() SeederConfig {
	return SeederConfig{
		QueueURL:    "https://sqs.us-west-2.amazonaws.com/000000000000/orders-dlq",
		Messages:    3,
		EventType:   "policy-header-record.created",
		SendTimeout: time.Second,
	}
}

func TestLoadSeederConfig(t *testing.T) {
	cfg, err := loadSeederConfig(env.Options{Environment: map[string]string{
		"SQS_QUEUE_URL": "https://sqs/orders-dlq",
		"SEED_MESSAGES": "20",
	}})
	require.NoError(t, err)

	assert.Equal(t, "https://sqs/orders-dlq", cfg.QueueURL)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.Equal(t, 20, cfg.Messages)
	assert.Equal(t, 0.1, cfg.MalformedRatio)
	assert.Equal(t, 30*time.Second, cfg.SendTimeout)
}

func TestLoadSeederConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{name: "queue url required", environ: map[string]string{}},
		{name: "non-positive message count", environ: map[string]string{"SQS_QUEUE_URL": "q", "SEED_MESSAGES": "0"}},
		{name: "ratios above one", environ: map[string]string{"SQS_QUEUE_URL": "q", "SEED_MALFORMED_RATIO": "0.7", "SEED_MISSING_ID_RATIO": "0.6"}},
		{name: "negative ratio", environ: map[string]string{"SQS_QUEUE_URL": "q", "SEED_MALFORMED_RATIO": "-0.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSeederConfig(env.Options{Environment: tt.environ})
			assert.Error(t, err)
		})
	}
}

func TestSendFixture(t *testing.T) {
	cfg := testSeederConfig()
	sender := new(MockSender)

	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(input *sqs.SendMessageInput) bool {
		return aws.ToString(input.QueueUrl) == cfg.QueueURL && aws.ToString(input.MessageBody) != ""
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil).Once()
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	rng := rand.New(rand.NewSource(1))

	ok := sendFixture(context.Background(), sender, cfg, rng, 1)
	assert.True(t, ok.Success)
	assert.Equal(t, FixtureValid, ok.Kind)
	assert.Empty(t, ok.Error)

	failed := sendFixture(context.Background(), sender, cfg, rng, 2)
	assert.False(t, failed.Success)
	assert.Equal(t, 2, failed.Index)
	assert.Equal(t, assert.AnError.Error(), failed.Error)

	sender.AssertExpectations(t)
}

func TestSeedSendsEveryFixtureInOrder(t *testing.T) {
	cfg := testSeederConfig()
	sender := new(MockSender)
	sender.On("SendMessage", mock.Anything, mock.Anything).Return(&sqs.SendMessageOutput{}, nil)

	results := make(chan Result, cfg.Messages)
	seed(context.Background(), sender, cfg, rand.New(rand.NewSource(1)), results)

	var indexes []int
	for r := range results {
		assert.True(t, r.Success)
		indexes = append(indexes, r.Index)
	}
	assert.Equal(t, []int{1, 2, 3}, indexes)
	sender.AssertNumberOfCalls(t, "SendMessage", 3)
}

func TestSeedStopsWhenCancelled(t *testing.T) {
	cfg := testSeederConfig()
	sender := new(MockSender)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := make(chan Result, cfg.Messages)
	seed(ctx, sender, cfg, rand.New(rand.NewSource(1)), results)

	_, open := <-results
	assert.False(t, open)
	sender.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestModelCountsResults(t *testing.T) {
	m := initialModel(testSeederConfig())

	updated, _ := m.Update(resultMsg{Success: true, Index: 1, Kind: FixtureValid})
	updated, _ = updated.Update(resultMsg{Success: true, Index: 2, Kind: FixtureMalformedBody})
	updated, _ = updated.Update(resultMsg{Index: 3, Kind: FixtureMissingID, Error: "throttled"})
	updated, _ = updated.Update(completeMsg{})

	got := updated.(model)
	assert.Equal(t, 2, got.sent)
	assert.Equal(t, 1, got.failed)
	assert.Equal(t, 1, got.byKind[FixtureValid])
	assert.Equal(t, 1, got.byKind[FixtureMalformedBody])
	assert.Len(t, got.recentLogs, 3)
	assert.Equal(t, []string{"[missing-id] throttled"}, got.errors)
	assert.True(t, got.isComplete)
}
