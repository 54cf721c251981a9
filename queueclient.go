package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
)

// the subset of the SQS API used by the reader, read-only
type SQSClientInterface interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error)
	GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
}

// QueueClient is everything the drain loop needs from the queue service.
// There is deliberately no send or delete.
type QueueClient interface {
	Resolve(ctx context.Context, name string) (QueueHandle, error)
	ListAll(ctx context.Context) ([]string, error)
	ApproximateCount(ctx context.Context, queue QueueHandle) (int, error)
	ReceiveBatch(ctx context.Context, queue QueueHandle, maxCount int32, wait time.Duration) ([]RawMessage, error)
}

// error codes SQS uses for an unknown queue name, depending on protocol
const (
	nonExistentQueueCode  = "AWS.SimpleQueueService.NonExistentQueue"
	queueDoesNotExistCode = "QueueDoesNotExist"
)

type SQSQueueClient struct {
	region    string
	sqsClient SQSClientInterface
}

func NewSQSQueueClient(awsConfig aws.Config) *SQSQueueClient {
	return &SQSQueueClient{
		region:    awsConfig.Region,
		sqsClient: sqs.NewFromConfig(awsConfig),
	}
}

func (c *SQSQueueClient) Resolve(ctx context.Context, name string) (QueueHandle, error) {
	out, err := c.sqsClient.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(name),
	})
	if err != nil {
		if isQueueNotFound(err) {
			return QueueHandle{}, fmt.Errorf("%w: %q does not exist in region %q", ErrQueueNotFound, name, c.region)
		}
		return QueueHandle{}, fmt.Errorf("%w: get queue url for %q: %w", ErrConnection, name, err)
	}

	return QueueHandle{
		Name:   name,
		URL:    aws.ToString(out.QueueUrl),
		Region: c.region,
	}, nil
}

func (c *SQSQueueClient) ListAll(ctx context.Context) ([]string, error) {
	var urls []string

	paginator := sqs.NewListQueuesPaginator(c.sqsClient, &sqs.ListQueuesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return urls, fmt.Errorf("%w: list queues: %w", ErrConnection, err)
		}
		urls = append(urls, page.QueueUrls...)
	}

	return urls, nil
}

// ApproximateCount returns the backend's ApproximateNumberOfMessages, which is
// eventually consistent and can lag behind receives.
func (c *SQSQueueClient) ApproximateCount(ctx context.Context, queue QueueHandle) (int, error) {
	out, err := c.sqsClient.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queue.URL),
		AttributeNames: []types.QueueAttributeName{
			types.QueueAttributeNameApproximateNumberOfMessages,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: get queue attributes: %w", ErrConnection, err)
	}

	raw, ok := out.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessages)]
	if !ok {
		return 0, fmt.Errorf("%w: %s missing from queue attributes", ErrUnexpected, types.QueueAttributeNameApproximateNumberOfMessages)
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q: %w", ErrUnexpected, types.QueueAttributeNameApproximateNumberOfMessages, raw, err)
	}
	return count, nil
}

func (c *SQSQueueClient) ReceiveBatch(ctx context.Context, queue QueueHandle, maxCount int32, wait time.Duration) ([]RawMessage, error) {
	result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(queue.URL),
		MaxNumberOfMessages:         maxCount,
		WaitTimeSeconds:             int32(wait / time.Second),
		MessageAttributeNames:       []string{"All"},
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameAll},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: receive messages: %w", ErrConnection, err)
	}

	messages := make([]RawMessage, 0, len(result.Messages))
	for _, m := range result.Messages {
		messages = append(messages, RawMessage{
			MessageID:  aws.ToString(m.MessageId),
			Body:       aws.ToString(m.Body),
			Attributes: m.Attributes,
		})
	}
	return messages, nil
}

func isQueueNotFound(err error) bool {
	var notExist *types.QueueDoesNotExist
	if errors.As(err, &notExist) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case nonExistentQueueCode, queueDoesNotExistCode:
			return true
		}
	}
	return false
}
