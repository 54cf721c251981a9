package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/xid"
)

type FixtureKind string

const (
	FixtureValid          FixtureKind = "valid"
	FixtureMissingID      FixtureKind = "missing-id"
	FixtureMalformedBody  FixtureKind = "malformed-body"
	FixtureMalformedInner FixtureKind = "malformed-inner"
)

// mirrors what SNS delivers into a subscribed queue
type snsEnvelope struct {
	Type              string                  `json:"Type"`
	MessageID         string                  `json:"MessageId"`
	TopicArn          string                  `json:"TopicArn"`
	Message           string                  `json:"Message"`
	Timestamp         string                  `json:"Timestamp"`
	MessageAttributes map[string]snsAttribute `json:"MessageAttributes,omitempty"`
}

type snsAttribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

type failedRecord struct {
	ID       string `json:"id,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
}

var failureReasons = []string{
	"downstream timeout",
	"schema validation failed",
	"duplicate key",
	"consumer panicked",
}

// pickKind chooses a fixture kind using the configured ratios
func pickKind(rng *rand.Rand, malformedRatio, missingIDRatio float64) FixtureKind {
	r := rng.Float64()
	switch {
	case r < malformedRatio/2:
		return FixtureMalformedBody
	case r < malformedRatio:
		return FixtureMalformedInner
	case r < malformedRatio+missingIDRatio:
		return FixtureMissingID
	default:
		return FixtureValid
	}
}

func buildFixtureBody(kind FixtureKind, rng *rand.Rand, index int, eventType string) (string, error) {
	if kind == FixtureMalformedBody {
		return fmt.Sprintf("not-json fixture %d", index), nil
	}

	record := failedRecord{
		Status:   "failed",
		Reason:   failureReasons[rng.Intn(len(failureReasons))],
		Attempts: 1 + rng.Intn(5),
	}
	if kind != FixtureMissingID {
		record.ID = fmt.Sprintf("record-%06d-%s", index, xid.New().String())
	}

	inner, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}
	if kind == FixtureMalformedInner {
		inner = inner[:len(inner)/2]
	}

	envelope := snsEnvelope{
		Type:      "Notification",
		MessageID: xid.New().String(),
		TopicArn:  "arn:aws:sns:us-west-2:000000000000:dlq-seeder",
		Message:   string(inner),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if eventType != "" {
		envelope.MessageAttributes = map[string]snsAttribute{
			"eventType": {Type: "String", Value: eventType},
		}
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return string(body), nil
}
