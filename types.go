package main

import "encoding/json"

// resolved once per run, never mutated
type QueueHandle struct {
	Name   string
	URL    string
	Region string
}

// a single message as received from the queue
type RawMessage struct {
	MessageID  string
	Body       string
	Attributes map[string]string
}

// SNS notification as delivered into an SQS queue.
// MessageAttributes stays raw: its shape never decides whether a message is printed.
type Envelope struct {
	Message           *string         `json:"Message"`
	MessageAttributes json.RawMessage `json:"MessageAttributes"`
}

// the inner payload of a message that carried a usable id
type DecodedPayload struct {
	MessageID string
	ID        string
	EventType string
	Content   json.RawMessage // indented, original key order
}
