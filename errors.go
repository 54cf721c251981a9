package main

import "errors"

var (
	// queue resolution / transport
	ErrQueueNotFound = errors.New("dlq: queue not found")
	ErrConnection    = errors.New("dlq: queue service error")

	// per message, never abort the batch
	ErrDecode    = errors.New("dlq: malformed message")
	ErrMissingID = errors.New("dlq: payload has no id")

	ErrUnexpected = errors.New("dlq: unexpected error")
)
