package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const eventTypeAttribute = "eventType"

// DecodeMessage unwraps the SNS envelope in msg and returns the inner payload.
// It has no side effects, so decoding the same message twice gives the same result.
//
// Errors wrap ErrDecode when the body or inner Message is not a JSON object and
// ErrMissingID when the payload has no usable id.
func DecodeMessage(msg RawMessage) (DecodedPayload, error) {
	var envelope Envelope
	if err := unmarshalObject([]byte(msg.Body), &envelope); err != nil {
		return DecodedPayload{}, fmt.Errorf("%w: body of message %s: %w", ErrDecode, msg.MessageID, err)
	}

	eventType := envelope.EventType()

	inner := []byte("{}")
	if envelope.Message != nil {
		inner = bytes.TrimSpace([]byte(*envelope.Message))
	}

	var content map[string]any
	if err := unmarshalObject(inner, &content); err != nil {
		return DecodedPayload{}, fmt.Errorf("%w: Message field of message %s: %w", ErrDecode, msg.MessageID, err)
	}

	id, ok := payloadID(content["id"])
	if !ok {
		return DecodedPayload{}, fmt.Errorf("%w: message %s", ErrMissingID, msg.MessageID)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, inner, "", "  "); err != nil {
		return DecodedPayload{}, fmt.Errorf("%w: indent payload of message %s: %w", ErrDecode, msg.MessageID, err)
	}

	return DecodedPayload{
		MessageID: msg.MessageID,
		ID:        id,
		EventType: eventType,
		Content:   pretty.Bytes(),
	}, nil
}

// EventType returns MessageAttributes.eventType.Value. A non-string Value is
// returned as compact JSON text; a missing or oddly shaped attribute gives "".
func (e Envelope) EventType() string {
	var attributes map[string]json.RawMessage
	if err := json.Unmarshal(e.MessageAttributes, &attributes); err != nil {
		return ""
	}

	var eventType map[string]json.RawMessage
	if err := json.Unmarshal(attributes[eventTypeAttribute], &eventType); err != nil {
		return ""
	}

	value := bytes.TrimSpace(eventType["Value"])
	if len(value) == 0 || string(value) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, value); err != nil {
		return ""
	}
	return compact.String()
}

func unmarshalObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}

// payloadID renders an id value and reports whether it counts as present.
// null, "", false, zero and empty arrays or objects do not.
func payloadID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case bool:
		return "true", id
	case json.Number:
		f, err := id.Float64()
		if err == nil && f == 0 {
			return "", false
		}
		return id.String(), true
	case []any:
		if len(id) == 0 {
			return "", false
		}
	case map[string]any:
		if len(id) == 0 {
			return "", false
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}
