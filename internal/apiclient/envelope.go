package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the wrapper every backend response arrives in.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// decodeEnvelope validates the wrapper and decodes the payload into out.
//
// Some endpoints nest the payload one level deeper as
// {"message": ..., "data": payload}; others put the payload directly in
// data. When data is an object carrying a "data" member the inner value is
// the payload, otherwise data itself is.
func decodeEnvelope(raw []byte, out any) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}

	payload, message := unwrapPayload(env.Data)
	if !env.Success {
		return &EnvelopeError{Message: message}
	}

	if out == nil || isEmptyJSON(payload) {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func unwrapPayload(data json.RawMessage) (json.RawMessage, string) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data, ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return data, ""
	}

	var message string
	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &message)
	}
	if inner, ok := fields["data"]; ok {
		return inner, message
	}
	return data, message
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// errorMessage pulls a human message out of a non-2xx body, which may or
// may not be an envelope.
func errorMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if body.Error != "" {
		return body.Error
	}
	_, message := unwrapPayload(body.Data)
	return message
}
