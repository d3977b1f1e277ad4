// Package jsonapi encodes JSON request bodies and decodes JSON responses from
// the upstream REST APIs, surfacing their error envelopes as Go errors.
package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxErrorBody bounds how much of a non-JSON error body is kept
const maxErrorBody = 512

// Envelope is the error object Gemini and OpenAI wrap failures in:
// {"error": {"code": ..., "message": "...", "status"/"type": "..."}}
type Envelope struct {
	Error *Error `json:"error"`
	// TMDB reports failures at the top level instead.
	StatusMessage string `json:"status_message"`
}

// Error represents an upstream error object
type Error struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Status  string          `json:"status"`
	Type    string          `json:"type"`
}

func (e *Error) Error() string {
	code := strings.Trim(string(e.Code), `"`)
	if code == "" || code == "null" {
		return e.Message
	}
	return fmt.Sprintf("code %s: %s", code, e.Message)
}

// EncodeRequest marshals a request body into a reader
func EncodeRequest(v interface{}) (io.Reader, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonapi: failed to encode request: %w", err)
	}
	return bytes.NewReader(body), nil
}

// DecodeResponse decodes a successful response body. A body that carries an
// error envelope is returned as *Error even with a 2xx status.
func DecodeResponse(r io.Reader, reply interface{}) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("jsonapi: failed to read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error
	}

	if reply == nil {
		return nil
	}
	if err := json.Unmarshal(raw, reply); err != nil {
		return fmt.Errorf("jsonapi: failed to decode response: %w", err)
	}
	return nil
}

// ErrorMessage extracts a human-readable message from a failed response body.
func ErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 64*1024))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Error != nil && env.Error.Message != "" {
			return env.Error.Message
		}
		if env.StatusMessage != "" {
			return env.StatusMessage
		}
	}

	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
