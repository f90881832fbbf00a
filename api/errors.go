package api

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Error is a non-2xx response from the backend. Error() is the backend's
// message verbatim so it can be shown to the user as-is.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports a rejected or expired token.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// errorBody covers both {"message": "..."} and the validation form
// {"message": ["a", "b"]}.
type errorBody struct {
	Message json.RawMessage `json:"message"`
}

func decodeErrorMessage(body []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Message) == 0 {
		return fallback
	}

	var msg string
	if err := json.Unmarshal(eb.Message, &msg); err == nil {
		if msg == "" {
			return fallback
		}
		return msg
	}

	var msgs []string
	if err := json.Unmarshal(eb.Message, &msgs); err == nil && len(msgs) > 0 {
		return strings.Join(msgs, ", ")
	}
	return fallback
}

// Message is the text to show the user for err: the backend's message when
// err came from the backend, otherwise the innermost cause.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return errors.Cause(err).Error()
}
