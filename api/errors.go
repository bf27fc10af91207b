package api

import (
	"errors"
	"fmt"
)

// TransportError wraps failures to reach the backend or to decode what it
// sent back. The chat flow treats these as critical.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response. Body holds the raw response for
// endpoints that carry a structured failure.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

// ChatError is a failed POST /api/chat that the backend explained.
type ChatError struct {
	StatusCode int
	Failure    ChatFailure
}

func (e *ChatError) Error() string {
	msg := e.Failure.Error
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("chat: status %d: %s", e.StatusCode, msg)
}

func (e *ChatError) Critical() bool { return e.Failure.Critical() }

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == 404
}
