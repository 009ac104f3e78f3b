package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/nidia/composer/internal/hass"
)

// Sentinel errors.
var (
	// ErrNoConnection reports a mutation attempted before the connection is ready.
	ErrNoConnection = errors.New("no connection to Home Assistant")
	// ErrDiscarded reports a result dropped because its caller went away or a
	// newer refresh superseded it.
	ErrDiscarded = errors.New("result discarded")
)

// Messages for calls that could not complete on the connection.
const (
	noConnectionMessage   = "No connection to Home Assistant"
	connectionLostMessage = "Connection to Home Assistant lost"
)

// Error is the normalized error returned by synchronizer operations. Its text
// is ready for display next to the control that triggered it.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorMessage extracts a display message from err. The known shapes are
// checked in order: a structured result error with a message, a structured
// result error with only a code, a dropped connection, a timed out call,
// then any error text; fallback covers the rest.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var syncErr *Error
	if errors.As(err, &syncErr) && syncErr.Message != "" {
		return syncErr.Message
	}
	var resultErr *hass.ResultError
	if errors.As(err, &resultErr) {
		if resultErr.Message != "" {
			return resultErr.Message
		}
		if resultErr.Code != "" {
			return fmt.Sprintf("%s (%s)", fallback, resultErr.Code)
		}
		return fallback
	}
	if errors.Is(err, hass.ErrClosed) {
		return connectionLostMessage
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fallback + " (timeout)"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
