package predict

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindTransport         Kind = "transport"
	KindTimeout           Kind = "timeout"
	KindNonSuccessStatus  Kind = "non_success_status"
	KindMalformedResponse Kind = "malformed_response"
)

// Error is the single error type returned by the prediction client.
type Error struct {
	Kind       Kind
	StatusCode int    // set for KindNonSuccessStatus
	Message    string // human readable cause, backend text when it sent one
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNonSuccessStatus:
		if e.Message != "" {
			return fmt.Sprintf("prediction backend returned %d: %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("prediction backend returned %d", e.StatusCode)
	case KindTimeout:
		return "prediction request timed out: " + e.Message
	case KindMalformedResponse:
		return "malformed prediction response: " + e.Message
	default:
		return "prediction backend unreachable: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a prediction error, or "" for anything else.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
