package emt

import (
	"errors"
	"fmt"
)

// TransportError means the EMT backend could not be reached or answered with a non-2xx status.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("emt %s: unexpected status code: %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("emt %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the backend answered with something that is not the JSON we expect.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("emt: failed to decode JSON: %v", e.Err)
	}
	return fmt.Sprintf("emt %s: failed to decode JSON: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsBackendError reports whether err is a transport or decode failure talking to EMT.
func IsBackendError(err error) bool {
	var te *TransportError
	var de *DecodeError
	return errors.As(err, &te) || errors.As(err, &de)
}
