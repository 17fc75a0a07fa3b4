package llm

import (
	"context"
	"errors"
	"net"
)

// Sentinel failures for the model backend. Callers are expected to catch
// these and degrade to heuristic analysis; they never reach the transport
// layer as errors.
var (
	// ErrTimeout means the backend did not answer within the configured timeout.
	ErrTimeout = errors.New("model backend timed out")
	// ErrUnreachable means the backend could not be reached at all.
	ErrUnreachable = errors.New("model backend unreachable")
	// ErrMalformed means the backend answered with output that could not be used.
	ErrMalformed = errors.New("model backend returned malformed output")
)

// classify maps a raw transport error onto one of the sentinel failures so
// callers never have to inspect net internals.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable) || errors.Is(err, ErrMalformed) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnreachable
}
