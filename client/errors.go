package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMasterUnreachable is matched by a NameResolutionError.
	ErrMasterUnreachable = errors.New("master unreachable")

	// ErrUnresolvedRoomTarget is logged, not returned, when the master lists
	// no room. Commands are still sent, with an empty target.
	ErrUnresolvedRoomTarget = errors.New("no room target")

	ErrUnknownCommand      = errors.New("unknown command")
	ErrPresetNotConfigured = errors.New("preset not configured")
	ErrSessionClosed       = errors.New("session closed")
	ErrInvalidGain         = errors.New("invalid gain")
)

// NameResolutionError reports that the master's hostname could not be
// resolved within the allowed attempts.
type NameResolutionError struct {
	Hostname string
	Attempts int
	Err      error
}

func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("resolve master %q: gave up after %d attempts: %v", e.Hostname, e.Attempts, e.Err)
}

func (e *NameResolutionError) Unwrap() error { return e.Err }

func (e *NameResolutionError) Is(target error) bool { return target == ErrMasterUnreachable }

// TransportError wraps a connect, send, receive or close failure.
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
