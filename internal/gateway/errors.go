package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Error wraps a failed or timed-out gateway call. The caller reverts to
// its last stable state and surfaces a transient notice; calls are not
// retried automatically.
type Error struct {
	Op         string // e.g. "acceptItem"
	StatusCode int    // HTTP status, 0 for transport failures
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether the error is a watchdog timeout: the call
// exceeded its bounded wait and the UI unblocked itself, though the
// underlying call may still complete later.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
