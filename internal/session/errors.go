package session

import (
	"errors"
	"fmt"
)

// ValidationError rejects a command before any gateway call is made.
// The browser renders Message next to Field; nothing was persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IsValidation reports whether err is a client-side validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrWrongState is returned when a command arrives in a state that
// cannot handle it, e.g. a disposition save with no form open.
var ErrWrongState = errors.New("command not valid in current state")

// ErrNoItem is returned when a command needs a current item and the
// queue is empty
var ErrNoItem = errors.New("no queue item on display")
