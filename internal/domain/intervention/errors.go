package intervention

import (
	"errors"
	"fmt"
)

var (
	ErrIDRequired        = errors.New("intervention id is required")
	ErrInvalidStatus     = errors.New("invalid intervention status")
	ErrInvalidPriority   = errors.New("invalid intervention priority")
	ErrTerminalStatus    = errors.New("intervention is in a terminal status")
	ErrIllegalTransition = errors.New("status transition not allowed")
)

// PersistenceError reports a failed store write. The caller's in-memory state is
// left untouched so the operation can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
