package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled reports an aborted interactive selection. It is an
	// outcome, not a failure: the rest of the batch is skipped.
	ErrCancelled = errors.New("selection cancelled")

	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrNoEntity         = errors.New("no entity on that side")
	ErrDepthExceeded    = errors.New("effect nesting too deep")
	ErrNoPileManager    = errors.New("no pile manager configured")
	ErrNoChooser        = errors.New("no chooser configured")
	ErrNoNarrator       = errors.New("no narrator configured")
	ErrNoAbilitySink    = errors.New("no ability sink configured")
	ErrParse            = errors.New("effect did not parse")
	ErrBindingNotFound  = errors.New("binding not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// ExecError names the effect fragment that failed. Mutations made before the
// failure are kept; rolling back is up to the caller.
type ExecError struct {
	Fragment string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing %q: %v", e.Fragment, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// fail wraps err with the fragment unless it is a cancellation.
func fail(fragment string, err error) error {
	if err == nil || errors.Is(err, ErrCancelled) {
		return err
	}
	return &ExecError{Fragment: fragment, Err: err}
}
