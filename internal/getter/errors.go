package getter

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers are expected to
// branch on. Check with errors.Is().
var (
	// ErrUnsupportedHostType indicates a host-type tag outside the
	// known set of backends.
	ErrUnsupportedHostType = errors.New("unsupported host type")

	// ErrPodUnavailable indicates the target pod is absent or still
	// pending, so there is nothing to exec into.
	ErrPodUnavailable = errors.New("pod unavailable")

	// ErrNotImplemented marks operations that are reserved in the
	// capability set but not yet supported.
	ErrNotImplemented = errors.New("not implemented")
)

// BackendError wraps a transport or API failure with the backend and
// operation it occurred in. The underlying error is preserved for
// diagnostics and reachable through Unwrap.
type BackendError struct {
	HostType HostType
	Op       string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %s: %v", e.HostType, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
