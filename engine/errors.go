package engine

import (
	"fmt"
	"os"
)

// Op names the engine operation that failed. The set is closed: every
// failure the engine can produce maps to exactly one Op.
type Op string

const (
	OpOpen               Op = "open target"
	OpQueryPermissions   Op = "query permissions of"
	OpCreateScratch      Op = "create scratch file for"
	OpDuplicateHandle    Op = "duplicate scratch handle for"
	OpSpawn              Op = "run command"
	OpCommit             Op = "replace"
	OpRestorePermissions Op = "restore permissions of"
)

// Error reports an engine failure: the operation that failed, the path it
// failed on, and the underlying cause.
type Error struct {
	Op   Op
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause so errors.Is and errors.As see
// through the operation wrapper.
func (e *Error) Unwrap() error { return e.Err }

// ExitError carries a command's nonzero exit status up to the caller. It is
// an alternate result rather than an engine failure: the command ran to
// completion and declined the rewrite, and its status should become the
// caller's own exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// SignalError reports a command killed by a signal. There is no exit status
// to propagate, so unlike ExitError this is a hard failure.
type SignalError struct {
	Signal os.Signal // nil when the platform does not report one
}

func (e *SignalError) Error() string {
	if e.Signal == nil {
		return "command terminated by signal"
	}
	return fmt.Sprintf("command terminated by signal: %v", e.Signal)
}
