package engine

import "os"

// OutcomeKind classifies how a command attempt ended.
type OutcomeKind int

const (
	// OutcomeSuccess means the command ran and exited 0: the rewrite is
	// approved.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeExitCode means the command ran and exited nonzero: the rewrite
	// is declined and the code becomes the process exit status.
	OutcomeExitCode

	// OutcomeSignaled means the command was killed by a signal before it
	// could decide anything.
	OutcomeSignaled

	// OutcomeSpawnFailed means the command never ran at all.
	OutcomeSpawnFailed
)

// Outcome is the terminal classification of one command attempt. Exactly one
// of the auxiliary fields is meaningful, selected by Kind.
type Outcome struct {
	Kind   OutcomeKind
	Code   int       // exit status when Kind is OutcomeExitCode
	Signal os.Signal // terminating signal when Kind is OutcomeSignaled, may be nil
	Err    error     // cause when Kind is OutcomeSpawnFailed
}
