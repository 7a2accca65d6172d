package engine

import "os"

// Environment variables describing the run to the command.
const (
	// EnvTempfile holds the path of the scratch file the command's output
	// is being captured into.
	EnvTempfile = "REWRITE_TEMPFILE"

	// EnvOutput holds the path the scratch file will replace on success.
	EnvOutput = "REWRITE_OUTPUT"

	// EnvInput holds the path the command's input comes from, or
	// EnvStdinSentinel when the input is inherited standard input.
	EnvInput = "REWRITE_INPUT"

	// EnvStdinSentinel is the EnvInput value for inherited standard input.
	EnvStdinSentinel = "-"
)

// Plan is the fully resolved description of one command invocation: the
// program and arguments, the complete child environment, and the stdio
// wiring. A Plan is built once per run and consumed once by Spawn; it is
// never mutated after construction.
type Plan struct {
	Program string
	Args    []string

	// Env is the complete child environment, not an addition to the
	// inherited one.
	Env []string

	// Stdin is the command's standard input: the open target handle, or
	// os.Stdin when the caller's input is passed through.
	Stdin *os.File

	// Stdout is the write handle the command's output is captured into.
	// Standard error is always inherited.
	Stdout *os.File

	// Credential, when non-nil, runs the command as another user.
	Credential *Credential
}

// Credential selects the user a command runs as. Applying it requires an
// OS that supports changing uids at spawn time and a privileged caller.
type Credential struct {
	Username string
	UID      uint32
	GID      uint32
}
