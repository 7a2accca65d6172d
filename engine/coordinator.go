// Package engine rewrites a file in place with the output of a command.
//
// A run opens the target, snapshots its permissions, stages a scratch file,
// and spawns the command with the target on stdin and the scratch file on
// stdout. If the command exits 0 the scratch file atomically replaces the
// target; on every other path the scratch file is removed and the target is
// left byte-for-byte untouched.
package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// ScratchDirMode selects the directory the scratch file is staged in.
type ScratchDirMode int

const (
	// ScratchSibling stages the scratch file next to the target, so the
	// commit rename never crosses a filesystem. The default.
	ScratchSibling ScratchDirMode = iota

	// ScratchCwd stages it in the current working directory.
	ScratchCwd

	// ScratchTemp stages it in the system temporary directory.
	ScratchTemp

	// ScratchExplicit stages it in Config.ScratchDir.
	ScratchExplicit
)

// Config carries the fully resolved inputs for one run. Shell indirection,
// config files, and flag parsing are the caller's concern; by the time a
// Config reaches the engine it names one file and one concrete command.
type Config struct {
	// TargetPath names the file to rewrite. It must be an existing regular
	// file.
	TargetPath string

	// Program and Args are the command that produces the new contents.
	Program string
	Args    []string

	// ExtraEnv is appended to the inherited environment as KEY=VALUE
	// entries. The REWRITE_* bindings are appended after it and win on
	// collision.
	ExtraEnv []string

	// InjectEnv controls the REWRITE_TEMPFILE, REWRITE_OUTPUT and
	// REWRITE_INPUT bindings.
	InjectEnv bool

	// UseStdin feeds the command this process's standard input instead of
	// the target's contents. The target is still opened and still replaced.
	UseStdin bool

	// NoOp runs the command and classifies its result but never commits.
	NoOp bool

	// ScratchMode and ScratchDir choose where the scratch file lives.
	// ScratchDir is consulted only in ScratchExplicit mode.
	ScratchMode ScratchDirMode
	ScratchDir  string

	// Credential, when non-nil, runs the command as another user.
	Credential *Credential

	// Log receives debug traces of the run. Use zerolog.Nop() to silence.
	Log zerolog.Logger
}

// Coordinator drives one rewrite from open to commit or discard.
type Coordinator struct {
	cfg Config
	log zerolog.Logger
}

// New validates cfg and builds a Coordinator for a single run.
func New(cfg Config) (*Coordinator, error) {
	if cfg.TargetPath == "" {
		return nil, fmt.Errorf("coordinator: target path is required")
	}
	if cfg.Program == "" {
		return nil, fmt.Errorf("coordinator: command is required")
	}
	if cfg.ScratchMode == ScratchExplicit && cfg.ScratchDir == "" {
		return nil, fmt.Errorf("coordinator: explicit scratch mode requires a directory")
	}
	return &Coordinator{cfg: cfg, log: cfg.Log}, nil
}

// Run executes the rewrite. It returns nil only when the command exited 0
// and, unless the run is a no-op, the target was atomically replaced with
// the command's output. A nonzero exit comes back as *ExitError, a signaled
// command as *SignalError, and everything else as *Error.
func (c *Coordinator) Run() error {
	target, err := os.Open(c.cfg.TargetPath)
	if err != nil {
		return &Error{Op: OpOpen, Path: c.cfg.TargetPath, Err: err}
	}
	defer target.Close() //nolint:errcheck

	snap, err := CaptureSnapshot(target)
	if err != nil {
		return err
	}
	c.log.Debug().
		Str("target", c.cfg.TargetPath).
		Str("mode", snap.Mode.String()).
		Msg("opened target")

	dir, err := c.scratchDir()
	if err != nil {
		return &Error{Op: OpCreateScratch, Path: c.cfg.TargetPath, Err: err}
	}
	scratch, err := CreateScratch(dir, filepath.Base(c.cfg.TargetPath))
	if err != nil {
		return err
	}
	defer scratch.Abandon()
	c.log.Debug().Str("scratch", scratch.Path()).Msg("staged scratch file")

	childOut, err := scratch.Dup()
	if err != nil {
		return err
	}
	defer childOut.Close() //nolint:errcheck

	plan := c.buildPlan(target, childOut, scratch.Path())
	trace := c.log.Debug().
		Str("program", plan.Program).
		Strs("args", plan.Args)
	if plan.Credential != nil {
		trace = trace.Str("user", plan.Credential.Username)
	}
	trace.Msg("spawning command")

	var outcome Outcome
	child, err := Spawn(plan)
	if err != nil {
		outcome = Outcome{Kind: OutcomeSpawnFailed, Err: err}
	} else {
		defer child.Kill()
		outcome = child.Wait()
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		if c.cfg.NoOp {
			c.log.Debug().Msg("command succeeded, discarding output for no-op run")
			return nil
		}
		childOut.Close() //nolint:errcheck
		if err := scratch.Commit(c.cfg.TargetPath); err != nil {
			return err
		}
		c.log.Debug().Str("target", c.cfg.TargetPath).Msg("committed replacement")
		if err := snap.Restore(c.cfg.TargetPath); err != nil {
			return err
		}
		return nil
	case OutcomeExitCode:
		c.log.Debug().Int("code", outcome.Code).Msg("command declined the rewrite")
		return &ExitError{Code: outcome.Code}
	case OutcomeSignaled:
		return &SignalError{Signal: outcome.Signal}
	default:
		return outcome.Err
	}
}

// scratchDir resolves the directory the scratch file is created in.
func (c *Coordinator) scratchDir() (string, error) {
	switch c.cfg.ScratchMode {
	case ScratchExplicit:
		return c.cfg.ScratchDir, nil
	case ScratchTemp:
		return os.TempDir(), nil
	case ScratchCwd:
		return os.Getwd()
	default:
		return filepath.Dir(c.cfg.TargetPath), nil
	}
}

// buildPlan assembles the immutable invocation: full child environment and
// stdio wiring around the already resolved command.
func (c *Coordinator) buildPlan(target, childOut *os.File, scratchPath string) Plan {
	env := os.Environ()
	env = append(env, c.cfg.ExtraEnv...)
	if c.cfg.InjectEnv {
		output := absPath(c.cfg.TargetPath)
		input := output
		if c.cfg.UseStdin {
			input = EnvStdinSentinel
		}
		env = append(env,
			EnvTempfile+"="+absPath(scratchPath),
			EnvOutput+"="+output,
			EnvInput+"="+input,
		)
	}

	stdin := target
	if c.cfg.UseStdin {
		stdin = os.Stdin
	}

	return Plan{
		Program:    c.cfg.Program,
		Args:       c.cfg.Args,
		Env:        env,
		Stdin:      stdin,
		Stdout:     childOut,
		Credential: c.cfg.Credential,
	}
}

// absPath absolutizes p for the child's environment, best effort.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
