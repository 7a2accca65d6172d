package engine

import (
	"errors"
	"os"
	"os/exec"
)

// Child is a handle on a spawned command. Every Child must be resolved by
// Wait; Kill covers the paths that unwind before Wait runs.
type Child struct {
	cmd    *exec.Cmd
	waited bool
}

// Spawn starts the command described by plan. The command's output handle
// and input handle are passed to the child directly, so output streams into
// the scratch file without any buffering in this process.
func Spawn(plan Plan) (*Child, error) {
	cmd := exec.Command(plan.Program, plan.Args...)
	cmd.Env = plan.Env
	cmd.Stdin = plan.Stdin
	cmd.Stdout = plan.Stdout
	cmd.Stderr = os.Stderr
	if plan.Credential != nil {
		if err := applyCredential(cmd, plan.Credential); err != nil {
			return nil, &Error{Op: OpSpawn, Path: plan.Program, Err: err}
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, &Error{Op: OpSpawn, Path: plan.Program, Err: err}
	}
	return &Child{cmd: cmd}, nil
}

// Wait blocks until the command exits and classifies how it ended.
func (c *Child) Wait() Outcome {
	err := c.cmd.Wait()
	c.waited = true
	if err == nil {
		return Outcome{Kind: OutcomeSuccess}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return Outcome{Kind: OutcomeExitCode, Code: code}
		}
		// ExitCode is -1 when the child did not exit on its own.
		return Outcome{Kind: OutcomeSignaled, Signal: exitSignal(exitErr)}
	}
	// Wait itself failed; the command cannot be said to have run.
	return Outcome{Kind: OutcomeSpawnFailed, Err: &Error{Op: OpSpawn, Path: c.cmd.Path, Err: err}}
}

// Kill terminates and reaps the child if it has not been waited on yet. It
// exists for abnormal unwinds; after Wait it is a no-op, so it is safe to
// defer unconditionally.
func (c *Child) Kill() {
	if c.waited || c.cmd.Process == nil {
		return
	}
	c.waited = true
	c.cmd.Process.Kill() //nolint:errcheck
	c.cmd.Wait()         //nolint:errcheck
}
