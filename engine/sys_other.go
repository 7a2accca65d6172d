//go:build !unix

package engine

import (
	"errors"
	"os"
	"os/exec"
)

// dupFile reopens the scratch file by name. There is no portable fd
// duplication here, and a second open file description serves the same
// purpose for the write end of a child process.
func dupFile(f *os.File) (*os.File, error) {
	return os.OpenFile(f.Name(), os.O_WRONLY, 0)
}

func exitSignal(err *exec.ExitError) os.Signal { return nil }

func applyCredential(cmd *exec.Cmd, cred *Credential) error {
	return errors.New("running as another user is not supported on this platform")
}

func captureOwner(info os.FileInfo, snap *Snapshot) {}

func restoreOwner(path string, snap Snapshot) error { return nil }
