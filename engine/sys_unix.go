//go:build unix

package engine

import (
	"os"
	"os/exec"
	"syscall"
)

// dupFile duplicates an open file handle. The copy refers to the same open
// file description but has an independent lifetime, so handing it to a
// child leaves the original usable for the flush before commit.
func dupFile(f *os.File) (*os.File, error) {
	fd, err := syscall.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	syscall.CloseOnExec(fd)
	return os.NewFile(uintptr(fd), f.Name()), nil
}

// exitSignal extracts the terminating signal from a wait status, when the
// child was in fact signaled.
func exitSignal(err *exec.ExitError) os.Signal {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ws.Signal()
	}
	return nil
}

// applyCredential arranges for the command to run under another uid/gid.
func applyCredential(cmd *exec.Cmd, cred *Credential) error {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Credential = &syscall.Credential{Uid: cred.UID, Gid: cred.GID}
	return nil
}

// captureOwner records the target's uid/gid from the stat payload.
func captureOwner(info os.FileInfo, snap *Snapshot) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		snap.UID = int(st.Uid)
		snap.GID = int(st.Gid)
		snap.HasOwner = true
	}
}

// restoreOwner re-applies ownership after a commit. Only a privileged
// process can give a file away, so it is attempted only when it can
// actually succeed; for everyone else the scratch file already carries the
// right owner.
func restoreOwner(path string, snap Snapshot) error {
	if os.Geteuid() != 0 {
		return nil
	}
	return os.Chown(path, snap.UID, snap.GID)
}
