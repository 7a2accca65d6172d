package engine

import (
	"errors"
	"os"
)

var errNotRegular = errors.New("not a regular file")

// modeBits is the part of a file mode that Restore reapplies: the
// permission bits plus setuid, setgid and sticky, exactly the set
// os.Chmod honors.
const modeBits = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

// Snapshot preserves the access metadata of the target as it was when the
// run began, so the committed replacement is indistinguishable from an
// in-place edit of the original.
type Snapshot struct {
	// Mode carries the modeBits of the target.
	Mode os.FileMode

	// UID and GID are captured on platforms that report ownership;
	// HasOwner says whether they are set.
	UID, GID int
	HasOwner bool
}

// CaptureSnapshot reads permission metadata through the open target handle,
// so the snapshot describes the very file the command reads even if the
// path is replaced underneath the run.
func CaptureSnapshot(f *os.File) (Snapshot, error) {
	info, err := f.Stat()
	if err != nil {
		return Snapshot{}, &Error{Op: OpQueryPermissions, Path: f.Name(), Err: err}
	}
	if !info.Mode().IsRegular() {
		return Snapshot{}, &Error{Op: OpOpen, Path: f.Name(), Err: errNotRegular}
	}
	snap := Snapshot{Mode: info.Mode() & modeBits}
	captureOwner(info, &snap)
	return snap, nil
}

// Restore applies the snapshot to the committed file. A failure here does
// not undo the rewrite; the new contents are already in place and the
// caller decides how loudly to report the mismatch.
func (s Snapshot) Restore(path string) error {
	if err := os.Chmod(path, s.Mode); err != nil {
		return &Error{Op: OpRestorePermissions, Path: path, Err: err}
	}
	if s.HasOwner {
		if err := restoreOwner(path, s); err != nil {
			return &Error{Op: OpRestorePermissions, Path: path, Err: err}
		}
	}
	return nil
}
