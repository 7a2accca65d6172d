package engine

import (
	"os"
	"strings"
)

// scratchPrefix marks every scratch file name so operators can recognize
// and sweep orphans left behind by a crash.
const scratchPrefix = ".rewrite-"

// Scratch is a staged output file. A command writes the replacement
// contents into it, and exactly one of Commit or Abandon ends its life.
type Scratch struct {
	path string
	file *os.File
	done bool
}

// CreateScratch makes a uniquely named scratch file in dir. The name embeds
// targetBase so an orphan is attributable to the file it was staged for.
func CreateScratch(dir, targetBase string) (*Scratch, error) {
	f, err := os.CreateTemp(dir, scratchPattern(targetBase))
	if err != nil {
		return nil, &Error{Op: OpCreateScratch, Path: targetBase, Err: err}
	}
	return &Scratch{path: f.Name(), file: f}, nil
}

// scratchPattern builds the CreateTemp pattern for a target base name.
// Path separators and pattern wildcards are flattened so a hostile base
// name cannot escape dir or add extra random segments.
func scratchPattern(base string) string {
	base = strings.Map(func(r rune) rune {
		switch r {
		case '*', '/', '\\':
			return '_'
		}
		return r
	}, base)
	return scratchPrefix + base + ".*"
}

// Path returns the scratch file's location.
func (s *Scratch) Path() string { return s.path }

// Dup opens a second, equally privileged OS handle on the scratch file to
// hand to the child process. The primary handle stays owned by the Scratch,
// and closing either handle never invalidates the other.
func (s *Scratch) Dup() (*os.File, error) {
	f, err := dupFile(s.file)
	if err != nil {
		return nil, &Error{Op: OpDuplicateHandle, Path: s.path, Err: err}
	}
	return f, nil
}

// Commit flushes the scratch file and renames it over targetPath in a
// single atomic step. On failure the target is untouched and the scratch
// file remains for Abandon to collect.
func (s *Scratch) Commit(targetPath string) error {
	if err := s.file.Sync(); err != nil {
		return &Error{Op: OpCommit, Path: targetPath, Err: err}
	}
	if err := s.file.Close(); err != nil {
		return &Error{Op: OpCommit, Path: targetPath, Err: err}
	}
	if err := os.Rename(s.path, targetPath); err != nil {
		return &Error{Op: OpCommit, Path: targetPath, Err: err}
	}
	s.done = true
	return nil
}

// Abandon closes and deletes an uncommitted scratch file. It is idempotent
// and a no-op after Commit, so it is safe to defer on every path.
func (s *Scratch) Abandon() {
	if s.done {
		return
	}
	s.done = true
	s.file.Close()    //nolint:errcheck
	os.Remove(s.path) //nolint:errcheck
}
