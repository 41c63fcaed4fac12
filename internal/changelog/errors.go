package changelog

import (
	"errors"
	"fmt"
)

// ErrNoRelease indicates the document has no "## " release section after its title.
var ErrNoRelease = errors.New("no release section found")

// NoReleaseError carries the document that failed selection.
type NoReleaseError struct {
	Source   string
	Segments int
}

func (e *NoReleaseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s (found %d segment(s), need at least 2)", ErrNoRelease, e.Segments)
	}
	return fmt.Sprintf("%s in %s (found %d segment(s), need at least 2)", ErrNoRelease, e.Source, e.Segments)
}

// Unwrap allows errors.Is(err, ErrNoRelease).
func (e *NoReleaseError) Unwrap() error {
	return ErrNoRelease
}

// FileError reports a failed read of the changelog or write of the output.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
