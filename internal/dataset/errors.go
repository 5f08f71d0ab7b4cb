package dataset

import (
	"errors"
	"fmt"
)

// ErrFileNotFound is matched by MissingFileError via errors.Is.
var ErrFileNotFound = errors.New("input file not found")

// MissingFileError reports an input path that does not name a regular file.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *MissingFileError) Unwrap() error { return ErrFileNotFound }

// ErrNoYear indicates a source whose year tag could not be determined.
var ErrNoYear = errors.New("cannot determine year for input")
