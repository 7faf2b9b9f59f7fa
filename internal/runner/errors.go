package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn matches every *SpawnError.
	ErrSpawn = errors.New("cannot start runtime")
	// ErrEncoding is returned for an unknown output encoding name.
	ErrEncoding = errors.New("unknown output encoding")
)

// SpawnError reports that a block's process could not be created at all.
// It is distinct from a block that ran and exited non-zero.
type SpawnError struct {
	Command string
	Line    int
	Err     error
}

func (e *SpawnError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (block at line %d): %v", ErrSpawn, e.Command, e.Line, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", ErrSpawn, e.Command, e.Err)
}

func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawn, e.Err}
}
