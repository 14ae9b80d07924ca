package download

import (
	"errors"
	"fmt"
)

// ChunkSize is the unit in which bodies are copied and progress reported.
const ChunkSize = 4096

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrCancelled             = errors.New("transfer cancelled")
	ErrGroupShutdown         = errors.New("download queue shut down")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
