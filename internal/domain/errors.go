package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest rejects a submission before any process is spawned.
	ErrInvalidRequest = errors.New("content id and format id are required")
	// ErrNotFound signals that no artifact matches the requested name.
	ErrNotFound = errors.New("artifact not found")
	// ErrCanceled is the terminal outcome of a caller-initiated abort.
	ErrCanceled = errors.New("download canceled")
)

// StartError wraps a failure to spawn the fetch tool at all.
type StartError struct {
	Err error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start download process: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ToolError reports a non-zero exit of the fetch tool together with the
// tail of its diagnostic output.
type ToolError struct {
	ExitCode int
	Tail     []string
}

func (e *ToolError) Error() string {
	detail := strings.Join(e.Tail, " ")
	if detail == "" {
		detail = "unknown error"
	}
	return fmt.Sprintf("download failed: fetch tool exited with code %d: %s", e.ExitCode, detail)
}

// PackageError reports an archive step that failed after a successful fetch.
type PackageError struct {
	Err error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("download succeeded but packaging failed: %v", e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }
