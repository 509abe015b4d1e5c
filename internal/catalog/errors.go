package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for the catalog pipeline. Typed errors below match them via errors.Is.
var (
	// ErrNetwork indicates a remote resource could not be fetched
	ErrNetwork = errors.New("network error")

	// ErrTimeout indicates a remote fetch exceeded its deadline
	ErrTimeout = errors.New("network timeout")

	// ErrDecode indicates a document did not have the expected shape
	ErrDecode = errors.New("decode error")

	// ErrFilesystem indicates a local snapshot operation failed
	ErrFilesystem = errors.New("filesystem error")

	// ErrNotFound indicates a resource has no cached copy
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownResource indicates a resource name outside the configured set
	ErrUnknownResource = errors.New("unknown resource")
)

// NetworkError describes a failed remote fetch.
type NetworkError struct {
	Resource   string
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s (%s): timed out", e.Resource, e.URL)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s (%s): unexpected status %d", e.Resource, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s (%s): %v", e.Resource, e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s (%s) failed", e.Resource, e.URL)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	return target == ErrTimeout && e.Timeout
}

// DecodeError describes a document or element that could not be decoded.
// Index is -1 when the failure concerns the document envelope.
type DecodeError struct {
	Document string
	Index    int
	Key      string
	Field    string
	Raw      []byte
	Err      error
}

func (e *DecodeError) Error() string {
	loc := e.Document
	if loc == "" {
		loc = "document"
	}
	if e.Index >= 0 {
		loc = fmt.Sprintf("%s[%d]", loc, e.Index)
	}
	if e.Key != "" {
		loc = fmt.Sprintf("%s (key %q)", loc, e.Key)
	}
	if e.Field != "" {
		return fmt.Sprintf("decode %s: field %s: %v", loc, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", loc, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Snippet returns the raw element truncated to n bytes for log output.
func (e *DecodeError) Snippet(n int) string {
	if len(e.Raw) <= n {
		return string(e.Raw)
	}
	return string(e.Raw[:n]) + "..."
}

// FilesystemError describes a failed create, write, read or delete in the snapshot directory.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

func (e *FilesystemError) Is(target error) bool {
	return target == ErrFilesystem
}
