package types

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrInvalidPath is matched by every InvalidPathError
	ErrInvalidPath = errors.New("invalid repository path")

	// ErrPathNotFound is matched by an InvalidPathError whose path does not exist
	ErrPathNotFound = errors.New("repository path not found")

	// ErrUnsupportedCI is matched by every UnsupportedCIError
	ErrUnsupportedCI = errors.New("unsupported CI platform")
)

// InvalidPathError reports a scan root that does not exist or is not a directory
type InvalidPathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidPathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid repository path %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid repository path %s: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Unwrap() error {
	return e.Err
}

func (e *InvalidPathError) Is(target error) bool {
	switch target {
	case ErrInvalidPath:
		return true
	case ErrPathNotFound:
		return errors.Is(e.Err, fs.ErrNotExist)
	}
	return false
}

// UnsupportedCIError reports a CI platform no generator exists for
type UnsupportedCIError struct {
	Requested string
	Supported []string
}

func (e *UnsupportedCIError) Error() string {
	return fmt.Sprintf("unsupported CI type: %s. Supported types: %s", e.Requested, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedCIError) Is(target error) bool {
	return target == ErrUnsupportedCI
}
