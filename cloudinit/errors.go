// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package cloudinit

import (
	"errors"
	"fmt"
)

var ErrNotRegularFile = errors.New("not a regular file")

// SourceReadError is returned when the file referenced by a document path
// could not be read.
type SourceReadError struct {
	Kind DocumentKind
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("cloudinit: unable to read %s source %s: %v", e.Kind, e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// DirectoryCreateError is returned when the working directory could not be
// created.
type DirectoryCreateError struct {
	Path string
	Err  error
}

func (e *DirectoryCreateError) Error() string {
	return fmt.Sprintf("cloudinit: unable to create directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryCreateError) Unwrap() error { return e.Err }

// WriteError is returned when a document could not be written into the
// working directory.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cloudinit: unable to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// CleanupError is returned when the working directory could not be removed.
// Leaving a stale directory behind is harmless, callers usually only log it.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cloudinit: unable to remove %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }
