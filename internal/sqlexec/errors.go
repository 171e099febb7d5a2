// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sqlexec

import (
	"errors"
	"fmt"
)

var (
	// ErrScriptMissing is returned when a script disappeared between discovery and execution.
	ErrScriptMissing = errors.New("script file does not exist")
	// ErrHadErrors means the script's error log is not empty.
	ErrHadErrors = errors.New("script had errors")
	// ErrLogArtifact is returned when a log artifact cannot be written or inspected.
	ErrLogArtifact = errors.New("failed to handle log artifact")
	// ErrReadScript is returned when a script cannot be read.
	ErrReadScript = errors.New("failed to read script")
)

// ScriptError identifies the script a failure belongs to.
type ScriptError struct {
	Path   string
	ErrLog string // Error log of the script, if one was written
	Err    error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.ErrLog != "" {
		return fmt.Sprintf("script %s: %v (see %s)", e.Path, e.Err, e.ErrLog)
	}

	return fmt.Sprintf("script %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}
