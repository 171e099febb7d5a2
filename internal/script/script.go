// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script models the deployment artifacts found in a rollout tree and
// the file naming conventions that drive how they are executed.
package script

import (
	"path/filepath"
	"strings"
)

const (
	// ProcSuffix marks stored-procedure scripts. They use ProcDelimiter and are
	// never preprocessed.
	ProcSuffix = "proc.sql"
	// GroupMarker marks scripts that may run concurrently with their neighbours.
	GroupMarker = "multi"
	// RunLogSuffix is appended to the base name for the run log.
	RunLogSuffix = "_run.log"
	// ErrLogSuffix is appended to the base name for the error log.
	ErrLogSuffix = "_err.log"
	// DefaultDelimiter terminates statements in plain SQL scripts.
	DefaultDelimiter = ";"
	// ProcDelimiter terminates statements in stored-procedure scripts.
	ProcDelimiter = "/"
)

// Kind is the type of a script file.
type Kind int

const (
	// KindSQL is a SQL script, identified by the .sql suffix.
	KindSQL Kind = iota
	// KindShell is a shell script, identified by the .sh suffix.
	KindShell
)

// Suffix returns the lower-case file suffix for the kind.
func (k Kind) Suffix() string {
	switch k {
	case KindSQL:
		return ".sql"
	case KindShell:
		return ".sh"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSQL:
		return "sql"
	case KindShell:
		return "shell"
	default:
		return "unknown"
	}
}

// Matches reports whether path carries the kind's suffix, ignoring case.
func (k Kind) Matches(path string) bool {
	s := k.Suffix()
	return s != "" && strings.HasSuffix(strings.ToLower(path), s)
}

// File is a discovered script. It is immutable once created.
type File struct {
	Path     string // Absolute path.
	Kind     Kind
	BaseName string // File name without its final extension.
}

// NewFile returns the File for path.
func NewFile(path string, kind Kind) File {
	name := filepath.Base(path)

	return File{
		Path:     path,
		Kind:     kind,
		BaseName: strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

// Name returns the file name.
func (f File) Name() string {
	return filepath.Base(f.Path)
}

// Dir returns the directory holding the file.
func (f File) Dir() string {
	return filepath.Dir(f.Path)
}

// IsProc reports whether the file is a stored-procedure script.
func (f File) IsProc() bool {
	return f.Kind == KindSQL && strings.HasSuffix(strings.ToLower(f.Path), ProcSuffix)
}

// Delimiter returns the statement terminator for the file.
func (f File) Delimiter() string {
	if f.IsProc() {
		return ProcDelimiter
	}

	return DefaultDelimiter
}

// RunLogPath is where every executed statement of the file is logged.
func (f File) RunLogPath() string {
	return filepath.Join(f.Dir(), f.BaseName+RunLogSuffix)
}

// ErrLogPath is where failures of the file are logged.
func (f File) ErrLogPath() string {
	return filepath.Join(f.Dir(), f.BaseName+ErrLogSuffix)
}

// Paths returns the paths of files, in order.
func Paths(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}

	return out
}
