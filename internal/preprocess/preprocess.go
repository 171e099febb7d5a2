// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package preprocess rewrites SQL scripts before execution: dialect-specific
// call syntax is replaced with the portable form and comments are replaced by
// a marker.
//
// Stored-procedure scripts (see script.ProcSuffix) and shell scripts are
// never rewritten.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
)

// CommentMarker replaces every stripped comment. It contains no comment
// delimiter of its own, so stripping twice changes nothing.
const CommentMarker = "-- comment replaced by sqlroll"

var (
	// ErrRead is returned when the script cannot be read.
	ErrRead = errors.New("failed to read script")
	// ErrWriteTemp is returned when the rewritten text cannot be staged.
	ErrWriteTemp = errors.New("failed to write temporary file")
	// ErrReplace is returned when the staged file cannot replace the original.
	ErrReplace = errors.New("failed to replace script")
)

// Substitution is one literal token rewrite.
type Substitution struct {
	Old string
	New string
}

// Substitutions are applied in order to non-procedure SQL scripts.
// No replacement contains any of the tokens, so applying them twice is the
// same as applying them once.
var Substitutions = []Substitution{
	{Old: "EXEC ", New: "call "},
	{Old: "exec ", New: "call "},
}

var commentPattern = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)

// Substitute applies Substitutions to text.
func Substitute(text string) string {
	for _, s := range Substitutions {
		text = strings.ReplaceAll(text, s.Old, s.New)
	}

	return text
}

// StripComments replaces each /* ... */ block and each // comment (to the
// end of its line) with CommentMarker. A block comment spanning several lines
// keeps its line breaks after the marker so line numbers still match.
func StripComments(text string) string {
	return commentPattern.ReplaceAllStringFunc(text, func(c string) string {
		return CommentMarker + strings.Repeat("\n", strings.Count(c, "\n"))
	})
}

// Text returns the rewritten form of text for f.
func Text(f script.File, text string) string {
	if f.Kind != script.KindSQL || f.IsProc() {
		return text
	}

	return StripComments(Substitute(text))
}

// File rewrites f in place when Text changes it. The new content is staged
// in a temporary file next to f and renamed over it; on any failure the
// original is left untouched and the temporary file removed.
// It reports whether the file was rewritten.
func File(ctx context.Context, fsys afero.Fs, f script.File) (bool, error) {
	raw, err := afero.ReadFile(fsys, f.Path)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrRead, f.Path, err)
	}

	text := string(raw)

	out := Text(f, text)
	if out == text {
		return false, nil
	}

	tmp, err := afero.TempFile(fsys, f.Dir(), "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrWriteTemp, f.Path, err)
	}

	tmpName := tmp.Name()

	_, werr := tmp.WriteString(out)
	cerr := tmp.Close()

	if err := errors.Join(werr, cerr); err != nil {
		_ = fsys.Remove(tmpName)
		return false, fmt.Errorf("%w: %s: %w", ErrWriteTemp, f.Path, err)
	}

	if info, err := fsys.Stat(f.Path); err == nil {
		_ = fsys.Chmod(tmpName, info.Mode().Perm())
	}

	if err := fsys.Rename(tmpName, f.Path); err != nil {
		_ = fsys.Remove(tmpName)
		return false, fmt.Errorf("%w: %s: %w", ErrReplace, f.Path, err)
	}

	ctxlog.Debug(ctx, "script preprocessed", "file", f.Path)

	return true, nil
}

// Files rewrites every file, logging failures instead of returning them.
// It returns how many files were rewritten.
func Files(ctx context.Context, fsys afero.Fs, files []script.File) int {
	n := 0

	for _, f := range files {
		changed, err := File(ctx, fsys, f)
		if err != nil {
			ctxlog.Warn(ctx, "preprocessing skipped, original script kept", "file", f.Path, "error", err)
			continue
		}

		if changed {
			n++
		}
	}

	return n
}
