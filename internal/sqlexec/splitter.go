// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sqlexec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnterminated is reported for trailing script text without a delimiter.
var ErrUnterminated = errors.New("line missing end-of-line terminator")

// Chunk is one piece of a split script.
type Chunk struct {
	Line    int    // 1-based line the chunk starts on
	Text    string // Statement without its delimiter, or the comment line
	Comment bool
}

// Split cuts a script into statements and comment lines.
//
// A line whose trimmed text starts with "--" or "//" is a comment. A line
// containing delim ends the current statement with the text before the
// last delimiter; whatever follows it on that line, usually a trailing
// comment, is dropped. Any other non-blank line is added to the current
// statement. Text left over at the end is returned as an
// ErrUnterminated error together with every complete chunk.
func Split(text, delim string) ([]Chunk, error) {
	var (
		chunks []Chunk
		stmt   strings.Builder
		start  int
	)

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "--"), strings.HasPrefix(trimmed, "//"):
			chunks = append(chunks, Chunk{Line: lineNo, Text: trimmed, Comment: true})
		case strings.Contains(trimmed, delim):
			if stmt.Len() == 0 {
				start = lineNo
			}

			stmt.WriteString(line[:strings.LastIndex(line, delim)])

			if s := strings.TrimSpace(stmt.String()); s != "" {
				chunks = append(chunks, Chunk{Line: start, Text: s})
			}

			stmt.Reset()
		case trimmed != "":
			if stmt.Len() == 0 {
				start = lineNo
			}

			stmt.WriteString(line)
			stmt.WriteString("\n")
		}
	}

	if rest := strings.TrimSpace(stmt.String()); rest != "" {
		return chunks, fmt.Errorf("%w (%s) at line %d => %s", ErrUnterminated, delim, start, rest)
	}

	return chunks, nil
}
