// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/sqlroll/internal/color"
)

const resultsHeader = "===== Results ====="

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include command output
	IncludeStdErr      bool // Whether to include command error output
	ShowSuccessDetails bool // Whether to show output of successful commands
}

// DefaultOutputOptions returns the default output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

// WriteResults writes results to w as an indented tree.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	if _, err := fmt.Fprintf(w, "%s\n\n", resultsHeader); err != nil {
		return err //nolint:wrapcheck
	}

	for _, r := range results {
		if err := writeResultWithIndent(w, r, "", options); err != nil {
			return err
		}
	}

	return nil
}

func statusStyle(s ResultStatus) (string, color.Code) {
	switch s {
	case ResultStatusSuccess:
		return "✓", color.FgGreen
	case ResultStatusWarning:
		return "!", color.FgYellow
	case ResultStatusError:
		return "✗", color.FgRed
	case ResultStatusSkipped:
		return "~", color.FgCyan
	default:
		return "?", color.FgWhite
	}
}

func writeResultWithIndent(w io.Writer, r *Result, indent string, options *OutputOptions) error {
	symbol, code := statusStyle(r.Status)

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "%s%s %s", indent, color.Colorize(symbol, code), color.Colorize(label, color.Bold, code))

	if r.ExitCode != 0 {
		fmt.Fprintf(&sb, " (exit code: %d)", r.ExitCode)
	}

	sb.WriteString("\n")

	// ErrResultChildrenHasError repeats what the children already show.
	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		prefix := "➜ Error:"
		if r.Status == ResultStatusWarning {
			prefix = "➜ Warning:"
		}

		fmt.Fprintf(&sb, "%s  %s %s\n", indent, color.Colorize(prefix, code), r.Error.Error())
	}

	showDetails := len(r.Children) == 0 &&
		(r.Status == ResultStatusError || r.Status == ResultStatusWarning || options.ShowSuccessDetails)

	if showDetails && options.IncludeStdOut && len(r.StdOut) > 0 {
		fmt.Fprintf(&sb, "%s  ➜ Output:\n", indent)
		sb.WriteString(formatOutput(r.StdOut, indent+"     "))
	}

	if showDetails && options.IncludeStdErr && len(r.StdErr) > 0 {
		fmt.Fprintf(&sb, "%s  %s\n", indent, color.Colorize("➜ Error Output:", color.FgHiRed))
		sb.WriteString(formatOutput(r.StdErr, indent+"     "))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err //nolint:wrapcheck
	}

	for _, child := range r.Children {
		if err := writeResultWithIndent(w, child, indent+"  ", options); err != nil {
			return err
		}
	}

	return nil
}

// formatOutput indents every non-empty line of output.
func formatOutput(output []byte, indent string) string {
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")

	var sb strings.Builder

	sb.Grow(len(output) + len(lines)*len(indent))

	for _, line := range lines {
		if line != "" {
			sb.WriteString(indent)
			sb.WriteString(line)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
