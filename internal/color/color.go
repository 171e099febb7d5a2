// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

const (
	// NoColor is the environment variable that disables color output.
	NoColor = "NO_COLOR"
	// ForceColor is the environment variable that forces color output.
	ForceColor = "FORCE_COLOR"

	escape = "\033["
	reset  = "\033[0m"
)

// Code is an SGR parameter.
type Code int

// The subset of SGR codes used by the console output.
const (
	Reset     Code = 0
	Bold      Code = 1
	Faint     Code = 2
	FgRed     Code = 31
	FgGreen   Code = 32
	FgYellow  Code = 33
	FgBlue    Code = 34
	FgMagenta Code = 35
	FgCyan    Code = 36
	FgWhite   Code = 37
	FgHiRed   Code = 91
	FgHiWhite Code = 97
)

var enabled atomic.Bool

func init() {
	enabled.Store(colorCapable())
}

// Enabled reports whether colour output is switched on.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled overrides terminal detection, e.g. for --no-color or in tests.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Sequence returns the escape sequence for the given codes, or "" when colour is off.
func Sequence(codes ...Code) string {
	if !Enabled() || len(codes) == 0 {
		return ""
	}

	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(int(c))
	}

	return escape + strings.Join(parts, ";") + "m"
}

// Colorize wraps str in the given codes followed by a reset.
func Colorize(str string, codes ...Code) string {
	if !Enabled() {
		return str
	}

	return Sequence(codes...) + str + reset
}

// ResetSequence returns the reset sequence, or "" when colour is off.
func ResetSequence() string {
	if !Enabled() {
		return ""
	}

	return reset
}

func colorCapable() bool {
	if os.Getenv(NoColor) != "" {
		return false
	}

	if os.Getenv(ForceColor) != "" {
		return true
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
