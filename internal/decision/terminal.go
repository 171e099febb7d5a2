// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package decision

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/peterh/liner"
)

var _ Decider = (*Terminal)(nil)

// Terminal prompts the operator on the controlling terminal.
// It must be closed to restore the terminal mode.
type Terminal struct {
	line *liner.State
}

// NewTerminal starts line editing on the terminal.
func NewTerminal() *Terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	return &Terminal{line: line}
}

// Close restores the terminal.
func (t *Terminal) Close() error {
	return t.line.Close() //nolint:wrapcheck
}

// Ask implements Decider.
func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ans, err := t.line.Prompt(question + ": ")
	if err != nil {
		return "", promptError(err)
	}

	if ans != "" {
		t.line.AppendHistory(ans)
	}

	return ans, nil
}

// AskSecret implements SecretAsker.
func (t *Terminal) AskSecret(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ans, err := t.line.PasswordPrompt(question + ": ")
	if err != nil {
		return "", promptError(err)
	}

	return ans, nil
}

// Confirm implements Decider.
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		ans, err := t.Ask(ctx, confirmQuestion(question))
		if err != nil {
			return false, err
		}

		if v, ok := parseYesNo(ans); ok {
			return v, nil
		}

		ctxlog.Warn(ctx, "invalid answer, expected 'y' or 'n'", "answer", ans)
	}
}

func promptError(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return ErrAborted
	}

	return fmt.Errorf("reading answer: %w", err)
}
