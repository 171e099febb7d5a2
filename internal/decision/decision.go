// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package decision supplies the answers a rollout needs from its operator:
// yes/no confirmations and free-text values such as shell parameters.
//
// Answers come from a pre-recorded line stream, from the terminal, or from
// fixed values, so the rollout itself never reads standard input.
package decision

import (
	"context"
	"errors"
	"strings"
)

const (
	yes = "y"
	no  = "n"
)

var (
	// ErrNoMoreAnswers is returned when an answer stream has run out.
	ErrNoMoreAnswers = errors.New("no more answers")
	// ErrAborted is returned when the operator aborts a prompt.
	ErrAborted = errors.New("prompt aborted")
)

// Decider answers questions.
type Decider interface {
	// Confirm asks a yes/no question. Anything other than y or n is asked again.
	Confirm(ctx context.Context, question string) (bool, error)
	// Ask asks for a free-text value. The answer is returned verbatim.
	Ask(ctx context.Context, question string) (string, error)
}

// SecretAsker is implemented by deciders that can read a value without echoing it.
type SecretAsker interface {
	AskSecret(ctx context.Context, question string) (string, error)
}

// AskSecret asks d for a secret, falling back to Ask when d cannot hide input.
func AskSecret(ctx context.Context, d Decider, question string) (string, error) {
	if s, ok := d.(SecretAsker); ok {
		return s.AskSecret(ctx, question)
	}

	return d.Ask(ctx, question)
}

// parseYesNo accepts y or n in any case with surrounding blanks.
func parseYesNo(s string) (answer bool, valid bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case yes:
		return true, true
	case no:
		return false, true
	default:
		return false, false
	}
}

// confirmQuestion formats a yes/no question.
func confirmQuestion(q string) string {
	return q + " ('y' or 'n')"
}
