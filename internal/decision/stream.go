// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package decision

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
)

var _ Decider = (*Stream)(nil)

// Stream answers from a line-oriented reader, one answer per line, in the
// order the questions are asked. It is how a run.conf file drives a rollout.
type Stream struct {
	mu   sync.Mutex
	sc   *bufio.Scanner
	echo io.Writer
}

// NewStream returns a Stream reading answers from r. When echo is not nil,
// every question and its answer are written to it.
func NewStream(r io.Reader, echo io.Writer) *Stream {
	return &Stream{sc: bufio.NewScanner(r), echo: echo}
}

// Ask implements Decider.
func (s *Stream) Ask(ctx context.Context, question string) (string, error) {
	return s.next(ctx, question, false)
}

// AskSecret implements SecretAsker. The answer is masked in the echo.
func (s *Stream) AskSecret(ctx context.Context, question string) (string, error) {
	return s.next(ctx, question, true)
}

// Confirm implements Decider.
func (s *Stream) Confirm(ctx context.Context, question string) (bool, error) {
	for {
		ans, err := s.next(ctx, confirmQuestion(question), false)
		if err != nil {
			return false, err
		}

		if v, ok := parseYesNo(ans); ok {
			return v, nil
		}

		ctxlog.Warn(ctx, "invalid answer, expected 'y' or 'n'", "question", question, "answer", ans)
	}
}

func (s *Stream) next(ctx context.Context, question string, secret bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoMoreAnswers, err)
		}

		return "", fmt.Errorf("%w: %s", ErrNoMoreAnswers, question)
	}

	ans := strings.TrimRight(s.sc.Text(), "\r")

	if s.echo != nil {
		shown := ans
		if secret {
			shown = strings.Repeat("*", len(ans))
		}

		fmt.Fprintf(s.echo, "%s: %s\n", question, shown) //nolint:errcheck
	}

	return ans, nil
}
