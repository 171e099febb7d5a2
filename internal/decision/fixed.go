// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package decision

import (
	"context"
)

var _ Decider = Fixed{}

// Fixed gives the same answers to every question. It drives unattended
// rollouts and tests.
type Fixed struct {
	Yes    bool   // Answer to every confirmation
	Answer string // Answer to every free-text question
}

// Confirm implements Decider.
func (f Fixed) Confirm(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return f.Yes, nil
}

// Ask implements Decider.
func (f Fixed) Ask(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return f.Answer, nil
}
