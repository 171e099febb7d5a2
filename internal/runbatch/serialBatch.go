// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"slices"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
)

var _ Runnable = (*SerialBatch)(nil)

// SerialBatch runs its commands one after another.
// A command whose ShouldRun check fails is reported as skipped.
type SerialBatch struct {
	*BaseCommand
	Commands []Runnable // The commands or nested batches to run
}

// NewSerialBatch returns a SerialBatch that owns cmds.
func NewSerialBatch(base *BaseCommand, cmds ...Runnable) *SerialBatch {
	b := &SerialBatch{BaseCommand: base, Commands: cmds}
	setParents(b, cmds)

	return b
}

// Run implements the Runnable interface for SerialBatch.
func (b *SerialBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("label", FullLabel(b)).
		With("runnableType", "SerialBatch")

	results := make(Results, 0, len(b.Commands))
	prev := PreviousCommandStatus{State: ResultStatusSuccess}

	for i, cmd := range slices.All(b.Commands) {
		if err := ctx.Err(); err != nil {
			logger.Debug("context done, skipping remaining commands", "remaining", len(b.Commands)-i)

			for _, rest := range b.Commands[i:] {
				results = append(results, &Result{
					Label:    rest.GetLabel(),
					Status:   ResultStatusSkipped,
					ExitCode: -1,
					Error:    err,
				})
			}

			break
		}

		cmd.InheritEnv(b.Env)
		cmd.SetCwd(b.Cwd)

		if cmd.ShouldRun(prev) == ShouldRunActionError {
			results = append(results, &Result{
				Label:  cmd.GetLabel(),
				Status: ResultStatusSkipped,
				Error:  ErrSkipOnError,
			})

			continue
		}

		child := cmd.Run(ctx)
		if len(child) > 0 {
			prev = PreviousCommandStatus{
				State:    child[0].Status,
				ExitCode: child[0].ExitCode,
				Err:      child[0].Error,
			}
		}

		results = append(results, child...)
	}

	res := &Result{
		Label:    b.GetLabel(),
		Status:   ResultStatusSuccess,
		Children: results,
	}

	switch {
	case results.HasError():
		res.ExitCode = -1
		res.Error = ErrResultChildrenHasError
		res.Status = ResultStatusError
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Error = ctx.Err()
		res.Status = ResultStatusError
	case results.HasWarning():
		res.Status = ResultStatusWarning
	}

	return Results{res}
}
