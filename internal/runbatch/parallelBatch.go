// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"golang.org/x/sync/semaphore"
)

var _ Runnable = (*ParallelBatch)(nil)

// ParallelBatch runs its commands concurrently and waits for all of them.
// MaxParallelism bounds how many run at once; zero means no bound.
type ParallelBatch struct {
	*BaseCommand
	Commands       []Runnable // The commands or nested batches to run
	MaxParallelism int
}

// NewParallelBatch returns a ParallelBatch that owns cmds.
func NewParallelBatch(base *BaseCommand, maxParallelism int, cmds ...Runnable) *ParallelBatch {
	b := &ParallelBatch{BaseCommand: base, Commands: cmds, MaxParallelism: maxParallelism}
	setParents(b, cmds)

	return b
}

// Run implements the Runnable interface for ParallelBatch.
// Child results keep the order of Commands. When any child fails the batch
// result carries a *BatchError naming every failed child.
func (b *ParallelBatch) Run(ctx context.Context) Results {
	logger := ctxlog.Logger(ctx).
		With("label", FullLabel(b)).
		With("runnableType", "ParallelBatch")

	limit := int64(len(b.Commands))
	if b.MaxParallelism > 0 && int64(b.MaxParallelism) < limit {
		limit = int64(b.MaxParallelism)
	}

	sem := semaphore.NewWeighted(max(limit, 1))
	children := make([]Results, len(b.Commands))

	var g multierror.Group

	for i, cmd := range b.Commands {
		cmd.InheritEnv(b.Env)
		cmd.SetCwd(b.Cwd)

		if err := sem.Acquire(ctx, 1); err != nil {
			logger.Debug("context done, not starting command", "commandLabel", cmd.GetLabel())

			children[i] = Results{{
				Label:    cmd.GetLabel(),
				Status:   ResultStatusSkipped,
				ExitCode: -1,
				Error:    err,
			}}

			continue
		}

		g.Go(func() error {
			defer sem.Release(1)

			r := cmd.Run(ctx)
			children[i] = r

			if r.HasError() {
				return fmt.Errorf("%s: %w", cmd.GetLabel(), firstError(r))
			}

			return nil
		})
	}

	merr := g.Wait()

	flat := make(Results, 0, len(b.Commands))
	for _, r := range children {
		flat = append(flat, r...)
	}

	res := &Result{
		Label:    b.GetLabel(),
		Status:   ResultStatusSuccess,
		Children: flat,
	}

	if failed := flat.FailedLabels(); len(failed) > 0 || ctx.Err() != nil {
		res.ExitCode = -1
		res.Status = ResultStatusError
		res.Error = &BatchError{Label: b.GetLabel(), Failed: failed, Errs: merr}

		if len(failed) == 0 {
			res.Error = ctx.Err()
		}

		logger.Debug("parallel batch failed", "failed", failed)
	} else if flat.HasWarning() {
		res.Status = ResultStatusWarning
	}

	return Results{res}
}

// firstError returns the first error found in a failed result tree.
func firstError(r Results) error {
	for _, v := range r {
		if len(v.Children) > 0 {
			if err := firstError(v.Children); err != nil {
				return err
			}
		}

		if v.Status == ResultStatusError && v.Error != nil {
			return v.Error
		}
	}

	return ErrResultChildrenHasError
}
