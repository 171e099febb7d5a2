// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rollout drives a rollout across the subdirectories of a root.
//
// Directories run in sorted order. In each one the shell scripts run
// first, then the SQL scripts are preprocessed, planned into units and
// run unit by unit. A fatal error skips everything after it.
package rollout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/matt-FFFFFF/sqlroll/internal/config"
	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/decision"
	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/matt-FFFFFF/sqlroll/internal/scanner"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/matt-FFFFFF/sqlroll/internal/shellrunner"
	"github.com/matt-FFFFFF/sqlroll/internal/sqlexec"
	"github.com/spf13/afero"
)

const rolloutLabel = "rollout"

// ErrStopRequested is returned when RequestStop ended the rollout early.
var ErrStopRequested = errors.New("rollout stop requested")

// Orchestrator runs one rollout. It is not reusable.
type Orchestrator struct {
	cfg     config.RunConfiguration
	fs      afero.Fs
	decider decision.Decider
	exec    *sqlexec.Executor
	shell   *shellrunner.Runner
	matcher script.TagMatcher
	state   atomic.Int32
	stop    atomic.Bool
}

// New returns an Orchestrator for cfg. Scripts are found and rewritten on
// fsys, SQL runs on connections from conn and d answers the operator
// questions.
func New(cfg config.RunConfiguration, fsys afero.Fs, conn sqlexec.Connector, d decision.Decider) (*Orchestrator, error) {
	m, err := script.NewTagMatcher(cfg.Grouping)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &Orchestrator{
		cfg:     cfg,
		fs:      fsys,
		decider: d,
		exec:    sqlexec.New(conn, fsys, sqlexec.WithScriptTimeout(cfg.ScriptTimeout)),
		shell:   shellrunner.New(d, fsys),
		matcher: m,
	}, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// RequestStop asks the rollout to stop once the running unit finishes.
// It is safe to call from any goroutine.
func (o *Orchestrator) RequestStop() {
	o.stop.Store(true)
}

func (o *Orchestrator) stopRequested() bool {
	return o.stop.Load()
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.state.Store(int32(s))
	ctxlog.Debug(ctx, "rollout state", "state", s.String())
}

// Run executes the rollout and returns its result tree. The error is the
// fatal error that aborted the rollout, or nil when it reached the end.
func (o *Orchestrator) Run(ctx context.Context) (runbatch.Results, error) {
	o.setState(ctx, StateScanningDirs)

	dirs, err := scanner.Dirs(ctx, o.fs, o.cfg.Root)
	if err != nil {
		o.setState(ctx, StateAbort)
		return nil, err //nolint:wrapcheck
	}

	ctxlog.Info(ctx, "rollout starting",
		"root", o.cfg.Root,
		"directories", len(dirs),
		"stopOnError", o.cfg.StopOnError,
		"autoConfirm", o.cfg.AutoConfirm,
		"grouping", o.cfg.Grouping)

	stages := make([]runbatch.Runnable, len(dirs))
	for i, dir := range dirs {
		stages[i] = newDirStage(o, dir)
	}

	batch := runbatch.NewSerialBatch(runbatch.NewBaseCommand(rolloutLabel, o.cfg.Root, runbatch.RunOnSuccess, nil), stages...)
	results := batch.Run(ctx)

	if results.HasError() {
		o.setState(ctx, StateAbort)

		err := fatalError(results)
		if err == nil {
			err = runbatch.ErrResultChildrenHasError
		}

		files := failedFiles(err)

		var be *runbatch.BatchError
		if errors.As(err, &be) && len(files) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.Join(files, ", "))
		}

		ctxlog.Error(ctx, "rollout stopped due to run error", "files", files, "error", err)

		return results, err
	}

	o.setState(ctx, StateDone)
	ctxlog.Info(ctx, "rollout complete", "warnings", results.HasWarning())

	return results, nil
}

// fatalError returns the first error in r that is not just a report of
// failed children.
func fatalError(r runbatch.Results) error {
	for _, v := range r {
		if v.Status != runbatch.ResultStatusError {
			continue
		}

		if v.Error != nil && !errors.Is(v.Error, runbatch.ErrResultChildrenHasError) {
			return v.Error
		}

		if err := fatalError(v.Children); err != nil {
			return err
		}
	}

	return nil
}

// failedFiles names the scripts behind err, sorted.
func failedFiles(err error) []string {
	var be *runbatch.BatchError
	if errors.As(err, &be) {
		var files []string

		if be.Errs != nil {
			for _, e := range be.Errs.Errors {
				var se *sqlexec.ScriptError
				if errors.As(e, &se) {
					files = append(files, se.Path)
				}
			}
		}

		if len(files) == 0 {
			return be.Failed
		}

		slices.Sort(files)

		return files
	}

	var se *sqlexec.ScriptError
	if errors.As(err, &se) {
		return []string{se.Path}
	}

	return nil
}
