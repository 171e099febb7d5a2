// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package rollout

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/planner"
	"github.com/matt-FFFFFF/sqlroll/internal/preprocess"
	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/matt-FFFFFF/sqlroll/internal/scanner"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/matt-FFFFFF/sqlroll/internal/sqlexec"
)

const (
	shellLabel   = "shell"
	sqlLabel     = "sql"
	summaryLabel = "summary"

	batchStartLine = "----------- parallel -----------"
	batchEndLine   = "--------------------------------"

	declinedOutput = "not confirmed"
)

var _ runbatch.Runnable = (*dirStage)(nil)

// dirStage handles one rollout directory. Its commands depend on what the
// directory holds when it runs, so they are built in Run.
type dirStage struct {
	*runbatch.BaseCommand
	o *Orchestrator
}

func newDirStage(o *Orchestrator, dir string) *dirStage {
	return &dirStage{
		BaseCommand: runbatch.NewBaseCommand(filepath.Base(dir), dir, runbatch.RunOnSuccess, nil),
		o:           o,
	}
}

// Run implements runbatch.Runnable.
func (d *dirStage) Run(ctx context.Context) runbatch.Results {
	dir := d.Cwd
	o := d.o
	ctx = ctxlog.New(ctx, ctxlog.Logger(ctx).With("dir", dir))

	res := &runbatch.Result{Label: d.GetLabel(), Status: runbatch.ResultStatusSuccess}
	fail := func(err error) runbatch.Results {
		res.Status = runbatch.ResultStatusError
		res.ExitCode = -1
		res.Error = err

		return runbatch.Results{res}
	}

	if o.stopRequested() {
		return fail(ErrStopRequested)
	}

	ctxlog.Info(ctx, "entering directory")

	if !o.cfg.AutoConfirm {
		ok, err := o.decider.Confirm(ctx, "continue with "+dir)
		if err != nil {
			return fail(err)
		}

		if !ok {
			ctxlog.Info(ctx, "directory skipped by operator")
			o.setState(ctx, StateAdvance)

			res.Status = runbatch.ResultStatusSkipped
			res.StdOut = []byte(declinedOutput)

			return runbatch.Results{res}
		}
	}

	o.setState(ctx, StateRunningShell)

	shell, err := o.shell.Stage(ctx, dir)
	if err != nil {
		return fail(err)
	}

	shell.SetParent(d)

	shellRes := shell.Run(ctx)
	res.Children = append(res.Children, shellRes...)

	if shellRes.HasError() {
		return fail(fatalOrDefault(shellRes))
	}

	o.setState(ctx, StateRunningSQL)

	files, err := scanner.Scan(ctx, o.fs, dir, script.KindSQL)
	if err != nil {
		return fail(err)
	}

	ctxlog.Info(ctx, "found sql scripts", "count", len(files))

	if n := preprocess.Files(ctx, o.fs, files); n > 0 {
		ctxlog.Debug(ctx, "rewrote sql scripts", "count", n)
	}

	units := planner.Plan(files, o.matcher)
	cmds := make([]runbatch.Runnable, 0, len(units)+1)
	t := &tally{}

	for _, u := range units {
		cmds = append(cmds, o.unitCommand(u, t))
	}

	cmds = append(cmds, summaryCommand(t))

	sql := runbatch.NewSerialBatch(runbatch.NewBaseCommand(sqlLabel, dir, runbatch.RunOnSuccess, nil), cmds...)
	sql.SetParent(d)

	sqlRes := sql.Run(ctx)
	res.Children = append(res.Children, sqlRes...)

	if sqlRes.HasError() {
		return fail(fatalOrDefault(sqlRes))
	}

	if res.Children.HasWarning() {
		res.Status = runbatch.ResultStatusWarning
	}

	o.setState(ctx, StateAdvance)

	return runbatch.Results{res}
}

func fatalOrDefault(r runbatch.Results) error {
	if err := fatalError(r); err != nil {
		return err
	}

	return runbatch.ErrResultChildrenHasError
}

// tally counts the scripts a directory ran and how many of them had errors.
type tally struct {
	run    atomic.Int32
	failed atomic.Int32
}

func (t *tally) record(rep sqlexec.Report, err error) {
	t.run.Add(1)

	if err != nil || rep.Outcome == sqlexec.OutcomeHadErrors {
		t.failed.Add(1)
	}
}

// summaryCommand reports the tally once the units of a directory are done,
// including after a failure.
func summaryCommand(t *tally) runbatch.Runnable {
	cmd := runbatch.NewFunctionCommand(summaryLabel, func(ctx context.Context, _ string) runbatch.FunctionCommandReturn {
		run, failed := t.run.Load(), t.failed.Load()
		ctxlog.Info(ctx, "directory finished", "scripts", run, "withErrors", failed)

		return runbatch.FunctionCommandReturn{Output: fmt.Appendf(nil, "%d script(s) run, %d with errors", run, failed)}
	})
	cmd.RunsOnCondition = runbatch.RunOnAlways

	return cmd
}

// unitCommand returns the command running u.
func (o *Orchestrator) unitCommand(u planner.Unit, t *tally) runbatch.Runnable {
	if u.Kind == planner.UnitSingle {
		f := u.Files[0]

		return runbatch.NewFunctionCommand(f.Name(), func(ctx context.Context, _ string) runbatch.FunctionCommandReturn {
			if o.stopRequested() {
				return runbatch.FunctionCommandReturn{Err: ErrStopRequested}
			}

			return o.runSingle(ctx, f, t)
		})
	}

	members := make([]runbatch.Runnable, len(u.Files))
	for i, f := range u.Files {
		members[i] = runbatch.NewFunctionCommand(f.Name(), func(ctx context.Context, _ string) runbatch.FunctionCommandReturn {
			return o.runMember(ctx, f, t)
		})
	}

	return &batchUnit{
		ParallelBatch: runbatch.NewParallelBatch(
			runbatch.NewBaseCommand(u.Label(), "", runbatch.RunOnSuccess, nil),
			o.cfg.MaxParallelism,
			members...,
		),
		o:     o,
		files: u.Files,
	}
}

// runSingle runs a script that is a unit of its own. Whether errors in the
// script abort the rollout depends on stop-on-error.
func (o *Orchestrator) runSingle(ctx context.Context, f script.File, t *tally) runbatch.FunctionCommandReturn {
	rep, err := o.exec.Execute(ctx, f)
	t.record(rep, err)
	out := []byte(summary(rep))

	if err != nil {
		return runbatch.FunctionCommandReturn{Err: err, Output: out}
	}

	switch sqlexec.Judge(rep, o.cfg.StopOnError) {
	case sqlexec.VerdictFail:
		return runbatch.FunctionCommandReturn{Err: rep.Err(), Output: out}
	case sqlexec.VerdictWarn:
		ctxlog.Warn(ctx, "script had errors, continuing because stop on error is off",
			"script", f.Path, "errLog", rep.ErrLog)

		return runbatch.FunctionCommandReturn{Warning: rep.Err(), Output: out}
	}

	return runbatch.FunctionCommandReturn{Output: out}
}

// runMember runs one script of a parallel batch. Any error in the script
// fails the batch, whatever stop-on-error says.
func (o *Orchestrator) runMember(ctx context.Context, f script.File, t *tally) runbatch.FunctionCommandReturn {
	rep, err := o.exec.Execute(ctx, f)
	t.record(rep, err)
	out := []byte(summary(rep))

	if err != nil {
		return runbatch.FunctionCommandReturn{Err: err, Output: out}
	}

	if err := rep.Err(); err != nil {
		return runbatch.FunctionCommandReturn{Err: err, Output: out}
	}

	return runbatch.FunctionCommandReturn{Output: out}
}

func summary(r sqlexec.Report) string {
	return fmt.Sprintf("%s: %d statement(s), %d failed", r.Outcome, r.Statements, r.Failed)
}

var _ runbatch.Runnable = (*batchUnit)(nil)

// batchUnit is a parallel batch framed by separator log lines.
type batchUnit struct {
	*runbatch.ParallelBatch
	o     *Orchestrator
	files []script.File
}

// Run implements runbatch.Runnable.
func (b *batchUnit) Run(ctx context.Context) runbatch.Results {
	if b.o.stopRequested() {
		return runbatch.Results{{
			Label:    b.GetLabel(),
			Status:   runbatch.ResultStatusError,
			ExitCode: -1,
			Error:    ErrStopRequested,
		}}
	}

	ctxlog.Info(ctx, batchStartLine, "scripts", script.Paths(b.files))

	res := b.ParallelBatch.Run(ctx)

	ctxlog.Info(ctx, batchEndLine)

	return res
}
