// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shellrunner runs the shell scripts of a rollout directory.
//
// Every script is confirmed with the operator and given a parameter string
// before it runs. Script failures are reported and logged, never fatal: only
// a failure to get an answer stops the stage.
package shellrunner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/decision"
	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/matt-FFFFFF/sqlroll/internal/scanner"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
)

const (
	shellName       = "sh"
	failedFormat    = "run failed-[%s]"
	skippedByAnswer = "not confirmed"
)

// LookPath finds the shell. It is a variable so tests can replace it.
var LookPath = exec.LookPath

// ErrShellNotFound is returned when no shell can be found on PATH.
var ErrShellNotFound = errors.New("shell not found")

// Runner runs shell scripts after asking the operator about each one.
type Runner struct {
	decider decision.Decider
	fs      afero.Fs
}

// New returns a Runner that asks d and discovers scripts on fsys.
func New(d decision.Decider, fsys afero.Fs) *Runner {
	return &Runner{decider: d, fs: fsys}
}

// Stage returns a serial batch running every shell script under dir in
// sorted order. The batch is empty when there are none.
func (r *Runner) Stage(ctx context.Context, dir string) (*runbatch.SerialBatch, error) {
	files, err := scanner.Scan(ctx, r.fs, dir, script.KindShell)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	ctxlog.Info(ctx, "found shell scripts", "dir", dir, "count", len(files))

	cmds := make([]runbatch.Runnable, len(files))
	for i, f := range files {
		cmds[i] = runbatch.NewFunctionCommand(f.Name(), func(ctx context.Context, _ string) runbatch.FunctionCommandReturn {
			return r.RunScript(ctx, f)
		})
	}

	return runbatch.NewSerialBatch(runbatch.NewBaseCommand("shell", dir, runbatch.RunOnSuccess, nil), cmds...), nil
}

// RunScript confirms, parameterises and runs one script. An unanswered
// question is an error; a script that fails or cannot run is a warning.
func (r *Runner) RunScript(ctx context.Context, f script.File) runbatch.FunctionCommandReturn {
	ok, err := r.decider.Confirm(ctx, "run "+f.Path)
	if err != nil {
		return runbatch.FunctionCommandReturn{Err: err}
	}

	if !ok {
		ctxlog.Info(ctx, "shell script skipped", "script", f.Path)
		return runbatch.FunctionCommandReturn{Output: []byte(skippedByAnswer)}
	}

	params, err := r.decider.Ask(ctx, "parameters for "+f.Name())
	if err != nil {
		return runbatch.FunctionCommandReturn{Err: err}
	}

	out, runErr := Run(ctx, f, params)
	ctxlog.Info(ctx, "shell script output", "script", f.Path, "output", out)

	if runErr != nil {
		return runbatch.FunctionCommandReturn{Warning: runErr, Output: []byte(out)}
	}

	return runbatch.FunctionCommandReturn{Output: []byte(out)}
}

// Run executes "sh file params" in the file's directory and returns the
// combined output. params is split with shell quoting rules. A script that
// runs and exits non-zero returns its output and an error wrapping
// runbatch.ErrNonZeroExit. When the script cannot be run at all the text is
// the failure message "run failed-[...]" and the error says why.
func Run(ctx context.Context, f script.File, params string) (string, error) {
	args, err := shellquote.Split(params)
	if err != nil {
		return fmt.Sprintf(failedFormat, err), fmt.Errorf("parsing parameters %q: %w", params, err)
	}

	sh, err := LookPath(shellName)
	if err != nil {
		return fmt.Sprintf(failedFormat, err), errors.Join(ErrShellNotFound, err)
	}

	cmd := runbatch.NewOSCommand(f.Name(), f.Dir(), sh, append([]string{f.Path}, args...)...)
	res := cmd.Run(ctx)[0]

	if errors.Is(res.Error, runbatch.ErrCouldNotStartProcess) || errors.Is(res.Error, runbatch.ErrFailedToCreatePipe) {
		return fmt.Sprintf(failedFormat, res.Error), res.Error
	}

	return string(res.StdOut), res.Error
}
