// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
)

var _ Runnable = (*FunctionCommand)(nil)

// ErrSkipOnError marks commands skipped because an earlier command failed.
var ErrSkipOnError = errors.New("skip execution due to previous error")

// ErrFunctionCmdPanic is the error returned when a function command panics.
type ErrFunctionCmdPanic struct {
	v any
}

// NewErrFunctionCmdPanic creates an ErrFunctionCmdPanic for the recovered value v.
func NewErrFunctionCmdPanic(v any) error {
	return &ErrFunctionCmdPanic{v: v}
}

// Error implements the error interface.
func (e *ErrFunctionCmdPanic) Error() string {
	const prefix = "function command panic:"

	switch x := e.v.(type) {
	case error:
		return fmt.Sprintf("%s %s", prefix, x.Error())
	default:
		return fmt.Sprintf("%s %v", prefix, x)
	}
}

// Unwrap returns the recovered value when it is an error.
func (e *ErrFunctionCmdPanic) Unwrap() error {
	err, _ := e.v.(error)
	return err
}

// FunctionCommandFunc is the function run by a FunctionCommand.
// It receives the command's working directory.
type FunctionCommandFunc func(ctx context.Context, workingDirectory string) FunctionCommandReturn

// FunctionCommandReturn is what a FunctionCommandFunc reports.
// Err marks the command failed; Warning, when Err is nil, marks it as
// completed with problems.
type FunctionCommandReturn struct {
	Err     error
	Warning error
	Output  []byte
}

// FunctionCommand runs a Go function as a command.
type FunctionCommand struct {
	*BaseCommand
	Func FunctionCommandFunc
}

// NewFunctionCommand returns a FunctionCommand labelled label that runs fn.
func NewFunctionCommand(label string, fn FunctionCommandFunc) *FunctionCommand {
	return &FunctionCommand{
		BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil),
		Func:        fn,
	}
}

// Run implements the Runnable interface for FunctionCommand.
// Panics in the function are recovered and reported as errors. If ctx is
// cancelled first, Run returns without waiting for the function.
func (f *FunctionCommand) Run(ctx context.Context) Results {
	fullLabel := FullLabel(f)
	logger := ctxlog.Logger(ctx).
		With("runnableType", "FunctionCommand").
		With("label", fullLabel)

	if f.Func == nil {
		logger.Debug("no function to run, returning success")
		return Results{{Label: f.GetLabel(), Status: ResultStatusSuccess}}
	}

	// Buffered so the goroutine never blocks once Run has returned.
	frCh := make(chan FunctionCommandReturn, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("function command panicked", "panic", r)
				frCh <- FunctionCommandReturn{Err: NewErrFunctionCmdPanic(r)}
			}
		}()

		logger.Debug("executing function command")

		frCh <- f.Func(ctx, f.Cwd)
	}()

	res := &Result{
		Label:  f.GetLabel(),
		Status: ResultStatusSuccess,
	}

	select {
	case fr := <-frCh:
		res.StdOut = fr.Output

		switch {
		case fr.Err != nil:
			res.ExitCode = -1
			res.Error = fr.Err
			res.Status = ResultStatusError
		case fr.Warning != nil:
			res.Error = fr.Warning
			res.Status = ResultStatusWarning
		}

	case <-ctx.Done():
		logger.Debug("function command context cancelled", "error", ctx.Err())

		res.ExitCode = -1
		res.Error = ctx.Err()
		res.Status = ResultStatusError
	}

	logger.Debug("function command completed", "status", res.Status.String())

	return Results{res}
}
