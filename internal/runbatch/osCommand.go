// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
)

const (
	maxBufferSize  = 8 * 1024 * 1024  // 8MB
	tickerInterval = 10 * time.Second // How often a long running process is reported
	drainTimeout   = 2 * time.Second  // How long to wait for output after the process exits
)

var _ Runnable = (*OSCommand)(nil)

var (
	// ErrBufferOverflow is returned when the output exceeds the max size.
	ErrBufferOverflow = fmt.Errorf("output exceeds max size of %d bytes", maxBufferSize)
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToReadBuffer is returned when the output pipe could not be read.
	ErrFailedToReadBuffer = errors.New("failed to read buffer")
	// ErrFailedToCreatePipe is returned when the output pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrProcessKilled is returned when the process was killed because the context ended.
	ErrProcessKilled = errors.New("process killed")
	// ErrNonZeroExit is returned when the process ran and exited with a non-zero code.
	ErrNonZeroExit = errors.New("non-zero exit code")
)

// OSCommand runs an executable. Standard output and standard error are
// captured together in the result's StdOut, in the order they were written.
type OSCommand struct {
	*BaseCommand
	Path  string   // Full path of the executable
	Args  []string // Arguments, without the executable name
	Stdin io.Reader
}

// NewOSCommand returns an OSCommand labelled label.
func NewOSCommand(label, cwd, path string, args ...string) *OSCommand {
	return &OSCommand{
		BaseCommand: NewBaseCommand(label, cwd, RunOnSuccess, nil),
		Path:        path,
		Args:        args,
	}
}

// Run implements the Runnable interface for OSCommand.
// The process is killed when ctx is done.
func (c *OSCommand) Run(ctx context.Context) Results {
	fullLabel := FullLabel(c)
	logger := ctxlog.Logger(ctx).
		With("runnableType", "OSCommand").
		With("label", fullLabel)

	logger.Debug("command info", "path", c.Path, "cwd", c.Cwd, "args", c.Args)

	res := &Result{Label: c.GetLabel()}

	fail := func(err error) Results {
		res.Error = err
		res.ExitCode = -1
		res.Status = ResultStatusError

		return Results{res}
	}

	env := os.Environ()
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return fail(errors.Join(ErrFailedToCreatePipe, err))
	}
	defer rOut.Close() //nolint:errcheck

	stdin, closeStdin, err := c.stdinFile()
	if err != nil {
		_ = wOut.Close()
		return fail(errors.Join(ErrFailedToCreatePipe, err))
	}
	defer closeStdin()

	ps, err := os.StartProcess(c.Path, slices.Concat([]string{filepath.Base(c.Path)}, c.Args), &os.ProcAttr{
		Dir:   c.Cwd,
		Env:   env,
		Files: []*os.File{stdin, wOut, wOut},
	})

	// The child holds its own copy of the write end.
	_ = wOut.Close()

	if err != nil {
		return fail(errors.Join(ErrCouldNotStartProcess, err))
	}

	startTime := time.Now()

	logger.Debug("process started", "pid", ps.Pid)

	type readResult struct {
		b   []byte
		err error
	}

	readCh := make(chan readResult, 1)

	go func() {
		b, err := readAllUpToMax(ctx, rOut, maxBufferSize)
		readCh <- readResult{b: b, err: err}
	}()

	done := make(chan struct{})
	killed := make(chan bool, 1)

	go func() {
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logger.Info("still running", "elapsed", time.Since(startTime).Round(time.Second).String())
			case <-ctx.Done():
				logger.Info("context done, killing process", "pid", ps.Pid)
				killPs(ctx, ps)

				killed <- true

				return
			case <-done:
				killed <- false

				return
			}
		}
	}()

	state, psErr := ps.Wait()
	close(done)

	wasKilled := <-killed

	var out readResult
	select {
	case out = <-readCh:
	case <-time.After(drainTimeout):
		// A background child still holds the pipe open.
		logger.Debug("output not drained after process exit")
		_ = rOut.Close()
		out = <-readCh
	}

	res.StdOut = out.b
	res.ExitCode = state.ExitCode()
	res.Error = psErr

	if wasKilled {
		res.Error = errors.Join(res.Error, ErrProcessKilled, ctx.Err())
	}

	if out.err != nil {
		res.Error = errors.Join(res.Error, out.err)
	}

	switch {
	case res.Error == nil && res.ExitCode == 0:
		res.Status = ResultStatusSuccess
	default:
		if res.ExitCode == 0 {
			res.ExitCode = -1
		}

		if res.Error == nil {
			res.Error = fmt.Errorf("%w %d", ErrNonZeroExit, res.ExitCode)
		}

		res.Status = ResultStatusError
	}

	logger.Debug("process finished", "exitCode", res.ExitCode, "bytes", len(res.StdOut))

	return Results{res}
}

// stdinFile returns the file to use as the child's standard input.
// A nil Stdin inherits ours; a non-file Stdin is copied through a pipe.
func (c *OSCommand) stdinFile() (*os.File, func(), error) {
	switch in := c.Stdin.(type) {
	case nil:
		return os.Stdin, func() {}, nil
	case *os.File:
		return in, func() {}, nil
	default:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, err //nolint:wrapcheck
		}

		go func() {
			_, _ = io.Copy(w, in)
			_ = w.Close()
		}()

		return r, func() { _ = r.Close() }, nil
	}
}

func readAllUpToMax(ctx context.Context, r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, r, limit+1)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
		return buf.Bytes(), errors.Join(ErrFailedToReadBuffer, err)
	}

	if n > limit {
		ctxlog.Debug(ctx, "buffer overflow", "bytesRead", n, "maxBytes", limit)

		return buf.Bytes()[:limit], ErrBufferOverflow
	}

	return buf.Bytes(), nil
}

func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}
