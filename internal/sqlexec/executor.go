// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sqlexec runs SQL scripts against the target database.
//
// Each script gets its own connection. Statements auto-commit and a failing
// statement does not stop the script, so the whole script runs and its
// error log is complete. Every run writes two artifacts next to the script:
// a run log and an error log.
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
)

// Connector hands out dedicated database connections.
// *sql.DB and *database.DB both satisfy it.
type Connector interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Outcome is the result of running one script.
type Outcome int

const (
	// OutcomePassed means the error log is empty.
	OutcomePassed Outcome = iota
	// OutcomeHadErrors means the error log is not empty.
	OutcomeHadErrors
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o == OutcomeHadErrors {
		return "had errors"
	}

	return "passed"
}

// Report describes a finished script run.
type Report struct {
	File       script.File
	Outcome    Outcome
	Statements int // Statements executed
	Failed     int // Statements that failed
	RunLog     string
	ErrLog     string
	Duration   time.Duration
}

// Err returns a *ScriptError when the script had errors, else nil.
func (r Report) Err() error {
	if r.Outcome != OutcomeHadErrors {
		return nil
	}

	return &ScriptError{Path: r.File.Path, ErrLog: r.ErrLog, Err: ErrHadErrors}
}

// Executor runs SQL scripts.
type Executor struct {
	conn    Connector
	fs      afero.Fs
	timeout time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithScriptTimeout bounds the run time of each script. Zero means no bound.
func WithScriptTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// New returns an Executor that takes connections from conn and reads
// scripts and writes logs through fsys.
func New(conn Connector, fsys afero.Fs, opts ...Option) *Executor {
	e := &Executor{conn: conn, fs: fsys}
	for _, o := range opts {
		o(e)
	}

	return e
}

// Execute runs f. It returns a *ScriptError wrapping ErrScriptMissing when
// f no longer exists, and a *ScriptError when the log artifacts cannot be
// written or the context ends. Statement and connection failures are not
// errors: they go to the error log and show in the report's Outcome.
func (e *Executor) Execute(ctx context.Context, f script.File) (Report, error) {
	rep := Report{File: f, RunLog: f.RunLogPath(), ErrLog: f.ErrLogPath()}
	logger := ctxlog.Logger(ctx).With("script", f.Path)
	start := time.Now()

	if _, err := e.fs.Stat(f.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rep, &ScriptError{Path: f.Path, Err: ErrScriptMissing}
		}

		return rep, &ScriptError{Path: f.Path, Err: errors.Join(ErrReadScript, err)}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	logger.Info("running script", "delimiter", f.Delimiter())

	runLog, err := e.fs.Create(rep.RunLog)
	if err != nil {
		return rep, &ScriptError{Path: f.Path, Err: errors.Join(ErrLogArtifact, err)}
	}
	defer runLog.Close() //nolint:errcheck

	errLog, err := e.fs.Create(rep.ErrLog)
	if err != nil {
		return rep, &ScriptError{Path: f.Path, Err: errors.Join(ErrLogArtifact, err)}
	}
	defer errLog.Close() //nolint:errcheck

	runErr := e.run(ctx, f, runLog, errLog, &rep)

	if err := runLog.Close(); err != nil {
		return rep, &ScriptError{Path: f.Path, Err: errors.Join(ErrLogArtifact, err)}
	}

	if err := errLog.Close(); err != nil {
		return rep, &ScriptError{Path: f.Path, Err: errors.Join(ErrLogArtifact, err)}
	}

	rep.Duration = time.Since(start)

	fi, err := e.fs.Stat(rep.ErrLog)
	if err != nil {
		return rep, &ScriptError{Path: f.Path, Err: errors.Join(ErrLogArtifact, err)}
	}

	if fi.Size() > 0 {
		rep.Outcome = OutcomeHadErrors
	}

	if runErr != nil {
		return rep, &ScriptError{Path: f.Path, ErrLog: rep.ErrLog, Err: runErr}
	}

	logger.Info("script finished",
		"outcome", rep.Outcome.String(),
		"statements", rep.Statements,
		"failed", rep.Failed,
		"duration", rep.Duration.Round(time.Millisecond).String())

	return rep, nil
}

// run executes the statements of f. It only returns an error when ctx ends.
func (e *Executor) run(ctx context.Context, f script.File, runLog, errLog io.Writer, rep *Report) error {
	b, err := afero.ReadFile(e.fs, f.Path)
	if err != nil {
		fmt.Fprintf(errLog, "Error reading script %s. Cause: %v\n", f.Path, err) //nolint:errcheck
		return nil
	}

	chunks, splitErr := Split(string(b), f.Delimiter())

	conn, err := e.conn.Conn(ctx)
	if err != nil {
		fmt.Fprintf(errLog, "Error connecting to database. Cause: %v\n", err) //nolint:errcheck
		ctxlog.Error(ctx, "connection failed", "script", f.Path, "error", err)

		return ctx.Err()
	}
	defer conn.Close() //nolint:errcheck

	for _, c := range chunks {
		if c.Comment {
			fmt.Fprintln(runLog, c.Text) //nolint:errcheck
			continue
		}

		if err := ctx.Err(); err != nil {
			fmt.Fprintf(errLog, "Execution interrupted before line %d. Cause: %v\n", c.Line, err) //nolint:errcheck
			return err
		}

		fmt.Fprintln(runLog, c.Text) //nolint:errcheck

		rep.Statements++

		res, err := conn.ExecContext(ctx, c.Text)
		if err != nil {
			rep.Failed++

			_, _ = fmt.Fprintf(runLog, "-- failed: %v\n", err)
			_, _ = fmt.Fprintf(errLog, "Error executing: %s. Cause: %v\n", c.Text, err)

			ctxlog.Debug(ctx, "statement failed", "script", f.Path, "line", c.Line, "error", err)

			continue
		}

		if n, err := res.RowsAffected(); err == nil {
			fmt.Fprintf(runLog, "-- ok, %d row(s) affected\n", n) //nolint:errcheck
		} else {
			fmt.Fprintln(runLog, "-- ok") //nolint:errcheck
		}
	}

	if splitErr != nil {
		fmt.Fprintf(errLog, "Error executing script. Cause: %v\n", splitErr) //nolint:errcheck
	}

	return ctx.Err()
}
