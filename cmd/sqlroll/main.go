// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the sqlroll command-line interface (CLI).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/sqlroll"
	"github.com/matt-FFFFFF/sqlroll/cmd/sqlroll/plan"
	"github.com/matt-FFFFFF/sqlroll/cmd/sqlroll/run"
	"github.com/matt-FFFFFF/sqlroll/cmd/sqlroll/show"
	"github.com/matt-FFFFFF/sqlroll/internal/color"
	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	noColorFlag   = "no-color"

	logFormatPretty = "pretty"
	logFormatJSON   = "json"
)

// ErrLogFormat is returned for an unknown --log-format.
var ErrLogFormat = errors.New("unknown log format")

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		plan.PlanCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "sqlroll",
	Description: `sqlroll rolls out a release directory of SQL and shell scripts.
Each subdirectory of the release root is a stage, run in name order: its shell
scripts first, then its SQL scripts. SQL scripts whose names share a "multi"
prefix run in parallel.`,
	Usage:     "sqlroll run RELEASE_DIR",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    logLevelFlag,
			Usage:   "Log level: DEBUG, INFO, WARN or ERROR",
			Sources: cli.EnvVars(ctxlog.LevelEnvVar),
			Value:   "INFO",
		},
		&cli.StringFlag{
			Name:    logFormatFlag,
			Usage:   "Log format: pretty or json",
			Sources: cli.EnvVars("SQLROLL_LOG_FORMAT"),
			Value:   logFormatPretty,
		},
		&cli.BoolFlag{
			Name:    noColorFlag,
			Usage:   "Disable coloured output",
			Sources: cli.EnvVars("SQLROLL_NO_COLOR"),
		},
	},
	Before: setupLogging,
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	lvl, err := ctxlog.ParseLevel(cmd.String(logLevelFlag))
	if err != nil {
		return ctx, cli.Exit(err.Error(), 1)
	}

	ctxlog.LevelVar.Set(lvl)

	if cmd.Bool(noColorFlag) {
		color.SetEnabled(false)
	}

	switch cmd.String(logFormatFlag) {
	case logFormatPretty:
		return ctx, nil
	case logFormatJSON:
		return ctxlog.New(ctx, ctxlog.NewJSON(os.Stderr)), nil
	default:
		return ctx, cli.Exit(fmt.Sprintf("%v: %q", ErrLogFormat, cmd.String(logFormatFlag)), 1)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, func(os.Signal) { run.RequestStop() }, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", sqlroll.Version, sqlroll.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
