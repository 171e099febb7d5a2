// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run command.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/matt-FFFFFF/sqlroll/internal/config"
	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/database"
	"github.com/matt-FFFFFF/sqlroll/internal/rollout"
	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	rootArg                  = "root"
	configFlag               = "config"
	envFileFlag              = "env-file"
	answersFlag              = "answers"
	yesFlag                  = "yes"
	stopOnErrorFlag          = "stop-on-error"
	autoConfirmFlag          = "auto-confirm"
	dbURLFlag                = "db-url"
	dbUserFlag               = "db-user"
	dbPasswordFlag           = "db-password"
	parallelismFlag          = "parallelism"
	scriptTimeoutFlag        = "script-timeout"
	groupingFlag             = "grouping"
	outFlag                  = "out"
	noOutputStdErrFlag       = "no-output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"

	cliExitStr = "rollout failed, see logs for details"
)

// ErrConfiguration is returned when no valid configuration could be resolved.
var ErrConfiguration = errors.New("configuration error")

// FsFactory returns the filesystem scripts are found and rewritten on.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// current is the rollout in progress, for RequestStop.
var current atomic.Pointer[rollout.Orchestrator]

// RequestStop asks the running rollout, if any, to stop after the unit in
// progress.
func RequestStop() {
	if o := current.Load(); o != nil {
		o.RequestStop()
	}
}

// RunCmd is the command that runs a rollout.
var RunCmd = &cli.Command{
	Name:      "run",
	Usage:     "Run the rollout in a release directory",
	ArgsUsage: "[RELEASE_DIR]",
	Description: `Runs every stage directory under RELEASE_DIR.

Settings are taken, in order of precedence, from flags, SQLROLL_* environment
variables, the --env-file, the --config YAML file and finally the answer stream.
The answer stream is --answers, else run.conf in the working directory, else
standard input. When standard input is a terminal the questions are asked
interactively and only for settings that are still missing.

The --config file may be any go-getter source, see https://github.com/hashicorp/go-getter.`,
	Arguments: arguments(),
	Flags:     flags(),
	Action:    actionFunc,
}

func arguments() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name:      rootArg,
			UsageText: "RELEASE_DIR",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	}
}

// flags returns new run flags. Flags hold their parsed values, so every
// command gets its own.
func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      configFlag,
			Aliases:   []string{"c"},
			Usage:     "YAML configuration file (local path or go-getter URL)",
			Sources:   cli.EnvVars("SQLROLL_CONFIG"),
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      envFileFlag,
			Usage:     "dotenv file holding SQLROLL_* settings",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:      answersFlag,
			Usage:     "Answer file, one answer per line (default: ./" + config.AnswerFile + " when present)",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:     yesFlag,
			Aliases:  []string{"y"},
			Usage:    "Answer yes to every question and run shell scripts without parameters",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:     stopOnErrorFlag,
			Usage:    "Abort the rollout when a script logs errors",
			Sources:  cli.EnvVars(config.EnvStopOnError),
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:     autoConfirmFlag,
			Usage:    "Enter every directory without asking",
			Sources:  cli.EnvVars(config.EnvAutoConfirm),
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     dbURLFlag,
			Usage:    "Database URL (postgres://, sqlite://, clickhouse://, libsql://)",
			Sources:  cli.EnvVars(config.EnvDatabaseURL),
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     dbUserFlag,
			Usage:    "Database user",
			Sources:  cli.EnvVars(config.EnvUser),
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     dbPasswordFlag,
			Usage:    "Database password",
			Sources:  cli.EnvVars(config.EnvPassword),
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:    parallelismFlag,
			Aliases: []string{"p"},
			Usage:   "Maximum scripts of a parallel batch running at once, 0 for no limit",
			Sources: cli.EnvVars(config.EnvMaxParallelism),
		},
		&cli.DurationFlag{
			Name:    scriptTimeoutFlag,
			Usage:   "Maximum run time of a single SQL script, 0 for no limit",
			Sources: cli.EnvVars(config.EnvScriptTimeout),
		},
		&cli.StringFlag{
			Name:    groupingFlag,
			Usage:   "How parallel scripts are recognised: segment or substring",
			Sources: cli.EnvVars(config.EnvGrouping),
		},
		&cli.StringFlag{
			Name:      outFlag,
			Usage:     "Write the results to this file, for sqlroll show",
			Sources:   cli.EnvVars(config.EnvOut),
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:        outputSuccessDetailsFlag,
			Aliases:     []string{"success"},
			Usage:       "Include successful results in the output",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        noOutputStdErrFlag,
			Aliases:     []string{"no-stderr"},
			Usage:       "Exclude stderr output in the results",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        outputStdOutFlag,
			Aliases:     []string{"stdout"},
			Usage:       "Include stdout output in the results",
			DefaultText: "false",
			OnlyOnce:    true,
		},
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

	d, positional, closeDecider, err := chooseDecider(cmd)
	if err != nil {
		logger.Error("Failed to open the answer stream", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	defer closeDecider()

	cfg, err := resolve(ctx, cmd, d, positional)
	if err != nil {
		logger.Error("Failed to resolve configuration", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	logger.Debug("Resolved configuration", "config", fmt.Sprintf("%+v", cfg.Redacted()))

	db, err := database.Open(cfg.DatabaseURL, cfg.User, cfg.Password)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	defer db.Close() //nolint:errcheck

	logger.Info("Using database", "url", db.String(), "driver", string(db.Driver()))

	o, err := rollout.New(cfg, FsFactory(), db, d)
	if err != nil {
		logger.Error("Failed to create rollout", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	current.Store(o)
	defer current.Store(nil)

	res, runErr := o.Run(ctx)

	if err := writeResults(ctx, cmd, cfg.Out, res); err != nil {
		logger.Error("Failed to write results", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("rollout aborted: %v", runErr), 1)
	}

	return nil
}

func writeResults(ctx context.Context, cmd *cli.Command, outFileName string, res runbatch.Results) error {
	if len(res) == 0 {
		return nil
	}

	if outFileName != "" {
		f, err := os.Create(outFileName)
		if err != nil {
			return err //nolint:wrapcheck
		}

		defer f.Close() //nolint:errcheck

		if err := res.WriteBinary(f); err != nil {
			return err //nolint:wrapcheck
		}

		ctxlog.Info(ctx, fmt.Sprintf("Results written to %s", outFileName))
	}

	opts := runbatch.DefaultOutputOptions()
	opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
	opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	return res.WriteWithOptions(cmd.Root().Writer, opts) //nolint:wrapcheck
}
