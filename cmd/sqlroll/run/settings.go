// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/matt-FFFFFF/sqlroll/internal/config"
	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/decision"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Stdin is where answers are read from when there is no answer file.
var Stdin io.Reader = os.Stdin

// IsTerminal reports whether r is an interactive terminal.
var IsTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// chooseDecider picks where answers come from. Answer files and piped
// input are positional streams; a terminal and --yes are not.
func chooseDecider(cmd *cli.Command) (decision.Decider, bool, func(), error) {
	nop := func() {}

	if cmd.Bool(yesFlag) {
		return decision.Fixed{Yes: true}, false, nop, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, false, nop, err //nolint:wrapcheck
	}

	rc, err := config.OpenAnswers(cmd.String(answersFlag), wd)
	if err != nil {
		return nil, false, nop, err //nolint:wrapcheck
	}

	if rc != nil {
		return decision.NewStream(rc, cmd.Root().Writer), true, func() { _ = rc.Close() }, nil
	}

	if IsTerminal(Stdin) {
		t := decision.NewTerminal()
		return t, false, func() { _ = t.Close() }, nil
	}

	return decision.NewStream(Stdin, cmd.Root().Writer), true, nop, nil
}

// resolve builds the run configuration from every layer and validates it.
func resolve(ctx context.Context, cmd *cli.Command, d decision.Decider, positional bool) (config.RunConfiguration, error) {
	layers := []config.Layer{flagsLayer(cmd)}

	if p := cmd.String(envFileFlag); p != "" {
		l, err := config.LoadEnvFile(p)
		if err != nil {
			return config.RunConfiguration{}, errors.Join(ErrConfiguration, err)
		}

		layers = append(layers, l)
	}

	if src := cmd.String(configFlag); src != "" {
		l, err := config.LoadYAML(ctx, src)
		if err != nil {
			return config.RunConfiguration{}, errors.Join(ErrConfiguration, err)
		}

		ctxlog.Debug(ctx, "loaded configuration file", "source", src)

		layers = append(layers, l)
	}

	base := config.Merge(layers...)

	// --yes answers operator questions only; settings must come from elsewhere.
	if !cmd.Bool(yesFlag) {
		answers, err := config.FromAnswers(ctx, d, base, positional)
		if err != nil {
			return config.RunConfiguration{}, errors.Join(ErrConfiguration, err)
		}

		base = config.Merge(base, answers)
	}

	cfg := base.Build()
	if err := cfg.Validate(); err != nil {
		return config.RunConfiguration{}, errors.Join(ErrConfiguration, err)
	}

	return cfg, nil
}

// flagsLayer holds the settings given as flags or SQLROLL_* variables.
func flagsLayer(cmd *cli.Command) config.Layer {
	var l config.Layer

	if v := cmd.StringArg(rootArg); v != "" {
		l.Root = config.Ptr(v)
	} else if v, ok := os.LookupEnv(config.EnvRoot); ok {
		l.Root = config.Ptr(v)
	}

	if cmd.IsSet(stopOnErrorFlag) {
		l.StopOnError = config.Ptr(cmd.Bool(stopOnErrorFlag))
	}

	if cmd.IsSet(autoConfirmFlag) || cmd.Bool(yesFlag) {
		l.AutoConfirm = config.Ptr(cmd.Bool(autoConfirmFlag) || cmd.Bool(yesFlag))
	}

	if cmd.IsSet(dbURLFlag) {
		l.DatabaseURL = config.Ptr(cmd.String(dbURLFlag))
	}

	if cmd.IsSet(dbUserFlag) {
		l.User = config.Ptr(cmd.String(dbUserFlag))
	}

	if cmd.IsSet(dbPasswordFlag) {
		l.Password = config.Ptr(cmd.String(dbPasswordFlag))
	}

	if cmd.IsSet(parallelismFlag) {
		l.MaxParallelism = config.Ptr(cmd.Int(parallelismFlag))
	}

	if cmd.IsSet(scriptTimeoutFlag) {
		l.ScriptTimeout = config.Ptr(cmd.Duration(scriptTimeoutFlag))
	}

	if cmd.IsSet(groupingFlag) {
		l.Grouping = config.Ptr(cmd.String(groupingFlag))
	}

	if cmd.IsSet(outFlag) {
		l.Out = config.Ptr(cmd.String(outFlag))
	}

	return l
}
