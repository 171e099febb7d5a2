// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the show command.
package show

import (
	"context"
	"errors"
	"os"

	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	fileArg = "file"
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrWriteResults is returned when the results cannot be written.
	ErrWriteResults = errors.New("failed to write results")
)

// ShowCmd shows results saved by run --out.
var ShowCmd = &cli.Command{
	Name:        "show",
	Usage:       "Show previously saved results",
	Description: "Show results saved with sqlroll run --out.",
	ArgsUsage:   "FILE",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name: fileArg,
		},
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "output-success-details",
			Aliases: []string{"success"},
			Usage:   "Include successful results in the output",
		},
		&cli.BoolFlag{
			Name:    "output-stdout",
			Aliases: []string{"stdout"},
			Usage:   "Include stdout output in the results",
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		file, err := os.Open(cmd.StringArg(fileArg))
		if err != nil {
			return cli.Exit(errors.Join(ErrReadFile, err).Error(), 1)
		}
		defer file.Close() //nolint:errcheck

		results, err := runbatch.ReadBinary(file)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		opts := runbatch.DefaultOutputOptions()
		opts.ShowSuccessDetails = cmd.Bool("output-success-details")
		opts.IncludeStdOut = cmd.Bool("output-stdout")

		if err := results.WriteWithOptions(cmd.Root().Writer, opts); err != nil {
			return cli.Exit(errors.Join(ErrWriteResults, err).Error(), 1)
		}

		return nil
	},
}
