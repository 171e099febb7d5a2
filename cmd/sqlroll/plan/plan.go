// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan implements the plan command, a dry run of a rollout.
package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/sqlroll/internal/config"
	"github.com/matt-FFFFFF/sqlroll/internal/planner"
	"github.com/matt-FFFFFF/sqlroll/internal/rollout"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	rootArg      = "root"
	groupingFlag = "grouping"
)

// ErrWritePlan is returned when the plan cannot be written.
var ErrWritePlan = errors.New("failed to write plan")

// FsFactory returns the filesystem the release directory is read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

var (
	dirStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	shellStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	batchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	singleStyle = lipgloss.NewStyle()
	emptyStyle  = lipgloss.NewStyle().Faint(true)
	memberStyle = lipgloss.NewStyle().PaddingLeft(4) //nolint:mnd
	unitStyle   = lipgloss.NewStyle().PaddingLeft(2) //nolint:mnd
)

// PlanCmd shows what a rollout would run without running it.
var PlanCmd = &cli.Command{
	Name:      "plan",
	Usage:     "Show the stages and units of a rollout without running it",
	ArgsUsage: "RELEASE_DIR",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      rootArg,
			UsageText: "RELEASE_DIR",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    groupingFlag,
			Usage:   "How parallel scripts are recognised: segment or substring",
			Sources: cli.EnvVars(config.EnvGrouping),
			Value:   config.GroupingSegment,
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		root := cmd.StringArg(rootArg)
		if root == "" {
			return cli.Exit("a release directory is required", 1)
		}

		m, err := script.NewTagMatcher(cmd.String(groupingFlag))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		plans, err := rollout.Preview(ctx, FsFactory(), root, m)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if err := Write(cmd.Root().Writer, plans); err != nil {
			return cli.Exit(err.Error(), 1)
		}

		return nil
	},
}

// Write renders plans to w.
func Write(w io.Writer, plans []rollout.DirPlan) error {
	var (
		b         strings.Builder
		nSh, nSQL int
	)

	for i, p := range plans {
		nSh += len(p.Shell)
		nSQL += len(planner.Flatten(p.Units))

		fmt.Fprintf(&b, "%s\n", dirStyle.Render(fmt.Sprintf("%d. %s", i+1, filepath.Base(p.Dir))))

		if len(p.Shell) == 0 && len(p.Units) == 0 {
			fmt.Fprintf(&b, "%s\n", unitStyle.Render(emptyStyle.Render("(nothing to run)")))
			continue
		}

		for _, f := range p.Shell {
			fmt.Fprintf(&b, "%s\n", unitStyle.Render(shellStyle.Render("sh  "+rel(p.Dir, f))))
		}

		for _, u := range p.Units {
			if u.Kind == planner.UnitSingle {
				fmt.Fprintf(&b, "%s\n", unitStyle.Render(singleStyle.Render("sql "+rel(p.Dir, u.Files[0]))))
				continue
			}

			fmt.Fprintf(&b, "%s\n", unitStyle.Render(batchStyle.Render(fmt.Sprintf("parallel (%d)", len(u.Files)))))

			for _, f := range u.Files {
				fmt.Fprintf(&b, "%s\n", memberStyle.Render("sql "+rel(p.Dir, f)))
			}
		}
	}

	fmt.Fprintf(&b, "%d directories, %d shell scripts, %d sql scripts\n", len(plans), nSh, nSQL)

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Join(ErrWritePlan, err)
	}

	return nil
}

func rel(dir string, f script.File) string {
	r, err := filepath.Rel(dir, f.Path)
	if err != nil {
		return f.Path
	}

	return r
}
