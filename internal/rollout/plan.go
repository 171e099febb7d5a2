// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package rollout

import (
	"context"

	"github.com/matt-FFFFFF/sqlroll/internal/planner"
	"github.com/matt-FFFFFF/sqlroll/internal/scanner"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
)

// DirPlan is what a rollout would do in one directory.
type DirPlan struct {
	Dir   string
	Shell []script.File
	Units []planner.Unit
}

// Preview plans every directory under root without touching any file.
// SQL scripts are planned as found, before preprocessing.
func Preview(ctx context.Context, fsys afero.Fs, root string, m script.TagMatcher) ([]DirPlan, error) {
	dirs, err := scanner.Dirs(ctx, fsys, root)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	plans := make([]DirPlan, 0, len(dirs))

	for _, dir := range dirs {
		shell, err := scanner.Scan(ctx, fsys, dir, script.KindShell)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		sql, err := scanner.Scan(ctx, fsys, dir, script.KindSQL)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		plans = append(plans, DirPlan{
			Dir:   dir,
			Shell: shell,
			Units: planner.Plan(sql, m),
		})
	}

	return plans, nil
}
