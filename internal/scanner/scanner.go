// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scanner discovers script files and rollout directories.
//
// Results are always sorted by absolute path using byte-wise comparison, so
// the order is independent of locale and of the order the file system
// returns directory entries in. The grouping planner depends on this order.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
)

var (
	// ErrScanRoot is returned when the scan root cannot be read.
	ErrScanRoot = errors.New("cannot read scan root")
	// ErrNotDirectory is returned when the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Scan recursively lists the files of the given kind below root.
// An empty directory yields an empty slice. Unreadable subdirectories are
// logged and skipped.
func Scan(ctx context.Context, fsys afero.Fs, root string, kind script.Kind) ([]script.File, error) {
	root, err := checkRoot(fsys, root)
	if err != nil {
		return nil, err
	}

	var files []script.File

	err = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == root {
				return err
			}

			ctxlog.Warn(ctx, "skipping unreadable path", "path", path, "error", err)

			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if info.Mode().IsRegular() && kind.Matches(path) {
			files = append(files, script.NewFile(path, kind))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScanRoot, root, err)
	}

	slices.SortFunc(files, func(a, b script.File) int {
		return strings.Compare(a.Path, b.Path)
	})

	ctxlog.Debug(ctx, "scan complete", "root", root, "kind", kind.String(), "count", len(files))

	return files, nil
}

// Dirs returns the immediate subdirectories of root as absolute paths.
func Dirs(ctx context.Context, fsys afero.Fs, root string) ([]string, error) {
	root, err := checkRoot(fsys, root)
	if err != nil {
		return nil, err
	}

	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScanRoot, root, err)
	}

	dirs := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}

	slices.SortFunc(dirs, strings.Compare)

	ctxlog.Debug(ctx, "listed rollout directories", "root", root, "count", len(dirs))

	return dirs, nil
}

func checkRoot(fsys afero.Fs, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrScanRoot, root, err)
	}

	info, err := fsys.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrScanRoot, abs, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s: %w", ErrScanRoot, abs, ErrNotDirectory)
	}

	return abs, nil
}
