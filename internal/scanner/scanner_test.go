// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scanner

import (
	"context"
	"testing"

	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyFsWithFiles(t *testing.T, fs afero.Fs, names ...string) {
	t.Helper()

	for _, n := range names {
		require.NoError(t, afero.WriteFile(fs, n, []byte("select 1;\n"), 0o644))
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/rollout/01", 0o755))

	files, err := Scan(context.Background(), fs, "/rollout/01", script.KindSQL)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestScan_RecursiveAndSorted(t *testing.T) {
	fs := afero.NewMemMapFs()
	dummyFsWithFiles(t, fs,
		"/r/b.sql",
		"/r/a/z.SQL",
		"/r/a-c/y.sql",
		"/r/a/deep/x.sql",
		"/r/notes.txt",
		"/r/b_run.log",
		"/r/setup.sh",
	)

	files, err := Scan(context.Background(), fs, "/r", script.KindSQL)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/r/a-c/y.sql",
		"/r/a/deep/x.sql",
		"/r/a/z.SQL",
		"/r/b.sql",
	}, script.Paths(files), "byte-wise order puts '-' before '/'")

	for _, f := range files {
		assert.Equal(t, script.KindSQL, f.Kind)
	}
}

func TestScan_Shell(t *testing.T) {
	fs := afero.NewMemMapFs()
	dummyFsWithFiles(t, fs, "/r/02.sh", "/r/01.SH", "/r/01.sql")

	files, err := Scan(context.Background(), fs, "/r", script.KindShell)
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/01.SH", "/r/02.sh"}, script.Paths(files))
}

func TestScan_SkipsDirectoriesNamedLikeScripts(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/r/weird.sql", 0o755))
	dummyFsWithFiles(t, fs, "/r/weird.sql/inner.sql")

	files, err := Scan(context.Background(), fs, "/r", script.KindSQL)
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/weird.sql/inner.sql"}, script.Paths(files))
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), afero.NewMemMapFs(), "/nope", script.KindSQL)
	require.ErrorIs(t, err, ErrScanRoot)
}

func TestScan_RootIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	dummyFsWithFiles(t, fs, "/r/a.sql")

	_, err := Scan(context.Background(), fs, "/r/a.sql", script.KindSQL)
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestScan_ContextCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	dummyFsWithFiles(t, fs, "/r/a.sql")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, fs, "/r", script.KindSQL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDirs(t *testing.T) {
	fs := afero.NewMemMapFs()
	dummyFsWithFiles(t, fs, "/r/10_views/a.sql", "/r/02_tables/a.sql", "/r/readme.md")
	require.NoError(t, fs.MkdirAll("/r/01_empty", 0o755))

	dirs, err := Dirs(context.Background(), fs, "/r")
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/01_empty", "/r/02_tables", "/r/10_views"}, dirs)
}
