// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package preprocess

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/sqlroll/internal/ctxlog"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []string{
	"EXEC refresh_stats;\nexec audit('x');\n",
	"select 1; /* block */ select 2;\n",
	"/* multi\nline\ncomment */\ncreate table t (id int);\n",
	"insert into t values (1); // trailing note\n",
	"EXEC a; // note\n/* c */ exec b;",
	"select '/* not closed';\n",
	"",
}

func TestSubstitute(t *testing.T) {
	assert.Equal(t, "call refresh;\ncall audit;\n", Substitute("EXEC refresh;\nexec audit;\n"))
	assert.Equal(t, "EXECUTE x;", Substitute("EXECUTE x;"), "only the token followed by a space is rewritten")
}

func TestSubstitute_Idempotent(t *testing.T) {
	for _, s := range samples {
		once := Substitute(s)
		assert.Equal(t, once, Substitute(once), "input %q", s)
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "inline block",
			in:   "select 1; /* block */ select 2;",
			want: "select 1; " + CommentMarker + " select 2;",
		},
		{
			name: "multi-line block keeps its line count",
			in:   "/* a\nb\nc */\ncreate table t (id int);\n",
			want: CommentMarker + "\n\n\ncreate table t (id int);\n",
		},
		{
			name: "block inside a statement",
			in:   "select 1 /* a\nb */ from t;\n",
			want: "select 1 " + CommentMarker + "\n from t;\n",
		},
		{
			name: "line comment keeps the newline",
			in:   "insert into t values (1); // note\nselect 1;\n",
			want: "insert into t values (1); " + CommentMarker + "\nselect 1;\n",
		},
		{
			name: "two blocks on a line are matched lazily",
			in:   "/* a */ x /* b */",
			want: CommentMarker + " x " + CommentMarker,
		},
		{
			name: "no comments",
			in:   "select 1;\n-- already a sql comment\n",
			want: "select 1;\n-- already a sql comment\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.in))
		})
	}
}

func TestStripComments_Idempotent(t *testing.T) {
	for _, s := range samples {
		once := StripComments(s)
		assert.Equal(t, once, StripComments(once), "input %q", s)
		assert.NotContains(t, strings.ReplaceAll(once, "'/* not closed'", ""), "*/")
	}
}

func TestStripComments_PreservesLineCount(t *testing.T) {
	for _, s := range samples {
		assert.Equal(t, strings.Count(s, "\n"), strings.Count(StripComments(s), "\n"), "input %q", s)
	}
}

func TestText_ProcAndShellPassThrough(t *testing.T) {
	in := "EXEC p; /* c */\n/\n"

	assert.Equal(t, in, Text(script.NewFile("/d/pkg_proc.sql", script.KindSQL), in))
	assert.Equal(t, in, Text(script.NewFile("/d/run.sh", script.KindShell), in))
	assert.Equal(t, "call p; "+CommentMarker+"\n/\n", Text(script.NewFile("/d/a.sql", script.KindSQL), in))
}

func quietCtx() context.Context {
	return ctxlog.New(context.Background(), ctxlog.NewPretty(&bytes.Buffer{}))
}

func TestFile_RewritesInPlace(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/a.sql", []byte("EXEC p; // c\n"), 0o640))

	changed, err := File(quietCtx(), fs, script.NewFile("/d/a.sql", script.KindSQL))
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := afero.ReadFile(fs, "/d/a.sql")
	require.NoError(t, err)
	assert.Equal(t, "call p; "+CommentMarker+"\n", string(got))

	entries, err := afero.ReadDir(fs, "/d")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")

	changed, err = File(quietCtx(), fs, script.NewFile("/d/a.sql", script.KindSQL))
	require.NoError(t, err)
	assert.False(t, changed, "second pass is a no-op")
}

func TestFile_ReadOnlyKeepsOriginal(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/d/a.sql", []byte("EXEC p;\n"), 0o644))

	ro := afero.NewReadOnlyFs(base)

	changed, err := File(quietCtx(), ro, script.NewFile("/d/a.sql", script.KindSQL))
	require.ErrorIs(t, err, ErrWriteTemp)
	assert.False(t, changed)

	got, _ := afero.ReadFile(base, "/d/a.sql")
	assert.Equal(t, "EXEC p;\n", string(got))
}

type failingRenameFs struct {
	afero.Fs
}

func (failingRenameFs) Rename(string, string) error {
	return errors.New("cross-device link")
}

func TestFile_RenameFailureKeepsOriginal(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/d/a.sql", []byte("EXEC p;\n"), 0o644))

	changed, err := File(quietCtx(), failingRenameFs{base}, script.NewFile("/d/a.sql", script.KindSQL))
	require.ErrorIs(t, err, ErrReplace)
	assert.False(t, changed)

	got, _ := afero.ReadFile(base, "/d/a.sql")
	assert.Equal(t, "EXEC p;\n", string(got))

	entries, _ := afero.ReadDir(base, "/d")
	assert.Len(t, entries, 1, "temporary file is removed")
}

func TestFiles_LogsFailuresAndContinues(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/a.sql", []byte("EXEC a;\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/d/c.sql", []byte("select 1;\n"), 0o644))

	files := []script.File{
		script.NewFile("/d/a.sql", script.KindSQL),
		script.NewFile("/d/b.sql", script.KindSQL), // missing
		script.NewFile("/d/c.sql", script.KindSQL), // unchanged
	}

	assert.Equal(t, 1, Files(quietCtx(), fs, files))
}
