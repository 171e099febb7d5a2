// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package shellrunner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/sqlroll/internal/decision"
	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeShell(t *testing.T, dir, name, body string) script.File {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return script.NewFile(path, script.KindShell)
}

func TestRun_ParamsAndWorkingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	f := writeShell(t, dir, "echo.sh", "printf '%s|' \"$@\"; basename \"$(pwd)\"\n")

	out, err := Run(context.Background(), f, `one "two words" 'three'`)
	require.NoError(t, err)
	assert.Equal(t, "one|two words|three|"+filepath.Base(dir)+"\n", out)
}

func TestRun_CombinedOutput(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := writeShell(t, t.TempDir(), "mix.sh", "echo out; echo err >&2\n")

	out, err := Run(context.Background(), f, "")
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", out)
}

func TestRun_NonZeroExit(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := writeShell(t, t.TempDir(), "bad.sh", "echo broken; exit 4\n")

	out, err := Run(context.Background(), f, "")
	require.ErrorIs(t, err, runbatch.ErrNonZeroExit)
	assert.Equal(t, "broken\n", out, "a script that ran keeps its output")
}

func TestRun_CannotStart(t *testing.T) {
	stubs := gostub.Stub(&LookPath, func(string) (string, error) {
		return filepath.Join(t.TempDir(), "no-such-shell"), nil
	})
	defer stubs.Reset()

	out, err := Run(context.Background(), script.NewFile("/x/a.sh", script.KindShell), "")
	require.ErrorIs(t, err, runbatch.ErrCouldNotStartProcess)
	assert.True(t, strings.HasPrefix(out, "run failed-["), out)
}

func TestRun_BadQuoting(t *testing.T) {
	f := writeShell(t, t.TempDir(), "q.sh", "true\n")

	out, err := Run(context.Background(), f, `"unterminated`)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "run failed-["))
}

func TestRun_ShellNotFound(t *testing.T) {
	stubs := gostub.Stub(&LookPath, func(string) (string, error) {
		return "", errors.New("not on PATH")
	})
	defer stubs.Reset()

	out, err := Run(context.Background(), script.NewFile("/x/a.sh", script.KindShell), "")
	require.ErrorIs(t, err, ErrShellNotFound)
	assert.Equal(t, "run failed-[not on PATH]", out)
}

func TestStage_AsksPerScriptInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeShell(t, dir, "b.sh", "echo b $1\n")
	writeShell(t, dir, "a.sh", "echo a\n")
	writeShell(t, dir, "sub/c.sh", "exit 1\n")

	// a.sh: yes, no params; b.sh: invalid then yes with params; sub/c.sh: no.
	answers := "y\n\nx\ny\nhello\nn\n"
	r := New(decision.NewStream(strings.NewReader(answers), nil), afero.NewOsFs())

	stage, err := r.Stage(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, stage.Commands, 3)

	results := stage.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, runbatch.ResultStatusSuccess, results[0].Status)

	children := results[0].Children
	require.Len(t, children, 3)
	assert.Equal(t, "a\n", string(children[0].StdOut))
	assert.Equal(t, "b hello\n", string(children[1].StdOut))
	assert.Equal(t, skippedByAnswer, string(children[2].StdOut))
}

func TestStage_FailedScriptIsAWarning(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeShell(t, dir, "a.sh", "echo failing; exit 2\n")
	writeShell(t, dir, "b.sh", "echo after\n")

	stage, err := New(decision.Fixed{Yes: true}, afero.NewOsFs()).Stage(context.Background(), dir)
	require.NoError(t, err)

	results := stage.Run(context.Background())
	assert.Equal(t, runbatch.ResultStatusWarning, results[0].Status)
	assert.Equal(t, runbatch.ResultStatusWarning, results[0].Children[0].Status)
	assert.Equal(t, "failing\n", string(results[0].Children[0].StdOut))
	assert.Equal(t, "after\n", string(results[0].Children[1].StdOut))
}

func TestStage_AnswerFailureStopsStage(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeShell(t, dir, "a.sh", "echo a\n")
	writeShell(t, dir, "b.sh", "echo b\n")

	stage, err := New(decision.NewStream(strings.NewReader("y\n"), nil), afero.NewOsFs()).Stage(context.Background(), dir)
	require.NoError(t, err)

	results := stage.Run(context.Background())
	require.True(t, results.HasError())
	require.ErrorIs(t, results[0].Children[0].Error, decision.ErrNoMoreAnswers)
	assert.Equal(t, runbatch.ResultStatusSkipped, results[0].Children[1].Status)
}

func TestStage_NoScripts(t *testing.T) {
	stage, err := New(decision.Fixed{}, afero.NewOsFs()).Stage(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, stage.Commands)
}
