// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/sqlroll/internal/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainOutput(t *testing.T) {
	t.Helper()

	prev := color.Enabled()
	color.SetEnabled(false)
	t.Cleanup(func() { color.SetEnabled(prev) })
}

func TestWriteResults_Tree(t *testing.T) {
	plainOutput(t)

	var buf bytes.Buffer
	require.NoError(t, sampleTree().Write(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, resultsHeader+"\n\n"))
	assert.Contains(t, out, "✗ rollout (exit code: -1)\n")
	assert.Contains(t, out, "  ! 01_schema\n")
	assert.Contains(t, out, "      ➜ Warning: a.sql had errors\n")
	assert.Contains(t, out, "    ✗ b.sql (exit code: -1)\n      ➜ Error: wrapped: b\n")
	assert.Contains(t, out, "    ~ c.sql\n")
	assert.Contains(t, out, "  ✓ setup.sh\n")
	assert.NotContains(t, out, ErrResultChildrenHasError.Error())
	assert.NotContains(t, out, "ok", "success output hidden by default")
}

func TestWriteResults_SuccessDetails(t *testing.T) {
	plainOutput(t)

	var buf bytes.Buffer

	err := Results{{Label: "cmd", Status: ResultStatusSuccess, StdOut: []byte("line 1\nline 2\n")}}.
		WriteWithOptions(&buf, &OutputOptions{IncludeStdOut: true, ShowSuccessDetails: true})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "  ➜ Output:\n     line 1\n     line 2\n")
}

func TestWriteResults_Colour(t *testing.T) {
	prev := color.Enabled()
	color.SetEnabled(true)
	t.Cleanup(func() { color.SetEnabled(prev) })

	var buf bytes.Buffer
	require.NoError(t, Results{{Label: "bad", Status: ResultStatusError, Error: errors.New("x")}}.Write(&buf))
	assert.Contains(t, buf.String(), "\033[31m✗\033[0m")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWriteResults_WriterError(t *testing.T) {
	plainOutput(t)
	assert.Error(t, sampleTree().Write(failWriter{}))
}
