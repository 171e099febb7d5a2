// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package show

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/sqlroll/internal/color"
	"github.com/matt-FFFFFF/sqlroll/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestShowCmd(t *testing.T) {
	prev := color.Enabled()
	color.SetEnabled(false)
	t.Cleanup(func() { color.SetEnabled(prev) })

	path := filepath.Join(t.TempDir(), "results.bin")
	res := runbatch.Results{{
		Label:  "rollout",
		Status: runbatch.ResultStatusError,
		Error:  runbatch.ErrResultChildrenHasError,
		Children: runbatch.Results{{
			Label:    "b.sql",
			Status:   runbatch.ResultStatusError,
			ExitCode: -1,
			Error:    errors.New("script had errors"),
		}},
	}}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, res.WriteBinary(f))
	require.NoError(t, f.Close())

	var buf bytes.Buffer

	root := &cli.Command{Name: "sqlroll", Writer: &buf, Commands: []*cli.Command{ShowCmd}}
	require.NoError(t, root.Run(context.Background(), []string{"sqlroll", "show", path}))

	assert.Contains(t, buf.String(), "===== Results =====")
	assert.Contains(t, buf.String(), "b.sql")
	assert.Contains(t, buf.String(), "script had errors")
}
