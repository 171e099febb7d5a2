// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleYAML = `root: /srv/rollout
stop_on_error: true
database:
  url: postgres://db:5432/app
  user: app
parallelism: 3
script_timeout: 5m
grouping: substring
`

func TestParseYAML(t *testing.T) {
	l, err := ParseYAML([]byte(exampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/srv/rollout", *l.Root)
	assert.True(t, *l.StopOnError)
	assert.Nil(t, l.AutoConfirm)
	assert.Equal(t, "postgres://db:5432/app", *l.DatabaseURL)
	assert.Equal(t, "app", *l.User)
	assert.Nil(t, l.Password)
	assert.Equal(t, 3, *l.MaxParallelism)
	assert.Equal(t, 5*time.Minute, *l.ScriptTimeout)
	assert.Equal(t, GroupingSubstring, *l.Grouping)
}

func TestParseYAML_Errors(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"unknown key", "root: /r\nstop_on_eror: true\n"},
		{"bad duration", "script_timeout: soon\n"},
		{"wrong type", "parallelism: lots\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tc.data))
			assert.True(t, errors.Is(err, ErrParseConfigFile))
		})
	}
}

func TestLoadYAML_LocalFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/rollout.yaml", []byte(exampleYAML), 0o644))

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	l, err := LoadYAML(context.Background(), "/cfg/rollout.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/srv/rollout", *l.Root)
}

func TestLoadYAML_Errors(t *testing.T) {
	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return afero.NewMemMapFs() })
	defer stubs.Reset()

	for _, src := range []string{"", "git::http://notexist//rollout.yaml"} {
		_, err := LoadYAML(context.Background(), src)
		assert.True(t, errors.Is(err, ErrGetConfigFile), src)
	}
}

func TestSplitFileNameFromGetterURL(t *testing.T) {
	testCases := []struct {
		url, wantURL, wantFile string
	}{
		{"git::https://example.com/repo//rollout.yaml", "git::https://example.com/repo", "rollout.yaml"},
		{"git::https://example.com/repo//conf/rollout.yaml?ref=v1", "git::https://example.com/repo//conf?ref=v1", "rollout.yaml"},
		{"https://example.com/rollout.yaml", "", ""},
		{"git::https://example.com/repo//", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			gotURL, gotFile := splitFileNameFromGetterURL(tc.url)
			assert.Equal(t, tc.wantURL, gotURL)
			assert.Equal(t, tc.wantFile, gotFile)
		})
	}
}
