// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseCommand_SetCwd(t *testing.T) {
	c := NewBaseCommand("c", "", RunOnSuccess, nil)
	c.SetCwd("/first")
	c.SetCwd("/second")
	assert.Equal(t, "/first", c.Cwd)

	c.SetCwd("")
	assert.Equal(t, "/first", c.Cwd)
}

func TestBaseCommand_InheritEnv(t *testing.T) {
	c := NewBaseCommand("c", "", RunOnSuccess, map[string]string{"A": "own"})
	c.InheritEnv(map[string]string{"A": "parent", "B": "parent"})
	assert.Equal(t, map[string]string{"A": "own", "B": "parent"}, c.Env)

	empty := &BaseCommand{}
	parent := map[string]string{"X": "1"}
	empty.InheritEnv(parent)
	parent["X"] = "changed"
	assert.Equal(t, "1", empty.Env["X"], "inherited env must be a copy")
}

func TestBaseCommand_GetLabelDefault(t *testing.T) {
	assert.Equal(t, "Command", (&BaseCommand{}).GetLabel())
}

func TestBaseCommand_ShouldRun(t *testing.T) {
	tests := []struct {
		name string
		cond RunCondition
		prev PreviousCommandStatus
		want ShouldRunAction
	}{
		{"success after success", RunOnSuccess, PreviousCommandStatus{State: ResultStatusSuccess}, ShouldRunActionRun},
		{"success after warning", RunOnSuccess, PreviousCommandStatus{State: ResultStatusWarning}, ShouldRunActionRun},
		{"success after error", RunOnSuccess, PreviousCommandStatus{State: ResultStatusError}, ShouldRunActionError},
		{"always after success", RunOnAlways, PreviousCommandStatus{State: ResultStatusSuccess}, ShouldRunActionRun},
		{"always after error", RunOnAlways, PreviousCommandStatus{State: ResultStatusError}, ShouldRunActionRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBaseCommand("c", "", tt.cond, nil)
			assert.Equal(t, tt.want, c.ShouldRun(tt.prev))
		})
	}
}

func TestRunCondition_String(t *testing.T) {
	assert.Equal(t, "success", RunOnSuccess.String())
	assert.Equal(t, "always", RunOnAlways.String())
	assert.Equal(t, "unknown", RunCondition(42).String())
}

func TestFullLabel(t *testing.T) {
	leaf := NewFunctionCommand("a_multi_1.sql", nil)
	batch := NewParallelBatch(NewBaseCommand("parallel", "", RunOnSuccess, nil), 0, leaf)
	stage := NewSerialBatch(NewBaseCommand("01_schema", "", RunOnSuccess, nil), batch)
	_ = NewSerialBatch(NewBaseCommand("rollout", "", RunOnSuccess, nil), stage)

	assert.Equal(t, "rollout > 01_schema > parallel > a_multi_1.sql", FullLabel(leaf))
	assert.Equal(t, "Unknown", FullLabel(nil))
}
