// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"maps"
)

// BaseCommand holds the fields shared by every Runnable.
// It is embedded in the command and batch types.
type BaseCommand struct {
	Label           string            // Label shown in logs and results
	Cwd             string            // Working directory
	RunsOnCondition RunCondition      // When the command runs in a serial batch
	Env             map[string]string // Extra environment variables
	parent          Runnable
}

// NewBaseCommand creates a BaseCommand.
func NewBaseCommand(label, cwd string, runsOn RunCondition, env map[string]string) *BaseCommand {
	if env == nil {
		env = make(map[string]string)
	}

	return &BaseCommand{
		Label:           label,
		Cwd:             cwd,
		RunsOnCondition: runsOn,
		Env:             env,
	}
}

// GetLabel returns the label of the command.
func (c *BaseCommand) GetLabel() string {
	if c.Label == "" {
		return "Command"
	}

	return c.Label
}

// GetParent returns the parent for this command or batch.
func (c *BaseCommand) GetParent() Runnable {
	return c.parent
}

// SetParent sets the parent for this command or batch.
func (c *BaseCommand) SetParent(parent Runnable) {
	c.parent = parent
}

// SetCwd sets the working directory unless one is already set.
func (c *BaseCommand) SetCwd(cwd string) {
	if c.Cwd == "" {
		c.Cwd = cwd
	}
}

// InheritEnv adds env to the command's environment. Existing keys win.
func (c *BaseCommand) InheritEnv(env map[string]string) {
	if len(c.Env) == 0 {
		c.Env = maps.Clone(env)
		return
	}

	for k, v := range env {
		if _, ok := c.Env[k]; !ok {
			c.Env[k] = v
		}
	}
}

// ShouldRun checks the previous command's outcome against RunsOnCondition.
func (c *BaseCommand) ShouldRun(prev PreviousCommandStatus) ShouldRunAction {
	if c.RunsOnCondition == RunOnSuccess && prev.State == ResultStatusError {
		return ShouldRunActionError
	}

	return ShouldRunActionRun
}

// setParents links each child to parent.
func setParents(parent Runnable, children []Runnable) {
	for _, c := range children {
		c.SetParent(parent)
	}
}
