// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

// ShouldRunAction is the verdict of a command's pre-check.
type ShouldRunAction int

const (
	// ShouldRunActionRun means run the command.
	ShouldRunActionRun ShouldRunAction = iota
	// ShouldRunActionError means skip the command because an earlier one failed.
	ShouldRunActionError
)
