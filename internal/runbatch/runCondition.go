// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

// RunCondition defines when a command runs, based on the previous command's result.
type RunCondition int

const (
	// RunOnSuccess runs the command only if the previous one succeeded or only warned.
	RunOnSuccess RunCondition = iota
	// RunOnAlways runs the command regardless of the previous result.
	RunOnAlways
)

const (
	runOnSuccessStr = "success"
	runOnAlwaysStr  = "always"
	runOnUnknownStr = "unknown"
)

// String returns the string representation of the RunCondition.
func (r RunCondition) String() string {
	switch r {
	case RunOnSuccess:
		return runOnSuccessStr
	case RunOnAlways:
		return runOnAlwaysStr
	default:
		return runOnUnknownStr
	}
}
