// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package rollout

// State is the phase an Orchestrator is in.
type State int32

const (
	// StateIdle is the state before Run.
	StateIdle State = iota
	// StateScanningDirs lists the directories of the root.
	StateScanningDirs
	// StateRunningShell runs the shell scripts of a directory.
	StateRunningShell
	// StateRunningSQL runs the SQL units of a directory.
	StateRunningSQL
	// StateAdvance is entered when a directory completes or is skipped.
	StateAdvance
	// StateAbort is final: a fatal error stopped the rollout.
	StateAbort
	// StateDone is final: every directory was handled.
	StateDone
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanningDirs:
		return "scanning directories"
	case StateRunningShell:
		return "running shell"
	case StateRunningSQL:
		return "running sql"
	case StateAdvance:
		return "advance"
	case StateAbort:
		return "abort"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
