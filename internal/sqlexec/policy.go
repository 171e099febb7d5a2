// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sqlexec

// Verdict is how a rollout treats a script that ran on its own.
type Verdict int

const (
	// VerdictPass continues the rollout.
	VerdictPass Verdict = iota
	// VerdictWarn continues the rollout after logging a warning.
	VerdictWarn
	// VerdictFail aborts the rollout.
	VerdictFail
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case VerdictWarn:
		return "warn"
	case VerdictFail:
		return "fail"
	default:
		return "pass"
	}
}

// Judge decides the verdict for a single script. A script with errors only
// fails the rollout when stopOnError is set.
//
// Members of a parallel batch are not judged here: any member with errors
// fails its batch whatever stopOnError says.
func Judge(r Report, stopOnError bool) Verdict {
	switch {
	case r.Outcome == OutcomePassed:
		return VerdictPass
	case stopOnError:
		return VerdictFail
	default:
		return VerdictWarn
	}
}
