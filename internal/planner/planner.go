// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package planner partitions a sorted list of SQL scripts into execution units.
//
// Contiguous scripts that share a grouping key form one parallel batch; every
// other script runs on its own. Units run in order, batch members concurrently.
package planner

import (
	"fmt"
	"strings"

	"github.com/matt-FFFFFF/sqlroll/internal/script"
)

// UnitKind says how a unit is executed.
type UnitKind int

const (
	// UnitSingle holds exactly one script.
	UnitSingle UnitKind = iota
	// UnitParallelBatch holds one or more scripts run concurrently.
	UnitParallelBatch
)

// String implements fmt.Stringer.
func (k UnitKind) String() string {
	if k == UnitParallelBatch {
		return "parallel"
	}

	return "single"
}

// Unit is one step of a directory's SQL pipeline.
type Unit struct {
	Kind  UnitKind
	Key   string // Grouping key, empty for UnitSingle.
	Files []script.File
}

// Single returns a UnitSingle for f.
func Single(f script.File) Unit {
	return Unit{Kind: UnitSingle, Files: []script.File{f}}
}

// ParallelBatch returns a UnitParallelBatch of files sharing key.
func ParallelBatch(key string, files ...script.File) Unit {
	return Unit{Kind: UnitParallelBatch, Key: key, Files: files}
}

// Label describes the unit for logs and result trees.
func (u Unit) Label() string {
	if u.Kind == UnitSingle && len(u.Files) == 1 {
		return u.Files[0].Name()
	}

	names := make([]string, len(u.Files))
	for i, f := range u.Files {
		names[i] = f.Name()
	}

	return fmt.Sprintf("parallel[%s]", strings.Join(names, ", "))
}

// Plan groups files, which must already be sorted, into units.
//
// A tagged file joins the pending batch when the batch is empty or its key
// equals the key of the batch's first file. Anything else flushes the pending
// batch first. Untagged files become single units; a tagged file without
// neighbours becomes a batch of one.
func Plan(files []script.File, m script.TagMatcher) []Unit {
	units := make([]Unit, 0, len(files))

	var (
		pending    []script.File
		pendingKey string
	)

	flush := func() {
		if len(pending) > 0 {
			units = append(units, ParallelBatch(pendingKey, pending...))
			pending = nil
		}
	}

	for _, f := range files {
		key, tagged := m.GroupKey(f)

		if tagged && (len(pending) == 0 || key == pendingKey) {
			if len(pending) == 0 {
				pendingKey = key
			}

			pending = append(pending, f)

			continue
		}

		flush()

		if tagged {
			pendingKey = key
			pending = append(pending, f)

			continue
		}

		units = append(units, Single(f))
	}

	flush()

	return units
}

// Flatten returns the files of units in execution order.
func Flatten(units []Unit) []script.File {
	var out []script.File
	for _, u := range units {
		out = append(out, u.Files...)
	}

	return out
}
