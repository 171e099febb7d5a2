// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package planner

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/sqlroll/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqlFiles(names ...string) []script.File {
	out := make([]script.File, len(names))
	for i, n := range names {
		out[i] = script.NewFile("/d/"+n, script.KindSQL)
	}

	return out
}

func segment() script.TagMatcher {
	return script.SegmentMatcher{Marker: script.GroupMarker}
}

func shape(units []Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		names := make([]string, len(u.Files))
		for j, f := range u.Files {
			names[j] = f.Name()
		}

		out[i] = u.Kind.String() + ":" + strings.Join(names, ",")
	}

	return out
}

func TestPlan_BatchThenSingle(t *testing.T) {
	units := Plan(sqlFiles("a_multi_1.sql", "a_multi_2.sql", "b.sql"), segment())

	assert.Equal(t, []string{
		"parallel:a_multi_1.sql,a_multi_2.sql",
		"single:b.sql",
	}, shape(units))
	assert.Equal(t, "/d/a_", units[0].Key)
}

func TestPlan_Cases(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name:  "all single",
			files: []string{"01.sql", "02.sql"},
			want:  []string{"single:01.sql", "single:02.sql"},
		},
		{
			name:  "lone tagged file is a batch of one",
			files: []string{"01.sql", "02_multi_a.sql", "03.sql"},
			want:  []string{"single:01.sql", "parallel:02_multi_a.sql", "single:03.sql"},
		},
		{
			name:  "adjacent groups with different keys",
			files: []string{"a_multi_1.sql", "a_multi_2.sql", "b_multi_1.sql", "b_multi_2.sql"},
			want:  []string{"parallel:a_multi_1.sql,a_multi_2.sql", "parallel:b_multi_1.sql,b_multi_2.sql"},
		},
		{
			name:  "same key split by a single is two batches",
			files: []string{"a_multi_1.sql", "a_multi_2.sql", "a_plain.sql", "a_multi_3.sql"},
			want:  []string{"parallel:a_multi_1.sql,a_multi_2.sql", "single:a_plain.sql", "parallel:a_multi_3.sql"},
		},
		{
			name:  "batch at end is flushed",
			files: []string{"01.sql", "02_multi_1.sql", "02_multi_2.sql"},
			want:  []string{"single:01.sql", "parallel:02_multi_1.sql,02_multi_2.sql"},
		},
		{
			name:  "incidental marker text is not a tag",
			files: []string{"01_multiply.sql", "02_multi_1.sql"},
			want:  []string{"single:01_multiply.sql", "parallel:02_multi_1.sql"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shape(Plan(sqlFiles(tt.files...), segment())))
		})
	}
}

func TestPlan_LegacySubstringGroupsIncidentalMarker(t *testing.T) {
	units := Plan(sqlFiles("01_multiply.sql", "02.sql"), script.SubstringMatcher{Marker: script.GroupMarker})
	assert.Equal(t, []string{"parallel:01_multiply.sql", "single:02.sql"}, shape(units))
}

func TestPlan_DifferentDirectoriesNeverShareABatch(t *testing.T) {
	files := []script.File{
		script.NewFile("/r/01/a_multi_1.sql", script.KindSQL),
		script.NewFile("/r/02/a_multi_1.sql", script.KindSQL),
	}

	units := Plan(files, segment())
	require.Len(t, units, 2)
	assert.Equal(t, UnitParallelBatch, units[0].Kind)
	assert.Equal(t, UnitParallelBatch, units[1].Kind)
}

// Every input file appears exactly once, in input order, and batches only
// hold tagged files that share a key.
func TestPlan_MembershipProperty(t *testing.T) {
	stems := []string{"a", "a_multi_1", "a_multi_2", "b_multi_1", "b", "c_multi", "multiply", "x-multi-y"}
	rng := rand.New(rand.NewPCG(7, 11))

	for i := range 200 {
		n := rng.IntN(12)
		names := make([]string, n)

		for j := range names {
			names[j] = fmt.Sprintf("%s_%02d.sql", stems[rng.IntN(len(stems))], j)
		}

		slices.Sort(names)
		files := sqlFiles(names...)
		units := Plan(files, segment())

		require.Equal(t, files, Flatten(units), "iteration %d", i)

		for _, u := range units {
			if u.Kind == UnitSingle {
				require.Len(t, u.Files, 1)
				continue
			}

			require.NotEmpty(t, u.Files)

			for _, f := range u.Files {
				key, tagged := segment().GroupKey(f)
				require.True(t, tagged)
				require.Equal(t, u.Key, key)
			}
		}
	}
}

func TestUnitLabel(t *testing.T) {
	f := sqlFiles("a_multi_1.sql", "a_multi_2.sql", "b.sql")

	assert.Equal(t, "b.sql", Single(f[2]).Label())
	assert.Equal(t, "parallel[a_multi_1.sql, a_multi_2.sql]", ParallelBatch("k", f[0], f[1]).Label())
}
