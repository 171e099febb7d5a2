// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
	"strings"
)

const labelSeparator = " > "

// FullLabel returns the label of r prefixed by the labels of its ancestors,
// e.g. "rollout > 01_schema > a_multi_1.sql".
func FullLabel(r Runnable) string {
	if r == nil {
		return "Unknown"
	}

	var labels []string
	for cur := r; cur != nil; cur = cur.GetParent() {
		labels = append(labels, cur.GetLabel())
	}

	slices.Reverse(labels)

	return strings.Join(labels, labelSeparator)
}
