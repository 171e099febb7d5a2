// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// GroupingSegment requires the marker as a whole, delimited segment of the file stem.
	GroupingSegment = "segment"
	// GroupingSubstring treats any path containing the marker as grouped.
	GroupingSubstring = "substring"
)

// ErrUnknownGrouping is returned for an unsupported grouping mode.
var ErrUnknownGrouping = errors.New("unknown grouping mode")

// TagMatcher decides whether a file carries a grouping tag and, if so,
// returns the key shared by all files of the same group.
type TagMatcher interface {
	GroupKey(f File) (key string, tagged bool)
}

// NewTagMatcher returns the matcher for mode. The empty mode is GroupingSegment.
func NewTagMatcher(mode string) (TagMatcher, error) {
	switch mode {
	case "", GroupingSegment:
		return SegmentMatcher{Marker: GroupMarker}, nil
	case GroupingSubstring:
		return SubstringMatcher{Marker: GroupMarker}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrouping, mode)
	}
}

// SegmentMatcher finds Marker in the stem of the file name where it is
// bounded by '_', '-', '.' or the ends of the stem. The key is the
// directory plus the stem text before the marker, so "a_multi_1.sql" and
// "a_multi_2.sql" share a key while "multiply.sql" is not tagged at all.
type SegmentMatcher struct {
	Marker string
}

// GroupKey implements TagMatcher.
func (m SegmentMatcher) GroupKey(f File) (string, bool) {
	if f.Kind != KindSQL || m.Marker == "" {
		return "", false
	}

	stem := f.BaseName

	for from := 0; from <= len(stem)-len(m.Marker); {
		i := strings.Index(stem[from:], m.Marker)
		if i < 0 {
			break
		}

		start := from + i
		end := start + len(m.Marker)

		if (start == 0 || isSeparator(stem[start-1])) && (end == len(stem) || isSeparator(stem[end])) {
			return f.Dir() + "/" + stem[:start], true
		}

		from = start + 1
	}

	return "", false
}

func isSeparator(b byte) bool {
	return b == '_' || b == '-' || b == '.'
}

// SubstringMatcher tags any file whose path contains Marker anywhere and
// keys it by the path text before the first occurrence. A directory name
// containing the marker therefore tags every file below it.
type SubstringMatcher struct {
	Marker string
}

// GroupKey implements TagMatcher.
func (m SubstringMatcher) GroupKey(f File) (string, bool) {
	if f.Kind != KindSQL || m.Marker == "" {
		return "", false
	}

	i := strings.Index(f.Path, m.Marker)
	if i < 0 {
		return "", false
	}

	return f.Path[:i], true
}
