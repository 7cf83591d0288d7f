// Copyright 2019-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytes has helpers for byte ranges inside flash images.
package bytes

import (
	"fmt"
	"sort"
	"strings"
)

// Range is a span of flash, [Offset, Offset+Length).
type Range struct {
	Offset uint64
	Length uint64
}

func (r Range) String() string {
	return fmt.Sprintf(`{"Offset":"0x%x", "Length":"0x%x"}`, r.Offset, r.Length)
}

// End returns the first offset past the range.
func (r Range) End() uint64 {
	return r.Offset + r.Length
}

// Intersect returns True if ranges "r" and "cmp" has at least
// one byte with the same offset.
func (r Range) Intersect(cmp Range) bool {
	if r.Length == 0 || cmp.Length == 0 {
		return false
	}
	return r.Offset < cmp.End() && cmp.Offset < r.End()
}

// Contains reports whether cmp lies completely inside r.
func (r Range) Contains(cmp Range) bool {
	return cmp.Offset >= r.Offset && cmp.End() <= r.End()
}

// Ranges is a helper to manipulate multiple `Range`-s at once
type Ranges []Range

func (s Ranges) String() string {
	r := make([]string, 0, len(s))
	for _, oneRange := range s {
		r = append(r, oneRange.String())
	}
	return `[` + strings.Join(r, `, `) + `]`
}

// Sort sorts the slice by field Offset
func (s Ranges) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Offset < s[j].Offset
	})
}

// Overlaps returns the index pairs of every two ranges sharing at least one
// byte. The receiver is not reordered.
func (s Ranges) Overlaps() [][2]int {
	var result [][2]int
	for i := range s {
		for j := i + 1; j < len(s); j++ {
			if s[i].Intersect(s[j]) {
				result = append(result, [2]int{i, j})
			}
		}
	}
	return result
}

// MergeRanges merges sorted ranges which touch or overlap.
//
// Warning: should be called only on sorted ranges!
func MergeRanges(in Ranges) Ranges {
	if len(in) < 2 {
		return in
	}

	var result Ranges
	entry := in[0]
	for _, nextEntry := range in[1:] {
		if entry.End() >= nextEntry.Offset {
			if nextEntry.End() > entry.End() {
				entry.Length = nextEntry.End() - entry.Offset
			}
			continue
		}
		result = append(result, entry)
		entry = nextEntry
	}
	return append(result, entry)
}

// AlignUp rounds v up to the next multiple of align, which must be a power
// of two.
func AlignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// IsAligned reports whether v is a multiple of align.
func IsAligned(v, align uint64) bool {
	return align == 0 || v&(align-1) == 0
}

// IsPowerOfTwo reports whether v is a non-zero power of two.
func IsPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// IsFilled returns true if b consists of fill bytes only.
func IsFilled(b []byte, fill byte) bool {
	for _, v := range b {
		if v != fill {
			return false
		}
	}
	return true
}
