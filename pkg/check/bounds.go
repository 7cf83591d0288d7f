// Copyright 2017-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package check has sanity checks for regions of a flash image. Every check
// reports all violations at once as a go-multierror.
package check

import (
	"github.com/hashicorp/go-multierror"

	"github.com/tenstorrent/ttfwtools/pkg/bytes"
)

// Region is a named byte range.
type Region struct {
	Name string
	bytes.Range
}

// Bounds checks that every region ends inside an image of the given length.
func Bounds(length uint64, regions ...Region) error {
	var result *multierror.Error
	for _, r := range regions {
		if r.End() > length || r.End() < r.Offset {
			result = multierror.Append(result, &ErrEndGreaterThanLength{Name: r.Name, Length: length, End: r.End()})
		}
	}
	return result.ErrorOrNil()
}

// Disjoint checks that no two regions share a byte.
func Disjoint(regions ...Region) error {
	ranges := make(bytes.Ranges, 0, len(regions))
	for _, r := range regions {
		ranges = append(ranges, r.Range)
	}
	var result *multierror.Error
	for _, pair := range ranges.Overlaps() {
		a, b := regions[pair[0]], regions[pair[1]]
		offset := a.Offset
		if b.Offset > offset {
			offset = b.Offset
		}
		result = multierror.Append(result, &ErrOverlap{First: a.Name, Second: b.Name, Offset: offset})
	}
	return result.ErrorOrNil()
}

// Aligned checks that every region starts on a multiple of alignment.
func Aligned(alignment uint64, regions ...Region) error {
	var result *multierror.Error
	for _, r := range regions {
		if !bytes.IsAligned(r.Offset, alignment) {
			result = multierror.Append(result, &ErrUnaligned{Name: r.Name, Offset: r.Offset, Alignment: alignment})
		}
	}
	return result.ErrorOrNil()
}
