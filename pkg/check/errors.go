// Copyright 2017-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package check

import (
	"fmt"
)

// ErrEndGreaterThanLength means a region runs past the end of the image.
type ErrEndGreaterThanLength struct {
	Name   string
	Length uint64
	End    uint64
}

func (err *ErrEndGreaterThanLength) Error() string {
	return fmt.Sprintf("%s ends outside of the image: %#x > %#x",
		err.Name, err.End, err.Length)
}

// ErrOverlap means two named regions share at least one byte.
type ErrOverlap struct {
	First, Second string
	Offset        uint64
}

func (err *ErrOverlap) Error() string {
	return fmt.Sprintf("%s overlaps %s at %#x", err.First, err.Second, err.Offset)
}

// ErrUnaligned means a region does not start on the required boundary.
type ErrUnaligned struct {
	Name      string
	Offset    uint64
	Alignment uint64
}

func (err *ErrUnaligned) Error() string {
	return fmt.Sprintf("%s at %#x is not aligned to %#x", err.Name, err.Offset, err.Alignment)
}
