// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flashimg represents sparse SPI flash images and converts them to
// and from the transport encodings used around tt_boot_fs: flat binaries,
// base16 text with `@offset` markers and Intel HEX.
//
// Bytes that no segment covers read as Erased, which is what an erased SPI
// NOR part returns.
package flashimg

import (
	"fmt"
	"sort"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// Erased is the value of an erased flash byte.
const Erased = 0xff

// Segment is a contiguous run of programmed bytes.
type Segment struct {
	Addr uint32
	Data []byte
}

// End returns the first address past the segment.
func (s Segment) End() uint64 {
	return uint64(s.Addr) + uint64(len(s.Data))
}

func (s Segment) String() string {
	return fmt.Sprintf("[%#x, %#x)", s.Addr, s.End())
}

// Image is a sorted list of non-overlapping, non-adjacent segments.
type Image struct {
	Segments []Segment
}

// FromBytes returns an image holding b at address 0.
func FromBytes(b []byte) *Image {
	img := &Image{}
	if len(b) > 0 {
		img.Segments = []Segment{{Addr: 0, Data: append([]byte(nil), b...)}}
	}
	return img
}

// find returns the index of the first segment ending after addr, or ending at
// addr when touching is set.
func (img *Image) find(addr uint64, touching bool) int {
	return sort.Search(len(img.Segments), func(i int) bool {
		if touching {
			return img.Segments[i].End() >= addr
		}
		return img.Segments[i].End() > addr
	})
}

// Add programs data at addr. Writing over bytes that are already programmed
// is a FormatError; touching segments are merged.
func (img *Image) Add(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	seg := Segment{Addr: addr, Data: append([]byte(nil), data...)}
	if seg.End() > 1<<32 {
		return fwerrors.Formatf("segment %v exceeds the 32-bit address space", seg)
	}
	i := img.find(uint64(addr), false)
	if i < len(img.Segments) && uint64(img.Segments[i].Addr) < seg.End() {
		return fwerrors.Formatf("segment %v overlaps %v", seg, img.Segments[i])
	}
	img.insert(i, seg)
	return nil
}

// Put programs data at addr, overwriting whatever was there.
func (img *Image) Put(addr uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	seg := Segment{Addr: addr, Data: append([]byte(nil), data...)}
	i := img.find(uint64(addr), true)
	j := i
	for j < len(img.Segments) && uint64(img.Segments[j].Addr) <= seg.End() {
		seg = overlay(seg, img.Segments[j])
		j++
	}
	img.Segments = append(img.Segments[:i], append([]Segment{seg}, img.Segments[j:]...)...)
}

// overlay merges two touching or overlapping segments, top taking precedence.
func overlay(top, bottom Segment) Segment {
	start := top.Addr
	if bottom.Addr < start {
		start = bottom.Addr
	}
	end := top.End()
	if bottom.End() > end {
		end = bottom.End()
	}
	data := make([]byte, end-uint64(start))
	copy(data[bottom.Addr-start:], bottom.Data)
	copy(data[top.Addr-start:], top.Data)
	return Segment{Addr: start, Data: data}
}

// insert places seg at index i and merges it with touching neighbours.
func (img *Image) insert(i int, seg Segment) {
	img.Segments = append(img.Segments, Segment{})
	copy(img.Segments[i+1:], img.Segments[i:])
	img.Segments[i] = seg
	if i+1 < len(img.Segments) && img.Segments[i+1].Addr == uint32(seg.End()) && seg.End() < 1<<32 {
		img.Segments[i].Data = append(img.Segments[i].Data, img.Segments[i+1].Data...)
		img.Segments = append(img.Segments[:i+1], img.Segments[i+2:]...)
	}
	if i > 0 && img.Segments[i-1].End() == uint64(img.Segments[i].Addr) {
		img.Segments[i-1].Data = append(img.Segments[i-1].Data, img.Segments[i].Data...)
		img.Segments = append(img.Segments[:i], img.Segments[i+1:]...)
	}
}

// Len returns the address just past the last programmed byte.
func (img *Image) Len() uint64 {
	if len(img.Segments) == 0 {
		return 0
	}
	return img.Segments[len(img.Segments)-1].End()
}

// Bytes flattens the image starting at address 0; gaps read as Erased.
func (img *Image) Bytes() []byte {
	out := make([]byte, img.Len())
	for i := range out {
		out[i] = Erased
	}
	for _, s := range img.Segments {
		copy(out[s.Addr:], s.Data)
	}
	return out
}

// ReadAt returns length bytes starting at addr, Erased where unprogrammed.
func (img *Image) ReadAt(addr uint32, length int) []byte {
	out := make([]byte, length)
	for i := range out {
		out[i] = Erased
	}
	end := uint64(addr) + uint64(length)
	for _, s := range img.Segments {
		if s.End() <= uint64(addr) || uint64(s.Addr) >= end {
			continue
		}
		lo, hi := uint64(s.Addr), s.End()
		if lo < uint64(addr) {
			lo = uint64(addr)
		}
		if hi > end {
			hi = end
		}
		copy(out[lo-uint64(addr):hi-uint64(addr)], s.Data[lo-uint64(s.Addr):hi-uint64(s.Addr)])
	}
	return out
}
