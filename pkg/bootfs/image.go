// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xaionaro-go/bytesextra"

	ttbytes "github.com/tenstorrent/ttfwtools/pkg/bytes"
	"github.com/tenstorrent/ttfwtools/pkg/check"
	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// Image is a flash image holding one or more tables.
type Image struct {
	Tables []*BootFs
}

// DecodeImage parses the tables at heads. Without heads the primary table is
// decoded and the rest of the image is scanned for further tables.
// Tables must not overlap each other.
func DecodeImage(data []byte, heads ...uint32) (*Image, error) {
	if len(heads) == 0 {
		return ScanImage(data)
	}
	img := &Image{}
	for _, head := range heads {
		fs, err := DecodeAt(data, head)
		if err != nil {
			return nil, fmt.Errorf("table at %#x: %w", head, err)
		}
		img.Tables = append(img.Tables, fs)
	}
	sort.SliceStable(img.Tables, func(i, j int) bool {
		return img.Tables[i].Head < img.Tables[j].Head
	})
	if err := img.checkDisjoint(); err != nil {
		return nil, err
	}
	return img, nil
}

// ScanImage decodes the primary table and every further table found at a
// block aligned head outside of the regions already claimed. A candidate head
// needs a valid failover descriptor before a full decode is attempted.
//
// The failover slot of a candidate is block aligned, so the erased gap in
// front of a table decodes as an empty table whose failover is the first
// descriptor of the real one. Candidates whose failover slot is itself the
// head of a table are rejected.
func ScanImage(data []byte) (*Image, error) {
	primary, err := Decode(data)
	if err != nil {
		return nil, err
	}
	img := &Image{Tables: []*BootFs{primary}}
	claimed := primary.regions()
	for head := uint64(BlockSize); head+DescRegionSize <= uint64(len(data)); head += BlockSize {
		cand := ttbytes.Range{Offset: head, Length: DescRegionSize}
		taken := false
		for _, r := range claimed {
			if r.Intersect(cand) {
				taken = true
				break
			}
		}
		if taken || !plausibleFailover(data[head+FailoverFDOffset:head+DescRegionSize]) {
			continue
		}
		fs, err := DecodeAt(data, uint32(head))
		if err != nil {
			continue
		}
		if _, err := DecodeAt(data, uint32(head+FailoverFDOffset)); err == nil {
			continue
		}
		img.Tables = append(img.Tables, fs)
		claimed = append(claimed, fs.regions()...)
	}
	if err := img.checkDisjoint(); err != nil {
		return nil, err
	}
	return img, nil
}

func plausibleFailover(slot []byte) bool {
	fd, err := ReadFD(bytesextra.NewReadWriteSeeker(slot))
	if err != nil {
		return false
	}
	return !fd.Invalid() && fd.CRCValid() && fd.ImageSize() > 0
}

func (img *Image) checkDisjoint() error {
	var regions []check.Region
	for _, fs := range img.Tables {
		for _, r := range fs.regions() {
			r.Name = fmt.Sprintf("%#x/%s", fs.Head, r.Name)
			regions = append(regions, r)
		}
	}
	if err := check.Disjoint(regions...); err != nil {
		return &fwerrors.FormatError{Msg: "tables overlap", Err: err}
	}
	return nil
}

// FindTable returns the first table holding tag.
func (img *Image) FindTable(tag string) (*BootFs, bool) {
	for _, fs := range img.Tables {
		if _, ok := fs.Get(tag); ok {
			return fs, true
		}
	}
	return nil, false
}

// Segments merges the layout of every table.
func (img *Image) Segments(pad bool) (*flashimg.Image, error) {
	if len(img.Tables) == 0 {
		return nil, fwerrors.Formatf("image has no tables")
	}
	if err := img.checkDisjoint(); err != nil {
		return nil, err
	}
	all := map[uint64][]byte{}
	for _, fs := range img.Tables {
		payloads, err := fs.payloads()
		if err != nil {
			return nil, fmt.Errorf("table at %#x: %w", fs.Head, err)
		}
		for off, data := range payloads {
			if _, ok := all[off]; ok {
				return nil, fwerrors.Formatf("table at %#x: two regions start at %#x", fs.Head, off)
			}
			all[off] = data
		}
	}
	return assemble(all, pad)
}

// Encode returns the flat flash image of every table.
func (img *Image) Encode(pad bool) ([]byte, error) {
	seg, err := img.Segments(pad)
	if err != nil {
		return nil, err
	}
	return seg.Bytes(), nil
}

// FromB16 decodes the primary table of a sparse base16 image.
func FromB16(text []byte) (*BootFs, error) {
	img, err := flashimg.ParseB16(bytes.NewReader(text))
	if err != nil {
		return nil, err
	}
	return Decode(img.Bytes())
}

// ToB16 encodes fs into the sparse base16 transport.
func ToB16(fs *BootFs, pad bool) ([]byte, error) {
	img, err := fs.Segments(pad)
	if err != nil {
		return nil, err
	}
	return img.B16(), nil
}

// ToIntelHex encodes fs as Intel HEX. Only programmed ranges produce records.
func ToIntelHex(fs *BootFs, pad bool) ([]byte, error) {
	img, err := fs.Segments(pad)
	if err != nil {
		return nil, err
	}
	return img.IntelHex()
}
