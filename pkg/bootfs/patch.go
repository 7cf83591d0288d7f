// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"fmt"

	"github.com/xaionaro-go/bytesextra"

	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// Patch replaces the payload of the regular entry tag and programs the change
// into img, which must hold the table. The old payload is erased, then the new
// payload and its descriptor are written in place. The security flags of the
// descriptor are kept and nothing else in img changes. On error neither fs nor
// img is modified.
func (fs *BootFs) Patch(img *flashimg.Image, tag string, data []byte) error {
	slot := -1
	for i, t := range fs.Order {
		if t == tag {
			slot = i
			break
		}
	}
	old, ok := fs.Entries[tag]
	if slot < 0 || !ok {
		return &fwerrors.NotFoundError{Kind: "entry", Name: tag}
	}

	fs.Entries[tag] = old.WithData(data)
	restore := func(err error) error {
		fs.Entries[tag] = old
		return err
	}
	if err := fs.Validate(); err != nil {
		return restore(err)
	}
	e := fs.Entries[tag]
	fd, err := e.FD()
	if err != nil {
		return restore(err)
	}
	off := fs.Head + uint32(slot)*FDSize
	prev, err := ReadFD(bytesextra.NewReadWriteSeeker(img.ReadAt(off, FDSize)))
	if err != nil {
		return restore(err)
	}
	if prev.ImageTag != fd.ImageTag {
		return restore(fwerrors.Formatf("descriptor #%d at %#x is %q, expected %q", slot, off, prev.ImageTag, tag))
	}
	fd.SecurityFlags = prev.SecurityFlags
	fd.FDCRC = fd.ComputeCRC()

	img.Put(old.SPIAddr, erased(len(old.Data)))
	img.Put(e.SPIAddr, e.Data)
	img.Put(off, fd.Bytes())
	return nil
}

// PatchEntry locates the table holding tag in img, patches it and returns the
// table.
func PatchEntry(img *flashimg.Image, tag string, data []byte) (*BootFs, error) {
	fsImg, err := DecodeImage(img.Bytes())
	if err != nil {
		return nil, err
	}
	fs, ok := fsImg.FindTable(tag)
	if !ok {
		return nil, &fwerrors.NotFoundError{Kind: "entry", Name: tag}
	}
	if err := fs.Patch(img, tag, data); err != nil {
		return nil, fmt.Errorf("table at %#x: %w", fs.Head, err)
	}
	return fs, nil
}
