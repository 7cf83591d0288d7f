// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/bytesextra"

	"github.com/tenstorrent/ttfwtools/pkg/bytes"
	"github.com/tenstorrent/ttfwtools/pkg/check"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// Role tells which slot of the table a descriptor occupies.
type Role int

// Descriptor roles.
const (
	RoleRegular Role = iota
	RoleSecurity
	RoleFailover
)

func (r Role) String() string {
	switch r {
	case RoleRegular:
		return "regular"
	case RoleSecurity:
		return "security"
	case RoleFailover:
		return "failover"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// DescriptorInfo is one descriptor as found in flash, valid or not.
type DescriptorInfo struct {
	Role Role
	// Offset is the flash address of the descriptor itself.
	Offset       uint32
	FD           FD
	FDCRCValid   bool
	DataCRCValid bool
	// InBounds is false when the payload extends past the image.
	InBounds bool
}

// Inspect walks the table at head without rejecting anything. Walking stops
// at the first erased or invalid regular slot. It only fails when the
// descriptor region itself is truncated.
func Inspect(data []byte, head uint32) ([]DescriptorInfo, error) {
	if uint64(head)+DescRegionSize > uint64(len(data)) {
		return nil, fwerrors.Formatf("image of %#x bytes is too short for a table at %#x", len(data), head)
	}
	r := bytesextra.NewReadWriteSeeker(data)
	readAt := func(off uint32, role Role) (*DescriptorInfo, error) {
		if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		fd, err := ReadFD(r)
		if err != nil {
			return nil, err
		}
		info := &DescriptorInfo{Role: role, Offset: off, FD: *fd, FDCRCValid: fd.CRCValid()}
		end := uint64(fd.SPIAddr) + uint64(fd.ImageSize())
		if end <= uint64(len(data)) {
			info.InBounds = true
			info.DataCRCValid = Checksum(data[fd.SPIAddr:end]) == fd.DataCRC
		}
		return info, nil
	}

	var result []DescriptorInfo
	for i := uint32(0); i < MaxFDs; i++ {
		off := head + i*FDSize
		if bytes.IsFilled(data[off:off+FDSize], 0xff) {
			break
		}
		info, err := readAt(off, RoleRegular)
		if err != nil {
			return nil, err
		}
		if info.FD.Invalid() {
			break
		}
		result = append(result, *info)
	}
	for _, slot := range []struct {
		off  uint32
		role Role
	}{{head + SecurityFDOffset, RoleSecurity}, {head + FailoverFDOffset, RoleFailover}} {
		if bytes.IsFilled(data[slot.off:slot.off+FDSize], 0xff) {
			continue
		}
		info, err := readAt(slot.off, slot.role)
		if err != nil {
			return nil, err
		}
		result = append(result, *info)
	}
	return result, nil
}

// VerifyData checks the payload checksum of every descriptor of the table at
// head. Decode does not, so that a table with a damaged payload can still be
// read and repaired.
func VerifyData(data []byte, head uint32) error {
	infos, err := Inspect(data, head)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, info := range infos {
		if !info.DataCRCValid {
			result = multierror.Append(result, fwerrors.Formatf("%s: payload checksum mismatch", info.FD.ImageTag))
		}
	}
	return result.ErrorOrNil()
}

// Decode parses the primary table of a flat flash image.
func Decode(data []byte) (*BootFs, error) {
	return DecodeAt(data, 0)
}

// DecodeAt parses the table whose descriptors start at head.
//
// Every descriptor checksum is verified and the slack between the last
// regular descriptor and the security slot must be erased, so any change to
// the descriptor region is detected. Tags must be unique and payloads must lie
// inside the image without overlapping each other or the descriptors.
func DecodeAt(data []byte, head uint32) (*BootFs, error) {
	if uint64(head)+DescRegionSize > uint64(len(data)) {
		return nil, fwerrors.Formatf("image of %#x bytes is too short for a table at %#x", len(data), head)
	}
	r := bytesextra.NewReadWriteSeeker(data)
	readAt := func(off uint32, what string) (*FD, error) {
		if _, err := r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		fd, err := ReadFD(r)
		if err != nil {
			return nil, &fwerrors.FormatError{Msg: what, Err: err}
		}
		if !fd.CRCValid() {
			return nil, fwerrors.Formatf("%s at %#x: checksum %#08x, expected %#08x", what, off, fd.FDCRC, fd.ComputeCRC())
		}
		if fd.Invalid() {
			return nil, fwerrors.Formatf("%s at %#x is marked invalid but not erased", what, off)
		}
		return fd, nil
	}

	fs := &BootFs{Head: head, Entries: map[string]*FsEntry{}}
	seen := map[string]bool{}
	toEntry := func(fd *FD) (*FsEntry, error) {
		tag := fd.ImageTag.String()
		if _, err := NewTag(tag); err != nil {
			return nil, &fwerrors.FormatError{Msg: "bad descriptor", Err: err}
		}
		if seen[tag] {
			return nil, fwerrors.Formatf("duplicate tag %q", tag)
		}
		seen[tag] = true
		end := uint64(fd.SPIAddr) + uint64(fd.ImageSize())
		if end > uint64(len(data)) {
			return nil, fwerrors.Formatf("entry %q at %#x+%#x exceeds the image size %#x", tag, fd.SPIAddr, fd.ImageSize(), len(data))
		}
		return &FsEntry{
			Tag:        tag,
			Data:       append([]byte{}, data[fd.SPIAddr:end]...),
			SPIAddr:    fd.SPIAddr,
			LoadAddr:   fd.CopyDest,
			Executable: fd.Executable(),
		}, nil
	}

	var n uint32
	for ; n < MaxFDs; n++ {
		off := head + n*FDSize
		if bytes.IsFilled(data[off:off+FDSize], 0xff) {
			break
		}
		fd, err := readAt(off, fmt.Sprintf("descriptor #%d", n))
		if err != nil {
			return nil, err
		}
		e, err := toEntry(fd)
		if err != nil {
			return nil, err
		}
		fs.Order = append(fs.Order, e.Tag)
		fs.Entries[e.Tag] = e
	}
	slack := data[head+n*FDSize : head+SecurityFDOffset]
	if !bytes.IsFilled(slack, 0xff) {
		return nil, fwerrors.Formatf("descriptor region after %d descriptors is not erased", n)
	}

	if off := head + SecurityFDOffset; !bytes.IsFilled(data[off:off+FDSize], 0xff) {
		fd, err := readAt(off, "security descriptor")
		if err != nil {
			return nil, err
		}
		if fs.Security, err = toEntry(fd); err != nil {
			return nil, err
		}
	}

	off := head + FailoverFDOffset
	if bytes.IsFilled(data[off:off+FDSize], 0xff) {
		return nil, fwerrors.Formatf("table at %#x has no failover descriptor", head)
	}
	fd, err := readAt(off, "failover descriptor")
	if err != nil {
		return nil, err
	}
	if fs.Failover, err = toEntry(fd); err != nil {
		return nil, err
	}

	regions := fs.regions()
	if err := check.Disjoint(regions...); err != nil {
		return nil, &fwerrors.FormatError{Msg: "overlapping regions", Err: err}
	}
	return fs, nil
}
