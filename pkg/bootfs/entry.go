// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"fmt"

	"github.com/tenstorrent/ttfwtools/pkg/bytes"
)

// FsEntry is one named payload of the boot filesystem.
type FsEntry struct {
	// ProvisioningOnly entries are written by full provisioning only and
	// left out of update images. The flag is not stored in flash.
	ProvisioningOnly bool
	Tag              string
	Data             []byte
	SPIAddr          uint32
	// LoadAddr is where the bootrom copies the payload, 0 if not copied.
	LoadAddr   uint32
	Executable bool
}

// NewEntry returns an entry holding a copy of data zero padded to a multiple
// of 4 bytes.
func NewEntry(provisioningOnly bool, tag string, data []byte, spiAddr, loadAddr uint32, executable bool) *FsEntry {
	padded := make([]byte, bytes.AlignUp(uint64(len(data)), 4))
	copy(padded, data)
	return &FsEntry{
		ProvisioningOnly: provisioningOnly,
		Tag:              tag,
		Data:             padded,
		SPIAddr:          spiAddr,
		LoadAddr:         loadAddr,
		Executable:       executable,
	}
}

// Range returns the flash span of the payload.
func (e *FsEntry) Range() bytes.Range {
	return bytes.Range{Offset: uint64(e.SPIAddr), Length: uint64(len(e.Data))}
}

// WithData returns a copy of e carrying data, padded like NewEntry.
func (e *FsEntry) WithData(data []byte) *FsEntry {
	return NewEntry(e.ProvisioningOnly, e.Tag, data, e.SPIAddr, e.LoadAddr, e.Executable)
}

// FD builds the descriptor for the entry.
func (e *FsEntry) FD() (*FD, error) {
	tag, err := NewTag(e.Tag)
	if err != nil {
		return nil, err
	}
	if len(e.Data) > MaxImageSize {
		return nil, fmt.Errorf("entry %q: %d bytes do not fit the 24-bit size field", e.Tag, len(e.Data))
	}
	fd := &FD{
		SPIAddr:  e.SPIAddr,
		CopyDest: e.LoadAddr,
		Flags:    uint32(len(e.Data)) & FlagImageSizeMask,
		DataCRC:  Checksum(e.Data),
		ImageTag: tag,
	}
	if e.Executable {
		fd.Flags |= FlagExecutable
	}
	fd.FDCRC = fd.ComputeCRC()
	return fd, nil
}

func (e *FsEntry) String() string {
	return fmt.Sprintf("%s@%#x+%#x", e.Tag, e.SPIAddr, len(e.Data))
}
