// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Layout constants shared with the bootrom.
const (
	// FDSize is the size of one file descriptor.
	FDSize = 32
	// TagSize is the width of the image tag field.
	TagSize = 8
	// SecurityFDOffset is the security binary descriptor, relative to the head.
	SecurityFDOffset = 0x3FE0
	// FailoverFDOffset is the failover descriptor, relative to the head.
	FailoverFDOffset = 0x4000
	// DescRegionSize covers the regular, security and failover descriptors.
	DescRegionSize = FailoverFDOffset + FDSize
	// MaxFDs is the number of regular descriptors that fit before the
	// security descriptor.
	MaxFDs = SecurityFDOffset / FDSize
	// MaxImageSize is the largest payload the 24-bit size field can describe.
	MaxImageSize = 1<<24 - 1
	// BlockSize is the erase block size pad aligns regions to.
	BlockSize = 0x1000
)

// Descriptor flag bits.
const (
	FlagImageSizeMask = 0x00FFFFFF
	FlagInvalid       = 1 << 24
	FlagExecutable    = 1 << 25
)

// Security flag fields.
const (
	SecSignatureSizeMask = 0xFFF
	SecSBPhaseShift      = 12
	SecSBPhaseMask       = 0xFF
)

// Well known tags.
const (
	TagFailover = "failover"
	TagCMFWCfg  = "cmfwcfg"
	TagBoardCfg = "boardcfg"
)

// Tag is the fixed width NUL padded image tag.
type Tag [TagSize]byte

// NewTag converts s into a Tag. s must be 1 to 8 printable ASCII characters.
func NewTag(s string) (Tag, error) {
	var t Tag
	if len(s) == 0 || len(s) > TagSize {
		return t, fmt.Errorf("tag %q must be 1 to %d bytes long", s, TagSize)
	}
	for _, c := range []byte(s) {
		if c < 0x20 || c > 0x7e {
			return t, fmt.Errorf("tag %q contains a non printable character %#x", s, c)
		}
	}
	copy(t[:], s)
	return t, nil
}

func (t Tag) String() string {
	return strings.TrimRight(string(t[:]), "\x00")
}

// MarshalJSON implements json.Marshaler.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tag) UnmarshalJSON(b []byte) error {
	str, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	tag, err := NewTag(str)
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// FD is one file descriptor as stored in flash.
type FD struct {
	SPIAddr       uint32 `pretty:"SPI Address"`
	CopyDest      uint32
	Flags         uint32
	DataCRC       uint32
	SecurityFlags uint32
	ImageTag      Tag
	FDCRC         uint32 `pretty:"FD CRC"`
}

// ImageSize returns the payload size.
func (fd *FD) ImageSize() uint32 { return fd.Flags & FlagImageSizeMask }

// Invalid reports whether the invalid bit is set.
func (fd *FD) Invalid() bool { return fd.Flags&FlagInvalid != 0 }

// Executable reports whether the bootrom jumps to the copied image.
func (fd *FD) Executable() bool { return fd.Flags&FlagExecutable != 0 }

// SignatureSize returns the size of the signature following the payload.
func (fd *FD) SignatureSize() uint32 { return fd.SecurityFlags & SecSignatureSizeMask }

// SBPhase returns the secure boot phase.
func (fd *FD) SBPhase() uint32 { return fd.SecurityFlags >> SecSBPhaseShift & SecSBPhaseMask }

// Bytes returns the on-flash representation.
func (fd *FD) Bytes() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, fd)
	return buf.Bytes()
}

// ComputeCRC returns the checksum over everything but FDCRC.
func (fd *FD) ComputeCRC() uint32 {
	return Checksum(fd.Bytes()[:FDSize-4])
}

// CRCValid reports whether FDCRC matches the descriptor.
func (fd *FD) CRCValid() bool {
	return fd.ComputeCRC() == fd.FDCRC
}

// FlagNames returns a human readable representation of Flags.
func (fd *FD) FlagNames() string {
	var names []string
	if fd.Invalid() {
		names = append(names, "INVALID")
	}
	if fd.Executable() {
		names = append(names, "EXECUTABLE")
	}
	if rsvd := fd.Flags &^ (FlagImageSizeMask | FlagInvalid | FlagExecutable); rsvd != 0 {
		names = append(names, fmt.Sprintf("%#x", rsvd))
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "|")
}

// ReadFD reads one descriptor from r.
func ReadFD(r io.Reader) (*FD, error) {
	var fd FD
	if err := binary.Read(r, binary.LittleEndian, &fd); err != nil {
		return nil, err
	}
	return &fd, nil
}

// WriteTo implements io.WriterTo.
func (fd *FD) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.LittleEndian, fd); err != nil {
		return 0, err
	}
	return FDSize, nil
}

// Checksum is the sum of little endian 32-bit words modulo 2^32. A trailing
// partial word is zero extended. The checksum of nothing is 0.
func Checksum(data []byte) uint32 {
	var sum uint32
	for len(data) >= 4 {
		sum += binary.LittleEndian.Uint32(data)
		data = data[4:]
	}
	if len(data) > 0 {
		var last [4]byte
		copy(last[:], data)
		sum += binary.LittleEndian.Uint32(last[:])
	}
	return sum
}
