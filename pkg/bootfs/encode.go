// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"fmt"
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/tenstorrent/ttfwtools/pkg/bytes"
	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
)

// descriptors renders the descriptor region. Unused slots stay erased, which
// also provides the terminator after the last regular descriptor.
func (fs *BootFs) descriptors() ([]byte, error) {
	desc := erased(DescRegionSize)
	w := bytesextra.NewReadWriteSeeker(desc)
	writeAt := func(off int64, e *FsEntry) error {
		fd, err := e.FD()
		if err != nil {
			return err
		}
		if _, err := w.Seek(off, io.SeekStart); err != nil {
			return err
		}
		_, err = fd.WriteTo(w)
		return err
	}
	for i, tag := range fs.Order {
		if err := writeAt(int64(i)*FDSize, fs.Entries[tag]); err != nil {
			return nil, fmt.Errorf("unable to write descriptor #%d (%s): %w", i, tag, err)
		}
	}
	if fs.Security != nil {
		if err := writeAt(SecurityFDOffset, fs.Security); err != nil {
			return nil, fmt.Errorf("unable to write the security descriptor: %w", err)
		}
	}
	if err := writeAt(FailoverFDOffset, fs.Failover); err != nil {
		return nil, fmt.Errorf("unable to write the failover descriptor: %w", err)
	}
	return desc, nil
}

// payloads returns the programmed regions of the table keyed by address.
func (fs *BootFs) payloads() (map[uint64][]byte, error) {
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	desc, err := fs.descriptors()
	if err != nil {
		return nil, err
	}
	payloads := map[uint64][]byte{uint64(fs.Head): desc}
	for _, e := range fs.all() {
		if len(e.Data) > 0 {
			payloads[uint64(e.SPIAddr)] = e.Data
		}
	}
	return payloads, nil
}

// assemble places payloads into a sparse image. With pad every region is
// extended with erased bytes to the next BlockSize boundary, stopping short of
// the following region.
func assemble(payloads map[uint64][]byte, pad bool) (*flashimg.Image, error) {
	var ranges bytes.Ranges
	for off, data := range payloads {
		ranges = append(ranges, bytes.Range{Offset: off, Length: uint64(len(data))})
	}
	ranges.Sort()

	img := &flashimg.Image{}
	for i, r := range ranges {
		data := payloads[r.Offset]
		if pad {
			end := bytes.AlignUp(r.End(), BlockSize)
			if i+1 < len(ranges) && ranges[i+1].Offset < end {
				end = ranges[i+1].Offset
			}
			if end > 1<<32 {
				end = 1 << 32
			}
			if end > r.End() {
				data = append(append([]byte(nil), data...), erased(int(end-r.End()))...)
			}
		}
		if err := img.Add(uint32(r.Offset), data); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// Segments lays the table out as a sparse flash image: the descriptor region
// at Head followed by every payload at its SPI address.
func (fs *BootFs) Segments(pad bool) (*flashimg.Image, error) {
	payloads, err := fs.payloads()
	if err != nil {
		return nil, err
	}
	return assemble(payloads, pad)
}

// Encode returns the flat flash image starting at address 0.
func (fs *BootFs) Encode(pad bool) ([]byte, error) {
	img, err := fs.Segments(pad)
	if err != nil {
		return nil, err
	}
	return img.Bytes(), nil
}

// all returns regular entries in order, then security and failover.
func (fs *BootFs) all() []*FsEntry {
	out := make([]*FsEntry, 0, len(fs.Order)+2)
	for _, tag := range fs.Order {
		out = append(out, fs.Entries[tag])
	}
	if fs.Security != nil {
		out = append(out, fs.Security)
	}
	if fs.Failover != nil {
		out = append(out, fs.Failover)
	}
	return out
}

func erased(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = flashimg.Erased
	}
	return b
}
