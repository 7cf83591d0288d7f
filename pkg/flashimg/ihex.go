// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flashimg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// IntelHexLineLength is the number of data bytes per emitted record.
const IntelHexLineLength = 16

// ParseIntelHex reads an Intel HEX file. Each contiguous range becomes one
// segment; unwritten addresses stay erased.
func ParseIntelHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, &fwerrors.FormatError{Msg: "bad Intel HEX", Err: err}
	}
	img := &Image{}
	for _, s := range mem.GetDataSegments() {
		if err := img.Add(s.Address, s.Data); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// IntelHex encodes the image. Only programmed ranges produce records.
func (img *Image) IntelHex() ([]byte, error) {
	mem := gohex.NewMemory()
	for _, s := range img.Segments {
		if err := mem.AddBinary(s.Addr, s.Data); err != nil {
			return nil, fmt.Errorf("unable to add segment %v: %w", s, err)
		}
	}
	var buf bytes.Buffer
	if err := mem.DumpIntelHex(&buf, IntelHexLineLength); err != nil {
		return nil, fmt.Errorf("unable to write Intel HEX: %w", err)
	}
	return buf.Bytes(), nil
}
