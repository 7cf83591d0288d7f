// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flashimg

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// ParseB16 decodes the sparse base16 transport used by firmware bundles.
//
// A line starting with '@' sets the current address (decimal). Any other
// non-empty line is hex data programmed at the current address, which then
// advances past it. Data before the first marker starts at address 0.
// Addresses must never move backwards or into already programmed bytes.
func ParseB16(r io.Reader) (*Image, error) {
	img := &Image{}
	var (
		addr   uint64
		lineNo int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<30)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '@' {
			off, err := strconv.ParseUint(line[1:], 10, 32)
			if err != nil {
				return nil, &fwerrors.FormatError{Msg: fmt.Sprintf("line %d: bad offset marker %q", lineNo, line), Err: err}
			}
			if off < img.Len() || off < addr {
				return nil, fwerrors.Formatf("line %d: offset %d goes backwards (current end %d)", lineNo, off, img.Len())
			}
			addr = off
			continue
		}
		data, err := hex.DecodeString(line)
		if err != nil {
			return nil, &fwerrors.FormatError{Msg: fmt.Sprintf("line %d: bad base16 data", lineNo), Err: err}
		}
		if addr+uint64(len(data)) > 1<<32 {
			return nil, fwerrors.Formatf("line %d: data at %d exceeds the 32-bit address space", lineNo, addr)
		}
		if err := img.Add(uint32(addr), data); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		addr += uint64(len(data))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("unable to read base16 image: %w", err)
	}
	return img, nil
}

// ParseB16Bytes is ParseB16 over an in-memory buffer.
func ParseB16Bytes(b []byte) (*Image, error) {
	return ParseB16(bytes.NewReader(b))
}

// B16 encodes the image with one `@offset` marker per segment.
func (img *Image) B16() []byte {
	var buf bytes.Buffer
	for _, s := range img.Segments {
		fmt.Fprintf(&buf, "@%d\n", s.Addr)
		buf.WriteString(strings.ToUpper(hex.EncodeToString(s.Data)))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// B16Plain encodes a flat binary as a single base16 block without markers.
func B16Plain(raw []byte) []byte {
	return []byte(strings.ToUpper(hex.EncodeToString(raw)))
}
