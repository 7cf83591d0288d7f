// Copyright 2018-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMA implements Compressor for the legacy .lzma container using a Go-based
// implementation.
type LZMA struct{}

// Name returns the type of compression employed.
func (c *LZMA) Name() string {
	return "lzma"
}

// Magic returns the properties byte of the default lc=3 lp=0 pb=2 encoding
// followed by the low bytes of the 8 MiB dictionary size. The format has no
// real signature; this is what the writer below and the lzma tool emit.
func (c *LZMA) Magic() []byte {
	return []byte{0x5d, 0x00, 0x00}
}

// Decode decodes a byte slice of LZMA data.
func (c *LZMA) Decode(encodedData []byte) ([]byte, error) {
	return decodeAll(c, encodedData)
}

// Encode encodes a byte slice with LZMA.
func (c *LZMA) Encode(decodedData []byte) ([]byte, error) {
	return encodeAll(c, decodedData)
}

// NewReader returns a decompressing reader.
func (c *LZMA) NewReader(r io.Reader) (io.ReadCloser, error) {
	lr, err := lzma.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(lr), nil
}

// NewWriter returns a compressing writer.
func (c *LZMA) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lzma.NewWriter(w)
}
