// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"io"

	"github.com/ulikunitz/xz"
)

// XZ implements Compressor and uses a Go-based implementation.
type XZ struct{}

// Name returns the type of compression employed.
func (c *XZ) Name() string {
	return "xz"
}

// Magic returns the xz stream signature.
func (c *XZ) Magic() []byte {
	return []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
}

// Decode decodes a byte slice of xz data.
func (c *XZ) Decode(encodedData []byte) ([]byte, error) {
	return decodeAll(c, encodedData)
}

// Encode encodes a byte slice with xz.
func (c *XZ) Encode(decodedData []byte) ([]byte, error) {
	return encodeAll(c, decodedData)
}

// NewReader returns a decompressing reader.
func (c *XZ) NewReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

// NewWriter returns a compressing writer.
func (c *XZ) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}
