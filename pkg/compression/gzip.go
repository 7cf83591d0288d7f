// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
)

// GZIP implements Compressor. The header carries no name and no
// modification time so equal input gives equal output.
type GZIP struct {
	// Level defaults to gzip.DefaultCompression.
	Level int
}

// Name returns the type of compression employed.
func (c *GZIP) Name() string {
	return "gzip"
}

// Magic returns the gzip member signature.
func (c *GZIP) Magic() []byte {
	return []byte{0x1f, 0x8b}
}

// Decode decodes a byte slice of gzip data.
func (c *GZIP) Decode(encodedData []byte) ([]byte, error) {
	return decodeAll(c, encodedData)
}

// Encode encodes a byte slice with gzip.
func (c *GZIP) Encode(decodedData []byte) ([]byte, error) {
	return encodeAll(c, decodedData)
}

// NewReader returns a decompressing reader.
func (c *GZIP) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// NewWriter returns a compressing writer.
func (c *GZIP) NewWriter(w io.Writer) (io.WriteCloser, error) {
	level := c.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return nil, err
	}
	gw.ModTime = time.Unix(0, 0)
	return gw, nil
}
