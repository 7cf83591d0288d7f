// Copyright 2018-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements the stream compressors firmware bundles may
// be packed with.
//
// tt-flash reads gzip; the other schemes are accepted on input and can be
// selected for output.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Compressor defines a single compression scheme (such as gzip).
type Compressor interface {
	// Name is the lower case scheme name, also used as file extension.
	Name() string

	// Decode and Encode obey "x == Decode(Encode(x))".
	Decode(encodedData []byte) ([]byte, error)
	Encode(decodedData []byte) ([]byte, error)

	// NewReader and NewWriter are the streaming forms.
	NewReader(r io.Reader) (io.ReadCloser, error)
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// Magic is the leading signature of encoded streams.
	Magic() []byte
}

var compressors = map[string]Compressor{}

func register(c Compressor) {
	compressors[c.Name()] = c
}

func init() {
	register(&GZIP{})
	register(&ZSTD{})
	register(&XZ{})
	register(&LZ4{})
	register(&LZMA{})
}

// Names returns the known scheme names, sorted.
func Names() []string {
	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromName returns the Compressor called name.
func FromName(name string) (Compressor, error) {
	if c, ok := compressors[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown compression %q, expected one of %s", name, strings.Join(Names(), ", "))
}

// Detect returns the Compressor whose magic prefixes header, or nil.
func Detect(header []byte) Compressor {
	for _, name := range Names() {
		c := compressors[name]
		if bytes.HasPrefix(header, c.Magic()) {
			return c
		}
	}
	return nil
}

// maxMagic is the longest signature Detect needs.
const maxMagic = 6

// NewDetectingReader sniffs the stream and decompresses it with the matching
// Compressor.
func NewDetectingReader(r io.Reader) (io.ReadCloser, Compressor, error) {
	header := make([]byte, maxMagic)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, nil, fmt.Errorf("unable to read the compression header: %w", err)
	}
	header = header[:n]
	c := Detect(header)
	if c == nil {
		return nil, nil, fmt.Errorf("unknown compression, header % x", header)
	}
	rc, err := c.NewReader(io.MultiReader(bytes.NewReader(header), r))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open %s stream: %w", c.Name(), err)
	}
	return rc, c, nil
}

func decodeAll(c Compressor, encodedData []byte) ([]byte, error) {
	r, err := c.NewReader(bytes.NewReader(encodedData))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func encodeAll(c Compressor, decodedData []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(decodedData); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
