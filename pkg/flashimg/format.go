// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flashimg

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a file encoding of an image.
type Format int

// Known formats.
const (
	FormatAuto Format = iota
	FormatBinary
	FormatB16
	FormatIntelHex
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatBinary:
		return "bin"
	case FormatB16:
		return "b16"
	case FormatIntelHex:
		return "hex"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat parses "auto", "bin", "b16" or "hex".
func ParseFormat(s string) (Format, error) {
	switch strings.Trim(strings.ToLower(s), " ") {
	case "", "auto":
		return FormatAuto, nil
	case "bin", "binary", "raw":
		return FormatBinary, nil
	case "b16", "base16":
		return FormatB16, nil
	case "hex", "ihex":
		return FormatIntelHex, nil
	}
	return FormatAuto, fmt.Errorf("unknown image format '%s'", s)
}

// DetectFormat guesses the format of data named name. Intel HEX and base16
// are recognized by extension, then by content: text made of hex digits and
// offset markers only is base16. Everything else is a flat binary.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hex", ".ihex":
		return FormatIntelHex
	case ".b16":
		return FormatB16
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatBinary
	}
	if trimmed[0] == ':' && isText(trimmed, "0123456789abcdefABCDEF:\r\n") {
		return FormatIntelHex
	}
	if isText(trimmed, "0123456789abcdefABCDEF@\r\n\t ") {
		return FormatB16
	}
	return FormatBinary
}

func isText(data []byte, alphabet string) bool {
	for _, c := range data {
		if strings.IndexByte(alphabet, c) < 0 {
			return false
		}
	}
	return true
}

// Decode reads data in format f, detecting it from name when f is
// FormatAuto.
func Decode(name string, data []byte, f Format) (*Image, error) {
	if f == FormatAuto {
		f = DetectFormat(name, data)
	}
	switch f {
	case FormatBinary:
		return FromBytes(data), nil
	case FormatB16:
		return ParseB16Bytes(data)
	case FormatIntelHex:
		return ParseIntelHex(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("cannot decode %s", f)
}

// Encode writes the image in format f. FormatAuto picks the format from the
// extension of name, defaulting to a flat binary.
func (img *Image) Encode(name string, f Format) ([]byte, error) {
	if f == FormatAuto {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".hex", ".ihex":
			f = FormatIntelHex
		case ".b16":
			f = FormatB16
		default:
			f = FormatBinary
		}
	}
	switch f {
	case FormatBinary:
		return img.Bytes(), nil
	case FormatB16:
		return img.B16(), nil
	case FormatIntelHex:
		return img.IntelHex()
	}
	return nil, fmt.Errorf("cannot encode %s", f)
}
