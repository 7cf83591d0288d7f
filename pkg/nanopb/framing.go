// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nanopb bridges the framing used by the firmware's nanopb decoder
// and plain protobuf encodings.
//
// A framed blob is the protobuf stream, a terminating zero byte and padding up
// to a multiple of 4 bytes. The final byte holds the number of bytes added
// minus one, so an already aligned stream still gets 4 bytes appended.
package nanopb

import (
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// RemoveFraming returns the protobuf stream inside a framed blob.
func RemoveFraming(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fwerrors.Formatf("empty framed blob")
	}
	n := int(b[len(b)-1]) + 1
	if n > len(b) {
		return nil, fwerrors.Formatf("framing claims %d padding bytes in a %d byte blob", n, len(b))
	}
	return append([]byte(nil), b[:len(b)-n]...), nil
}

// AddFraming appends 0, 1, ..., k-1 where k = 4 - len(b)%4.
func AddFraming(b []byte) []byte {
	k := 4 - len(b)%4
	out := make([]byte, len(b), len(b)+k)
	copy(out, b)
	for i := 0; i < k; i++ {
		out = append(out, byte(i))
	}
	return out
}
