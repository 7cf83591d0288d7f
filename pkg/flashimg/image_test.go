// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flashimg

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

func TestParseB16Gaps(t *testing.T) {
	img, err := ParseB16(strings.NewReader("@0\n01020304\n@4096\n05060708\n"))
	require.NoError(t, err)

	flat := img.Bytes()
	require.Len(t, flat, 4100)
	require.Equal(t, []byte{1, 2, 3, 4}, flat[:4])
	require.Equal(t, bytes.Repeat([]byte{0xff}, 4092), flat[4:4096])
	require.Equal(t, []byte{5, 6, 7, 8}, flat[4096:])
}

func TestParseB16(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "plain",
			in:   "DEADBEEF",
			want: []Segment{{0, []byte{0xde, 0xad, 0xbe, 0xef}}},
		},
		{
			name: "lowercase_and_crlf",
			in:   "@16\r\ndeadbeef\r\n",
			want: []Segment{{16, []byte{0xde, 0xad, 0xbe, 0xef}}},
		},
		{
			name: "continued_lines_merge",
			in:   "@8\nAABB\nCCDD\n",
			want: []Segment{{8, []byte{0xaa, 0xbb, 0xcc, 0xdd}}},
		},
		{
			name: "touching_markers_merge",
			in:   "@0\nAABB\n@2\nCCDD\n",
			want: []Segment{{0, []byte{0xaa, 0xbb, 0xcc, 0xdd}}},
		},
		{
			name: "empty",
			in:   "",
			want: nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			img, err := ParseB16(strings.NewReader(tc.in))
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, img.Segments); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseB16Errors(t *testing.T) {
	for name, in := range map[string]string{
		"backwards":      "@16\nAABB\n@0\nCCDD\n",
		"overlap":        "@0\nAABBCCDD\n@2\n00\n",
		"bad_hex":        "@0\nXYZ0\n",
		"odd_length":     "@0\nABC\n",
		"bad_marker":     "@0x10\nAA\n",
		"negative":       "@-1\nAA\n",
		"beyond_address": "@4294967295\nAABB\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseB16(strings.NewReader(in))
			var fe *fwerrors.FormatError
			require.True(t, errors.As(err, &fe), "expected a format error, got %v", err)
		})
	}
}

func TestB16RoundTrip(t *testing.T) {
	img := &Image{}
	require.NoError(t, img.Add(0x1000, []byte{1, 2, 3, 4}))
	require.NoError(t, img.Add(0, []byte{0xaa, 0xbb}))
	require.Equal(t, "@0\nAABB\n@4096\n01020304\n", string(img.B16()))

	back, err := ParseB16Bytes(img.B16())
	require.NoError(t, err)
	require.Equal(t, img.Segments, back.Segments)
	require.Equal(t, img.Bytes(), back.Bytes())
}

func TestB16Plain(t *testing.T) {
	require.Equal(t, "00FF10", string(B16Plain([]byte{0, 0xff, 0x10})))
	img, err := ParseB16Bytes(B16Plain([]byte{0, 0xff, 0x10}))
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0xff, 0x10}, img.Bytes())
}

func TestImageAdd(t *testing.T) {
	img := &Image{}
	require.NoError(t, img.Add(8, []byte{3, 4}))
	require.NoError(t, img.Add(4, []byte{1, 2}))
	require.NoError(t, img.Add(6, []byte{9, 9}))
	require.Equal(t, []Segment{{4, []byte{1, 2, 9, 9, 3, 4}}}, img.Segments)

	require.Error(t, img.Add(5, []byte{0}))
	require.Error(t, img.Add(0, []byte{0, 0, 0, 0, 0}))
	require.NoError(t, img.Add(0, []byte{0, 0, 0, 0}))
	require.Len(t, img.Segments, 1)
	require.EqualValues(t, 10, img.Len())
}

func TestImagePut(t *testing.T) {
	img := &Image{}
	require.NoError(t, img.Add(0, []byte{1, 1, 1, 1}))
	require.NoError(t, img.Add(8, []byte{2, 2, 2, 2}))
	img.Put(2, []byte{7, 7, 7, 7, 7, 7, 7})
	require.Equal(t, []Segment{{0, []byte{1, 1, 7, 7, 7, 7, 7, 7, 7, 2, 2, 2}}}, img.Segments)

	img.Put(100, []byte{5})
	require.Len(t, img.Segments, 2)
	require.Equal(t, []byte{0xff, 5, 0xff}, img.ReadAt(99, 3))
}

func TestImageReadAt(t *testing.T) {
	img := FromBytes([]byte{1, 2, 3, 4})
	require.Equal(t, []byte{3, 4, 0xff, 0xff}, img.ReadAt(2, 4))
	require.Equal(t, []byte{0xff, 0xff}, img.ReadAt(1000, 2))
}

func TestIntelHexRoundTrip(t *testing.T) {
	img := &Image{}
	require.NoError(t, img.Add(0, bytes.Repeat([]byte{0x5a}, 40)))
	require.NoError(t, img.Add(0x14000, []byte{1, 2, 3, 4, 5, 6, 7, 8}))

	out, err := img.IntelHex()
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(strings.TrimSpace(string(out)), ":00000001FF"))

	back, err := ParseIntelHex(bytes.NewReader(out))
	require.NoError(t, err)
	if diff := cmp.Diff(img.Segments, back.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestParseIntelHexBad(t *testing.T) {
	_, err := ParseIntelHex(strings.NewReader(":0400000001020304F1\n"))
	var fe *fwerrors.FormatError
	require.True(t, errors.As(err, &fe))
}

func TestFormats(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
		want Format
	}{
		{"fw.hex", "", FormatIntelHex},
		{"image.bin", "@0\nAABB\n@16\nCC\n", FormatB16},
		{"image.bin", "AABBCCDD", FormatB16},
		{"flash", ":0400000001020304F2\n:00000001FF\n", FormatIntelHex},
		{"flash.bin", "\x00\x01\xff", FormatBinary},
		{"x.b16", "\x00", FormatB16},
	} {
		t.Run(tc.name+"/"+tc.want.String(), func(t *testing.T) {
			require.Equal(t, tc.want, DetectFormat(tc.name, []byte(tc.data)))
		})
	}

	f, err := ParseFormat("IHEX")
	require.NoError(t, err)
	require.Equal(t, FormatIntelHex, f)
	_, err = ParseFormat("srec")
	require.Error(t, err)

	img, err := Decode("image.bin", []byte("@4\nAABB\n"), FormatAuto)
	require.NoError(t, err)
	out, err := img.Encode("out.bin", FormatAuto)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xaa, 0xbb}, out)
	out, err = img.Encode("out.b16", FormatAuto)
	require.NoError(t, err)
	require.Equal(t, "@4\nAABB\n", string(out))
	out, err = img.Encode("out.hex", FormatAuto)
	require.NoError(t, err)
	back, err := Decode("x", out, FormatAuto)
	require.NoError(t, err)
	require.Equal(t, img.Segments, back.Segments)
}
