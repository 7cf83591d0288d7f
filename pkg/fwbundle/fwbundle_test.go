// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwbundle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

var testOpts = Options{ModTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}

func bootImage(t *testing.T, withCfg bool, fill byte) []byte {
	t.Helper()
	entries := []*bootfs.FsEntry{
		bootfs.NewEntry(false, "cmfw", []byte{fill, fill, fill, fill}, 0x5000, 0x10000000, true),
	}
	if withCfg {
		entries = append(entries, bootfs.NewEntry(false, bootfs.TagCMFWCfg, []byte{0x08, 0x01, 0x00, 0x00}, 0x6000, 0, false))
	}
	fs := bootfs.New(bootfs.NewEntry(false, bootfs.TagFailover, []byte{1, 2, 3, 4}, 0x7000, 0x10000000, true), entries...)
	raw, err := fs.Encode(false)
	require.NoError(t, err)
	return raw
}

func writeInput(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

// makeBundle creates a bundle with a raw board holding cmfwcfg and an Intel
// HEX board without it.
func makeBundle(t *testing.T, dir string) string {
	t.Helper()
	hexData, err := flashimg.FromBytes(bootImage(t, false, 0x22)).IntelHex()
	require.NoError(t, err)
	boards := map[string]string{
		"P100-1":  writeInput(t, dir, "p100.bin", bootImage(t, true, 0x11)),
		"P150A-1": writeInput(t, dir, "p150a.hex", hexData),
	}
	out := filepath.Join(dir, "out.fwbundle")
	require.NoError(t, Create(out, Version{FwID: 80, ReleaseID: 16, Debug: 1}, boards, testOpts))
	return out
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("80.16.0.1")
	require.NoError(t, err)
	require.Equal(t, Version{FwID: 80, ReleaseID: 16, Patch: 0, Debug: 1}, v)
	require.Equal(t, "80.16.0.1", v.String())

	for _, bad := range []string{"80.16.0", "80.16.0.1.2", "256.0.0.0", "a.b.c.d", "-1.0.0.0", ""} {
		_, err := ParseVersion(bad)
		var ve *fwerrors.ValidationError
		require.True(t, errors.As(err, &ve), bad)
	}
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	out := makeBundle(t, dir)

	b, err := Open(out)
	require.NoError(t, err)
	defer b.Close()

	boards, err := b.Boards()
	require.NoError(t, err)
	require.Equal(t, []string{"P100-1", "P150A-1"}, boards)

	mask, err := os.ReadFile(filepath.Join(b.Dir, "P100-1", MaskFile))
	require.NoError(t, err)
	require.Equal(t, `[{"tag":"write-boardcfg"}]`, string(mask))
	mapping, err := os.ReadFile(filepath.Join(b.Dir, "P100-1", MappingFile))
	require.NoError(t, err)
	require.Equal(t, `[]`, string(mapping))

	raw, err := os.ReadFile(filepath.Join(b.Dir, "P100-1", ImageFile))
	require.NoError(t, err)
	require.Equal(t, flashimg.B16Plain(bootImage(t, true, 0x11)), raw)
	hexImage, err := os.ReadFile(filepath.Join(b.Dir, "P150A-1", ImageFile))
	require.NoError(t, err)
	require.Equal(t, byte('@'), hexImage[0])

	m, err := b.Manifest()
	require.NoError(t, err)
	require.Equal(t, &Manifest{Version: "2.0.0", BundleVersion: BundleVersion{FwID: 80, ReleaseID: 16, Debug: 1}}, m)
}

func TestCreateMissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.fwbundle")
	err := Create(out, Version{}, map[string]string{"P100-1": filepath.Join(dir, "nope.bin")}, testOpts)
	require.Error(t, err)
	require.Equal(t, fwerrors.ExNoInput, fwerrors.ExitCode(err))
	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
}

func TestCreateBadCompression(t *testing.T) {
	dir := t.TempDir()
	err := Create(filepath.Join(dir, "out"), Version{}, nil, Options{Compression: "rar"})
	var ve *fwerrors.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestPackDeterministic(t *testing.T) {
	dir := t.TempDir()
	first, err := os.ReadFile(makeBundle(t, dir))
	require.NoError(t, err)
	second, err := os.ReadFile(makeBundle(t, dir))
	require.NoError(t, err)
	require.Equal(t, first, second)

	t.Setenv("SOURCE_DATE_EPOCH", "1700000000")
	mt, err := Options{}.modTime()
	require.NoError(t, err)
	require.Equal(t, int64(1700000000), mt.Unix())

	t.Setenv("SOURCE_DATE_EPOCH", "yesterday")
	require.Error(t, Options{}.Validate())
}

func TestReadMetadata(t *testing.T) {
	md, err := ReadMetadata(makeBundle(t, t.TempDir()))
	require.NoError(t, err)
	require.Equal(t, []string{"P100-1", "P150A-1"}, md.BoardNames())
	require.Equal(t, []string{"P100-1"}, md.BoardsWithTag(bootfs.TagCMFWCfg))
	require.Equal(t, []string{"P100-1", "P150A-1"}, md.BoardsWithTag("cmfw"))

	want := []EntryMetadata{
		{Tag: "cmfw", Role: bootfs.RoleRegular, SPIAddr: 0x5000, Size: 4, LoadAddr: 0x10000000, Executable: true},
		{Tag: bootfs.TagCMFWCfg, Role: bootfs.RoleRegular, SPIAddr: 0x6000, Size: 4},
		{Tag: bootfs.TagFailover, Role: bootfs.RoleFailover, SPIAddr: 0x7000, Size: 4, LoadAddr: 0x10000000, Executable: true},
	}
	require.Len(t, md.Boards["P100-1"].Tables, 1)
	if diff := cmp.Diff(want, md.Boards["P100-1"].Tables[0].Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCombineLastWins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.fwbundle")
	b := filepath.Join(dir, "b.fwbundle")
	require.NoError(t, Create(a, Version{FwID: 1}, map[string]string{
		"X": writeInput(t, dir, "x1.bin", bootImage(t, true, 0x01)),
		"Y": writeInput(t, dir, "y.bin", bootImage(t, false, 0x02)),
	}, testOpts))
	require.NoError(t, Create(b, Version{FwID: 2}, map[string]string{
		"X": writeInput(t, dir, "x2.bin", bootImage(t, false, 0x03)),
	}, Options{Compression: "zstd", ModTime: testOpts.ModTime}))

	out := filepath.Join(dir, "combined.fwbundle")
	require.NoError(t, Combine([]string{a, b}, out, testOpts))

	bundle, err := Open(out)
	require.NoError(t, err)
	defer bundle.Close()
	boards, err := bundle.Boards()
	require.NoError(t, err)
	require.Equal(t, []string{"X", "Y"}, boards)

	img, err := bundle.ReadImage("X")
	require.NoError(t, err)
	require.Equal(t, bootImage(t, false, 0x03), img.Bytes())
	m, err := bundle.Manifest()
	require.NoError(t, err)
	require.Equal(t, 2, m.BundleVersion.FwID)

	err = Combine([]string{a, filepath.Join(dir, "missing")}, filepath.Join(dir, "never"), testOpts)
	require.Equal(t, fwerrors.ExNoInput, fwerrors.ExitCode(err))
	_, err = os.Stat(filepath.Join(dir, "never"))
	require.True(t, os.IsNotExist(err))
}

func TestExtractNotABundle(t *testing.T) {
	dir := t.TempDir()
	p := writeInput(t, dir, "plain.txt", []byte("hello, world"))
	_, err := Open(p)
	var fe *fwerrors.FormatError
	require.True(t, errors.As(err, &fe))
}

func TestMemberPath(t *testing.T) {
	for in, want := range map[string]string{
		".":                "",
		"./":               "",
		"./manifest.json":  "manifest.json",
		"./P100-1/":        "P100-1",
		"P100-1/image.bin": "P100-1/image.bin",
	} {
		got, err := memberPath(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	for _, bad := range []string{"../evil", "./a/../../evil", "/etc/passwd"} {
		_, err := memberPath(bad)
		require.Error(t, err, bad)
	}
}

func u32(v uint32) *uint32 { return &v }

func TestApplyMask(t *testing.T) {
	img := flashimg.FromBytes([]byte{
		0xaa, 0xaa, 0xaa, 0xaa, // incr
		0xaa, 0xaa, 0xaa, 0xaa, // date
		0xaa, 0xaa, // flash_version
		0xaa, 0xaa, 0xaa, 0xaa, // bundle_version
		0xaa, 0xaa, // rmw
		0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, // board info
	})
	mask := Mask{
		{Tag: MaskIncr, Start: u32(0), End: u32(4)},
		{Tag: MaskDate, Start: u32(4), End: u32(8)},
		{Tag: MaskFlashVersion, Start: u32(8), End: u32(10)},
		{Tag: MaskBundleVersion, Start: u32(10), End: u32(14)},
		{Tag: MaskRMW, Start: u32(14), End: u32(16)},
		{Tag: "sparkle", Start: u32(0), End: u32(24)},
		{Tag: MaskWriteBoardCfg},
	}
	mapping, err := ParseMapping([]byte(`{"HEADER": {"BOARD_INFO": {"start": 16, "end": 24}}}`))
	require.NoError(t, err)
	id := uint64(0x0000043000000010)
	opts := MaskOptions{BoardID: &id, Today: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)}
	manifest := NewManifest(Version{FwID: 80, ReleaseID: 16, Patch: 2, Debug: 1})

	require.NoError(t, ApplyMask(img, mask, mapping, manifest, opts))
	require.Equal(t, []byte{
		0, 0, 0, 0,
		0x16, 0x10, 0x26, 0x20,
		0, 0,
		1, 2, 16, 80,
		0xaa, 0xaa,
		0x10, 0, 0, 0, 0x30, 0x04, 0, 0,
	}, img.Bytes())
}

func TestApplyMaskErrors(t *testing.T) {
	img := flashimg.FromBytes(make([]byte, 8))
	err := ApplyMask(img, Mask{{Tag: MaskIncr}}, nil, nil, MaskOptions{})
	var fe *fwerrors.FormatError
	require.True(t, errors.As(err, &fe))

	err = ApplyMask(img, Mask{{Tag: MaskBundleVersion, Start: u32(0), End: u32(2)}}, nil, NewManifest(Version{}), MaskOptions{})
	require.True(t, errors.As(err, &fe))

	err = ApplyMask(img, Mask{{Tag: MaskDate, Start: u32(0), End: u32(2)}}, nil, nil, MaskOptions{})
	require.True(t, errors.As(err, &fe), "a date does not fit in two bytes")

	// No BOARD_INFO: the id is not written but the mask still applies.
	id := uint64(7)
	require.NoError(t, ApplyMask(img, nil, &Mapping{}, nil, MaskOptions{BoardID: &id}))
	require.Equal(t, make([]byte, 8), img.Bytes())
}

func TestMappingLookup(t *testing.T) {
	m, err := ParseMapping([]byte(`[]`))
	require.NoError(t, err)
	_, _, ok := m.Lookup("HEADER", "BOARD_INFO")
	require.False(t, ok)

	m, err = ParseMapping([]byte(`{"HEADER": {"BOARD_INFO": {"start": 4, "end": 12}, "X": 3}}`))
	require.NoError(t, err)
	start, end, ok := m.Lookup("HEADER", "BOARD_INFO")
	require.True(t, ok)
	require.EqualValues(t, 4, start)
	require.EqualValues(t, 12, end)
	_, _, ok = m.Lookup("HEADER", "X")
	require.False(t, ok)
	_, _, ok = m.Lookup("HEADER")
	require.False(t, ok)

	_, err = ParseMapping([]byte(`{`))
	require.Error(t, err)
}

func TestRecoveryImage(t *testing.T) {
	out := makeBundle(t, t.TempDir())
	b, err := Open(out)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, os.WriteFile(filepath.Join(b.Dir, "P100-1", MaskFile),
		[]byte(`[{"tag":"write-boardcfg"},{"tag":"incr","start":20480,"end":20484}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b.Dir, "P100-1", MappingFile),
		[]byte(`{"HEADER":{"BOARD_INFO":{"start":24576,"end":24584}}}`), 0o644))

	id := uint64(0x0102030405060708)
	img, err := b.RecoveryImage("P100-1", MaskOptions{BoardID: &id})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, img.ReadAt(0x5000, 4))
	require.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, img.ReadAt(0x6000, 8))

	hex, err := img.IntelHex()
	require.NoError(t, err)
	back, err := flashimg.ParseIntelHex(bytes.NewReader(hex))
	require.NoError(t, err)
	require.Equal(t, img.Bytes(), back.Bytes())

	_, err = RecoveryHex(out, "P999", MaskOptions{})
	var nf *fwerrors.NotFoundError
	require.True(t, errors.As(err, &nf))
}
