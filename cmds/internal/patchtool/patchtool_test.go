// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package patchtool

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/prototext"

	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/fwpatch"
	"github.com/tenstorrent/ttfwtools/pkg/fwtable"
	"github.com/tenstorrent/ttfwtools/pkg/nanopb"
)

func TestParse(t *testing.T) {
	var out bytes.Buffer
	f := Flags{Stderr: &out}
	fs := NewFlagSet("tool", &f)
	size := fs.Int64("size", 0, "")

	code, ok := f.Parse(fs, []string{"-i", "in.tar.gz", "-o", "out.tar.gz", "-b", "P100-1", "--board", "?", "--size", "32"})
	require.True(t, ok)
	require.Equal(t, fwerrors.ExOK, code)
	require.Equal(t, "in.tar.gz", f.Input)
	require.Equal(t, []string{"P100-1", "?"}, f.Boards)
	require.EqualValues(t, 32, *size)
	require.Equal(t, fwbundle.DefaultCompression, f.Compression)
	require.True(t, f.Listing())
	require.True(t, f.Required(fs, "input", "size"))
	require.False(t, f.Required(fs, "verbose"))
	require.Contains(t, out.String(), "tool: --verbose is required")
	require.Contains(t, out.String(), "--compression", "usage follows the error")

	req := f.Request(fwpatch.SetBar4Size{SizeMiB: 32})
	require.Equal(t, "out.tar.gz", req.Output)
	require.Equal(t, fwbundle.DefaultCompression, req.Options.Compression)

	for _, args := range [][]string{{"--nope"}, {"stray"}, {"--size", "big"}} {
		f := Flags{Stderr: &out}
		fs := NewFlagSet("tool", &f)
		fs.Int64("size", 0, "")
		code, ok := f.Parse(fs, args)
		require.False(t, ok, args)
		require.Equal(t, fwerrors.ExUsage, code, args)
	}
	require.Contains(t, out.String(), `tool: unexpected arguments ["stray"]`)

	f = Flags{Stderr: &out}
	fs = NewFlagSet("tool", &f)
	code, ok = f.Parse(fs, []string{"--help"})
	require.False(t, ok)
	require.Equal(t, fwerrors.ExOK, code)
}

func testBundle(t *testing.T, dir string) string {
	t.Helper()
	cfg := fwtable.NewFwTable()
	require.NoError(t, cfg.SetBar4Size(0, 512))
	b, err := cfg.Marshal()
	require.NoError(t, err)
	fs := bootfs.New(
		bootfs.NewEntry(false, bootfs.TagFailover, []byte{5, 6, 7, 8}, 0x8000, 0x10000000, true),
		bootfs.NewEntry(false, bootfs.TagCMFWCfg, nanopb.AddFraming(b), 0x6000, 0, false),
	)
	raw, err := fs.Encode(false)
	require.NoError(t, err)
	img := filepath.Join(dir, "p100.bin")
	require.NoError(t, os.WriteFile(img, raw, 0o644))
	out := filepath.Join(dir, "in.tar.gz")
	require.NoError(t, fwbundle.Create(out, fwbundle.Version{FwID: 80}, map[string]string{"P100-1": img}, fwbundle.Options{}))
	return out
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := testBundle(t, dir)
	out := filepath.Join(dir, "out.tar.gz")

	f := &Flags{Input: in, Output: out}
	require.Equal(t, fwerrors.ExOK, run(context.Background(), f, fwpatch.SetBar4Size{SizeMiB: 4096}))
	_, err := os.Stat(out)
	require.NoError(t, err)

	f = &Flags{Input: in, Output: filepath.Join(dir, "bad.tar.gz")}
	require.Equal(t, fwerrors.ExDataErr, run(context.Background(), f, fwpatch.SetBar4Size{SizeMiB: 3000}))

	f = &Flags{Input: in, Output: filepath.Join(dir, "none.tar.gz"), Boards: []string{"P999"}}
	require.Equal(t, fwerrors.ExDataErr, run(context.Background(), f, fwpatch.SetBar4Size{SizeMiB: 32}))

	f = &Flags{Input: filepath.Join(dir, "missing.tar.gz"), Output: out}
	require.Equal(t, fwerrors.ExNoInput, run(context.Background(), f, fwpatch.SetBar4Size{SizeMiB: 32}))
}

func TestListingNeedsNoValue(t *testing.T) {
	dir := t.TempDir()
	in := testBundle(t, dir)

	var out bytes.Buffer
	f := Flags{Stderr: &out}
	fs := NewFlagSet("tool", &f)
	fs.Int64("size", 0, "")
	code, ok := f.Parse(fs, []string{"-i", in, "--board", "?"})
	require.True(t, ok)
	require.Equal(t, fwerrors.ExOK, code)
	require.True(t, f.Listing())
	require.True(t, f.Required(fs, "input"))
	require.False(t, fs.Changed("size"))

	require.Equal(t, fwerrors.ExOK, run(context.Background(), &f, fwpatch.SetBar4Size{SizeMiB: 3}))
	require.Equal(t, fwerrors.ExOK, run(context.Background(), &f, fwpatch.SetBoardID{}))
	require.Empty(t, out.String())

	f = Flags{Stderr: &out}
	NewFlagSet("tool", &f)
	require.False(t, f.Listing())
	require.Equal(t, ExUsage, f.Usagef("--upi: %v", "bad"))
	require.Equal(t, "tool: --upi: bad\n", out.String())
}

func TestSchemaFlag(t *testing.T) {
	dir := t.TempDir()
	in := testBundle(t, dir)
	prev := fwtable.Active()
	t.Cleanup(func() { fwtable.Use(prev) })

	text, err := prototext.Marshal(fwtable.BuiltinSchema())
	require.NoError(t, err)
	good := filepath.Join(dir, "fwtable.txtpb")
	require.NoError(t, os.WriteFile(good, text, 0o644))
	bad := filepath.Join(dir, "bad.binpb")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

	var out bytes.Buffer
	f := Flags{Stderr: &out}
	fs := NewFlagSet("tool", &f)
	_, ok := f.Parse(fs, []string{"-i", in, "-o", filepath.Join(dir, "out.tar.gz"), "--schema", good})
	require.True(t, ok)
	require.Equal(t, fwerrors.ExOK, run(context.Background(), &f, fwpatch.SetBar4Size{SizeMiB: 32}))
	require.NotSame(t, prev, fwtable.Active())

	f.Schema = bad
	require.Equal(t, fwerrors.ExDataErr, run(context.Background(), &f, fwpatch.SetBar4Size{SizeMiB: 32}))
	f.Schema = filepath.Join(dir, "missing.binpb")
	require.Equal(t, fwerrors.ExNoInput, run(context.Background(), &f, fwpatch.SetBar4Size{SizeMiB: 32}))
}
