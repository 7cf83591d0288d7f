// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package create

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

func writeImage(t *testing.T, dir string) string {
	t.Helper()
	fs := bootfs.New(
		bootfs.NewEntry(false, bootfs.TagFailover, []byte{1, 2, 3, 4}, 0x5000, 0x10000000, true),
		bootfs.NewEntry(false, "cmfw", []byte{5, 6, 7, 8}, 0x6000, 0x10000000, true),
	)
	raw, err := fs.Encode(false)
	require.NoError(t, err)
	path := filepath.Join(dir, "p100.bin")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)
	out := filepath.Join(dir, "fw_pack.tar.gz")

	cmd := &Command{
		ArchiveOptions: commands.ArchiveOptions{Output: out, Compression: "gzip"},
		Version:        "80.16.0.1",
	}
	require.NoError(t, cmd.Execute([]string{"P100-1", img}))

	meta, err := fwbundle.ReadMetadata(out)
	require.NoError(t, err)
	require.Equal(t, []string{"P100-1"}, meta.BoardNames())
	v, err := meta.Manifest.BundleVersion.Version()
	require.NoError(t, err)
	require.Equal(t, "80.16.0.1", v.String())
}

func TestCreateErrors(t *testing.T) {
	dir := t.TempDir()
	img := writeImage(t, dir)
	out := filepath.Join(dir, "fw_pack.tar.gz")

	for name, tc := range map[string]struct {
		version string
		args    []string
		code    int
	}{
		"no boards":    {"80.16.0.1", nil, fwerrors.ExUsage},
		"odd args":     {"80.16.0.1", []string{"P100-1"}, fwerrors.ExUsage},
		"twice":        {"80.16.0.1", []string{"P100-1", img, "P100-1", img}, fwerrors.ExUsage},
		"bad version":  {"80.16.0", []string{"P100-1", img}, fwerrors.ExDataErr},
		"missing file": {"80.16.0.1", []string{"P100-1", filepath.Join(dir, "nope.bin")}, fwerrors.ExNoInput},
	} {
		t.Run(name, func(t *testing.T) {
			cmd := &Command{
				ArchiveOptions: commands.ArchiveOptions{Output: out, Compression: "gzip"},
				Version:        tc.version,
			}
			err := cmd.Execute(tc.args)
			require.Error(t, err)
			require.Equal(t, tc.code, cli.ExitCode(err))
			_, statErr := os.Stat(out)
			require.True(t, os.IsNotExist(statErr), "no bundle may be written")
		})
	}
}
