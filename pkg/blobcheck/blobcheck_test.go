// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blobcheck

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// sha256("abc")
const abcSum = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

const moduleYAML = `name: tt-zephyr-platforms
build:
  cmake: .
blobs:
  - path: tt_blackhole_libpciesd.a
    sha256: ` + abcSum + `
    type: lib
    url: https://example.invalid/libpciesd.a
  - path: gone.bin
    sha256: 00
  - path: sub/changed.bin
    sha256: ` + abcSum + `
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadModule(t *testing.T) {
	m, err := LoadModule(strings.NewReader(moduleYAML))
	require.NoError(t, err)
	require.Len(t, m.Blobs, 3)
	require.Equal(t, "lib", m.Blobs[0].Type)

	m, err = LoadModule(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, m.Blobs)

	_, err = LoadModule(strings.NewReader("blobs: [\n"))
	var fe *fwerrors.FormatError
	require.True(t, errors.As(err, &fe))
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tt_blackhole_libpciesd.a"), "abc")
	writeFile(t, filepath.Join(dir, "sub", "changed.bin"), "abd")

	m, err := LoadModule(strings.NewReader(moduleYAML))
	require.NoError(t, err)
	results, err := Verify(m, dir)
	require.Error(t, err)
	require.Equal(t, fwerrors.ExDataErr, fwerrors.ExitCode(err))

	require.Len(t, results, 3)
	require.Equal(t, StatusOK, results[0].Status)
	require.Equal(t, abcSum, results[0].Actual)
	require.Equal(t, StatusMissing, results[1].Status)
	require.Equal(t, StatusMismatch, results[2].Status)

	var ve *fwerrors.VerificationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "sub/changed.bin", ve.Board)
}

func TestVerifyClean(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.bin"), "abc")
	results, err := Verify(&Module{Blobs: []Blob{{Path: "a.bin", SHA256: strings.ToUpper(abcSum)}}}, dir)
	require.NoError(t, err)
	require.Equal(t, StatusOK, results[0].Status)
}
