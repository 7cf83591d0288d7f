// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

func TestSizeRequiredUnlessListing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.tar.gz")
	require.Equal(t, fwerrors.ExUsage, run([]string{"-i", missing, "-o", "out.tar.gz"}))
	require.Equal(t, fwerrors.ExUsage, run([]string{"--board", "?"}))
	// Past the flag checks, the missing bundle is the failure.
	require.Equal(t, fwerrors.ExNoInput, run([]string{"-i", missing, "--board", "?"}))
}
