// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

func TestExitCode(t *testing.T) {
	require.Equal(t, fwerrors.ExOK, ExitCode(nil))
	require.Equal(t, fwerrors.ExOK, ExitCode(&flags.Error{Type: flags.ErrHelp}))
	require.Equal(t, fwerrors.ExUsage, ExitCode(&flags.Error{Type: flags.ErrRequired}))
	require.Equal(t, fwerrors.ExUsage, ExitCode(ErrArgs{Err: fmt.Errorf("extra")}))
	require.Equal(t, fwerrors.ExUsage, ExitCode(fmt.Errorf("flag: %w", ErrArgs{Err: fmt.Errorf("bad")})))
	require.Equal(t, fwerrors.ExDataErr, ExitCode(fmt.Errorf("wrapped: %w", fwerrors.Formatf("bad"))))
}

func TestParseUint(t *testing.T) {
	v, err := ParseUint("0x43", 64)
	require.NoError(t, err)
	require.EqualValues(t, 0x43, v)
	v, err = ParseUint("17", 8)
	require.NoError(t, err)
	require.EqualValues(t, 17, v)
	_, err = ParseUint("256", 8)
	require.Error(t, err)
	_, err = ParseUint("-1", 64)
	require.Error(t, err)
}
