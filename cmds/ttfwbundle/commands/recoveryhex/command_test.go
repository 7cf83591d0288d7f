// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recoveryhex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

func TestBoardID(t *testing.T) {
	id, err := (&Command{}).boardID()
	require.NoError(t, err)
	require.Nil(t, id)

	id, err = (&Command{BoardID: "0x0000043000000010"}).boardID()
	require.NoError(t, err)
	require.EqualValues(t, 0x0000043000000010, *id)

	id, err = (&Command{UPI: "0x43"}).boardID()
	require.NoError(t, err)
	require.EqualValues(t, uint64(0x43)<<36|1<<32, *id)

	for _, cmd := range []*Command{
		{BoardID: "1", UPI: "2"},
		{BoardID: "board"},
		{UPI: "0x10000000"},
	} {
		_, err := cmd.boardID()
		require.Equal(t, fwerrors.ExUsage, cli.ExitCode(err))
	}
}

func TestExtraArgs(t *testing.T) {
	err := (&Command{}).Execute([]string{"x"})
	require.Equal(t, fwerrors.ExUsage, cli.ExitCode(err))
}
