// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwtable

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// featureEnable encodes feature_enable{1: 1, 2: 0x55}, none of which the
// schema names.
func featureEnable() []byte {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.VarintType)
	inner = protowire.AppendVarint(inner, 1)
	inner = protowire.AppendTag(inner, 2, protowire.VarintType)
	inner = protowire.AppendVarint(inner, 0x55)
	var b []byte
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func TestFwTableFields(t *testing.T) {
	tbl := NewFwTable()
	require.Empty(t, tbl.Buses())
	_, err := tbl.Bar4Size(0)
	var nf *fwerrors.NotFoundError
	require.True(t, errors.As(err, &nf))

	tbl.SetFwBundleVersion(0x50100)
	require.NoError(t, tbl.SetBar4Size(0, 32768))
	require.NoError(t, tbl.SetBar4Size(1, 512))
	tbl.SetTensixColDisableCount(2)
	require.Equal(t, []int{0, 1}, tbl.Buses())

	b, err := tbl.Marshal()
	require.NoError(t, err)
	back, err := ParseFwTable(b)
	require.NoError(t, err)
	require.EqualValues(t, 0x50100, back.FwBundleVersion())
	size, err := back.Bar4Size(0)
	require.NoError(t, err)
	require.EqualValues(t, 32768, size)
	size, err = back.Bar4Size(1)
	require.NoError(t, err)
	require.EqualValues(t, 512, size)
	require.EqualValues(t, 2, back.TensixColDisableCount())

	require.Error(t, tbl.SetBar4Size(2, 1), "there is no third bus")
}

func TestBusesStopAtGap(t *testing.T) {
	tbl := NewFwTable()
	require.NoError(t, tbl.SetBar4Size(1, 512))
	require.Empty(t, tbl.Buses(), "bus 1 without bus 0 is not considered")
}

func TestUnknownFieldsSurvive(t *testing.T) {
	in := featureEnable()
	in = protowire.AppendTag(in, 99, protowire.VarintType)
	in = protowire.AppendVarint(in, 7)

	tbl, err := ParseFwTable(in)
	require.NoError(t, err)
	require.NoError(t, tbl.SetBar4Size(0, 0))
	tbl.SetTensixColDisableCount(1)

	out, err := tbl.Marshal()
	require.NoError(t, err)
	require.True(t, bytes.Contains(out, featureEnable()), "unknown sub-table content was lost")
	require.True(t, bytes.HasSuffix(out, []byte{0x98, 0x06, 0x07}), "unknown top level field was lost")

	again, err := ParseFwTable(out)
	require.NoError(t, err)
	out2, err := again.Marshal()
	require.NoError(t, err)
	require.Equal(t, out, out2, "serialization must be stable")
}

func TestParseGarbage(t *testing.T) {
	_, err := ParseFwTable([]byte{0x22, 0x10, 0x01})
	var fe *fwerrors.FormatError
	require.True(t, errors.As(err, &fe))
}

func TestReadOnly(t *testing.T) {
	ro := NewReadOnly()
	ro.SetBoardID(BoardIDFromUPI(0x43))
	b, err := ro.Marshal()
	require.NoError(t, err)

	back, err := ParseReadOnly(b)
	require.NoError(t, err)
	require.EqualValues(t, 0x43<<36|1<<32, back.BoardID())
	require.EqualValues(t, 0x43, UPIFromBoardID(back.BoardID()))
	require.Zero(t, back.VendorID())
	require.Zero(t, back.AsicLocation())
	require.Contains(t, back.String(), "board_id:")

	js, err := back.JSON()
	require.NoError(t, err)
	require.Contains(t, string(js), `"board_id"`)
}

func TestTextDump(t *testing.T) {
	tbl := NewFwTable()
	require.NoError(t, tbl.SetBar4Size(0, 4096))
	require.Contains(t, tbl.String(), "pcie_bar4_size:")
	require.Contains(t, tbl.String(), "pci0_property_table:")
}
