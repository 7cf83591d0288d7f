// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwtable

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// A cmfwcfg payload with fw_bundle_version 0x50100, pci0 {pcie_mode 1,
// num_serdes 2, pcie_bar4_size 32768}, pci1 {pcie_bar4_size 512} and
// product_spec_harvesting {dis_harvesting true, tensix_col_disable_count 3}.
const goldenFwTable = "08808214220808011002188080022a03188004420408011003"

// A boardcfg payload with board_id 0x43<<36|1<<32, vendor_id 0x1e52 and
// asic_location 1.
const goldenReadOnly = "088080808090860110d23c1801"

func TestGoldenFwTable(t *testing.T) {
	tbl, err := ParseFwTable(mustHex(t, goldenFwTable))
	require.NoError(t, err)
	require.EqualValues(t, 0x50100, tbl.FwBundleVersion())
	require.Equal(t, []int{0, 1}, tbl.Buses())
	size, err := tbl.Bar4Size(0)
	require.NoError(t, err)
	require.EqualValues(t, 32768, size)
	size, err = tbl.Bar4Size(1)
	require.NoError(t, err)
	require.EqualValues(t, 512, size)
	require.EqualValues(t, 3, tbl.TensixColDisableCount())
	require.Empty(t, tbl.Message().ProtoReflect().GetUnknown(), "every golden field is named by the schema")

	require.NoError(t, tbl.SetBar4Size(0, 4096))
	b, err := tbl.Marshal()
	require.NoError(t, err)
	back, err := ParseFwTable(b)
	require.NoError(t, err)
	size, err = back.Bar4Size(0)
	require.NoError(t, err)
	require.EqualValues(t, 4096, size)
	require.EqualValues(t, 3, back.TensixColDisableCount())
}

func TestGoldenReadOnly(t *testing.T) {
	ro, err := ParseReadOnly(mustHex(t, goldenReadOnly))
	require.NoError(t, err)
	require.EqualValues(t, BoardIDFromUPI(0x43), ro.BoardID())
	require.EqualValues(t, 0x1e52, ro.VendorID())
	require.EqualValues(t, 1, ro.AsicLocation())
}

func withSchema(t *testing.T, s *Schema) {
	t.Helper()
	prev := Active()
	Use(s)
	t.Cleanup(func() { Use(prev) })
}

func setFieldNumber(t *testing.T, set *descriptorpb.FileDescriptorSet, message, field string, number int32) {
	t.Helper()
	for _, f := range set.File {
		for _, m := range f.MessageType {
			if m.GetName() != message {
				continue
			}
			for _, fd := range m.Field {
				if fd.GetName() == field {
					fd.Number = proto.Int32(number)
					return
				}
			}
		}
	}
	t.Fatalf("%s.%s not found", message, field)
}

func TestSchemaDrivesFieldNumbers(t *testing.T) {
	set := BuiltinSchema()
	setFieldNumber(t, set, PciPropertyTableName, FieldPcieBar4Size, 7)
	b, err := proto.Marshal(set)
	require.NoError(t, err)
	s, err := ReadSchema(b)
	require.NoError(t, err)
	withSchema(t, s)

	// pci0 {7: 4096}
	tbl, err := ParseFwTable(mustHex(t, "2203388020"))
	require.NoError(t, err)
	size, err := tbl.Bar4Size(0)
	require.NoError(t, err)
	require.EqualValues(t, 4096, size)
	require.Equal(t, protoreflect.FieldNumber(7), FwTableDescriptor().Fields().ByName(protoreflect.Name(PciTableField(0))).Message().Fields().ByName(FieldPcieBar4Size).Number())
}

func TestReadSchemaText(t *testing.T) {
	text, err := prototext.Marshal(BuiltinSchema())
	require.NoError(t, err)
	s, err := ReadSchema(text)
	require.NoError(t, err)

	builtin, err := NewSchema(BuiltinSchema())
	require.NoError(t, err)
	fields := func(md protoreflect.MessageDescriptor) []string {
		var names []string
		for i := 0; i < md.Fields().Len(); i++ {
			names = append(names, string(md.Fields().Get(i).Name()))
		}
		return names
	}
	require.Empty(t, cmp.Diff(fields(builtin.FwTable), fields(s.FwTable)))
	require.Empty(t, cmp.Diff(fields(builtin.ReadOnly), fields(s.ReadOnly)))
}

func TestSchemaErrors(t *testing.T) {
	requireFormat := func(t *testing.T, err error) {
		t.Helper()
		var fe *fwerrors.FormatError
		require.True(t, errors.As(err, &fe), "expected a format error, got %v", err)
	}

	_, err := ReadSchema([]byte("not a descriptor set {"))
	requireFormat(t, err)

	set := BuiltinSchema()
	set.File = set.File[:1]
	_, err = NewSchema(set)
	requireFormat(t, err)
	require.Contains(t, err.Error(), "no ReadOnly message")

	set = BuiltinSchema()
	for _, m := range set.File[0].MessageType {
		if m.GetName() == ProductSpecHarvestingName {
			m.Field = m.Field[:1]
		}
	}
	_, err = NewSchema(set)
	requireFormat(t, err)
	require.Contains(t, err.Error(), FieldTensixColDisableCount)

	set = BuiltinSchema()
	for _, m := range set.File[1].MessageType {
		for _, f := range m.Field {
			if f.GetName() == FieldBoardID {
				f.Type = descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum()
			}
		}
	}
	_, err = NewSchema(set)
	requireFormat(t, err)
	require.Contains(t, err.Error(), "expected uint64")
}
