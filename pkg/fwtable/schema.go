// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fwtable holds the protobuf schema of the firmware configuration
// tables stored in tt_boot_fs (cmfwcfg and boardcfg) and typed accessors for
// the fields the field-patch tools edit.
//
// The schema is a protobuf descriptor set. A set compiled from the firmware
// sources with
//
//	protoc --include_imports -o pkg/fwtable/schema/fwtable.binpb fw_table.proto read_only.proto
//
// is embedded at build time. Without it the built-in copy below is used. A
// set can also be loaded at run time with ReadSchema and Use. Messages are
// dynamic, so fields the schema does not name survive a parse and serialize
// cycle as unknown fields.
package fwtable

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// Message names.
const (
	FwTableName               = "FwTable"
	PciPropertyTableName      = "PciPropertyTable"
	ProductSpecHarvestingName = "ProductSpecHarvesting"
	ReadOnlyName              = "ReadOnly"
)

// Field names.
const (
	FieldFwBundleVersion       = "fw_bundle_version"
	FieldFeatureEnable         = "feature_enable"
	FieldChipLimits            = "chip_limits"
	FieldEthPropertyTable      = "eth_property_table"
	FieldDramTable             = "dram_table"
	FieldProductSpecHarvesting = "product_spec_harvesting"
	FieldPcieMode              = "pcie_mode"
	FieldNumSerdes             = "num_serdes"
	FieldPcieBar4Size          = "pcie_bar4_size"
	FieldDisHarvesting         = "dis_harvesting"
	FieldTensixColDisableCount = "tensix_col_disable_count"
	FieldBoardID               = "board_id"
	FieldVendorID              = "vendor_id"
	FieldAsicLocation          = "asic_location"
)

// PciTableField returns the field name of the property table of bus.
func PciTableField(bus int) string {
	return fmt.Sprintf("pci%d_property_table", bus)
}

type fieldSpec struct {
	name     string
	number   int32
	kind     descriptorpb.FieldDescriptorProto_Type
	typeName string
}

type messageSpec struct {
	name   string
	fields []fieldSpec
}

const (
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

// fwTableSchema is the built-in copy of fw_table.proto. Sub-tables the tools never edit are
// declared empty; their content is carried as unknown fields.
var fwTableSchema = []messageSpec{
	{FwTableName, []fieldSpec{
		{FieldFwBundleVersion, 1, tUint32, ""},
		{FieldFeatureEnable, 2, tMessage, "FeatureEnable"},
		{FieldChipLimits, 3, tMessage, "ChipLimits"},
		{PciTableField(0), 4, tMessage, PciPropertyTableName},
		{PciTableField(1), 5, tMessage, PciPropertyTableName},
		{FieldEthPropertyTable, 6, tMessage, "EthPropertyTable"},
		{FieldDramTable, 7, tMessage, "DramTable"},
		{FieldProductSpecHarvesting, 8, tMessage, ProductSpecHarvestingName},
	}},
	{"FeatureEnable", nil},
	{"ChipLimits", nil},
	{PciPropertyTableName, []fieldSpec{
		{FieldPcieMode, 1, tUint32, ""},
		{FieldNumSerdes, 2, tUint32, ""},
		{FieldPcieBar4Size, 3, tUint32, ""},
	}},
	{"EthPropertyTable", nil},
	{"DramTable", nil},
	{ProductSpecHarvestingName, []fieldSpec{
		{FieldDisHarvesting, 1, tBool, ""},
		{FieldTensixColDisableCount, 2, tUint32, ""},
	}},
}

// readOnlySchema is the built-in copy of read_only.proto.
var readOnlySchema = []messageSpec{
	{ReadOnlyName, []fieldSpec{
		{FieldBoardID, 1, tUint64, ""},
		{FieldVendorID, 2, tUint32, ""},
		{FieldAsicLocation, 3, tUint32, ""},
	}},
}

func fileProto(name string, messages []messageSpec) *descriptorpb.FileDescriptorProto {
	fdp := &descriptorpb.FileDescriptorProto{
		Name:   proto.String(name),
		Syntax: proto.String("proto3"),
	}
	for _, m := range messages {
		dp := &descriptorpb.DescriptorProto{Name: proto.String(m.name)}
		for _, f := range m.fields {
			fp := &descriptorpb.FieldDescriptorProto{
				Name:   proto.String(f.name),
				Number: proto.Int32(f.number),
				Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
				Type:   f.kind.Enum(),
			}
			if f.typeName != "" {
				fp.TypeName = proto.String("." + f.typeName)
			}
			dp.Field = append(dp.Field, fp)
		}
		fdp.MessageType = append(fdp.MessageType, dp)
	}
	return fdp
}

// BuiltinSchema returns the descriptor set of the built-in schema.
func BuiltinSchema() *descriptorpb.FileDescriptorSet {
	return &descriptorpb.FileDescriptorSet{File: []*descriptorpb.FileDescriptorProto{
		fileProto("fw_table.proto", fwTableSchema),
		fileProto("read_only.proto", readOnlySchema),
	}}
}

// Schema is a compiled descriptor set holding FwTable and ReadOnly.
type Schema struct {
	Files    *protoregistry.Files
	FwTable  protoreflect.MessageDescriptor
	ReadOnly protoreflect.MessageDescriptor
}

// fieldKind is a field an accessor relies on, reached through the message
// fields named by path.
type fieldKind struct {
	path []string
	kind protoreflect.Kind
}

var (
	fwTableFields = []fieldKind{
		{[]string{FieldFwBundleVersion}, protoreflect.Uint32Kind},
		{[]string{PciTableField(0), FieldPcieBar4Size}, protoreflect.Uint32Kind},
		{[]string{FieldProductSpecHarvesting, FieldTensixColDisableCount}, protoreflect.Uint32Kind},
	}
	readOnlyFields = []fieldKind{
		{[]string{FieldBoardID}, protoreflect.Uint64Kind},
		{[]string{FieldVendorID}, protoreflect.Uint32Kind},
		{[]string{FieldAsicLocation}, protoreflect.Uint32Kind},
	}
)

func checkFields(md protoreflect.MessageDescriptor, fields []fieldKind) error {
	for _, f := range fields {
		cur := md
		for i, name := range f.path {
			fd := cur.Fields().ByName(protoreflect.Name(name))
			if fd == nil {
				return fwerrors.Formatf("schema: %s has no field %s", cur.FullName(), name)
			}
			if fd.IsList() || fd.IsMap() {
				return fwerrors.Formatf("schema: %s is repeated", fd.FullName())
			}
			if i < len(f.path)-1 {
				if fd.Kind() != protoreflect.MessageKind {
					return fwerrors.Formatf("schema: %s is %v, expected a message", fd.FullName(), fd.Kind())
				}
				cur = fd.Message()
				continue
			}
			if fd.Kind() != f.kind {
				return fwerrors.Formatf("schema: %s is %v, expected %v", fd.FullName(), fd.Kind(), f.kind)
			}
		}
	}
	return nil
}

// NewSchema compiles set. Both messages are looked up by name in any file
// and package, and every field the accessors use must have the expected
// type.
func NewSchema(set *descriptorpb.FileDescriptorSet) (*Schema, error) {
	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, &fwerrors.FormatError{Msg: "schema: invalid descriptor set", Err: err}
	}
	s := &Schema{Files: files}
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		if md := fd.Messages().ByName(FwTableName); md != nil && s.FwTable == nil {
			s.FwTable = md
		}
		if md := fd.Messages().ByName(ReadOnlyName); md != nil && s.ReadOnly == nil {
			s.ReadOnly = md
		}
		return true
	})
	if s.FwTable == nil {
		return nil, fwerrors.Formatf("schema: no %s message", FwTableName)
	}
	if s.ReadOnly == nil {
		return nil, fwerrors.Formatf("schema: no %s message", ReadOnlyName)
	}
	if err := checkFields(s.FwTable, fwTableFields); err != nil {
		return nil, err
	}
	if err := checkFields(s.ReadOnly, readOnlyFields); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadSchema compiles a descriptor set in the binary form protoc writes or
// in protobuf text format.
func ReadSchema(b []byte) (*Schema, error) {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(b, &set); err != nil {
		set.Reset()
		if terr := prototext.Unmarshal(b, &set); terr != nil {
			return nil, &fwerrors.FormatError{Msg: "schema: not a descriptor set", Err: errors.Join(err, terr)}
		}
	}
	return NewSchema(&set)
}

//go:embed schema
var embedded embed.FS

const embeddedSchema = "schema/fwtable.binpb"

func defaultSchema() (*Schema, error) {
	b, err := embedded.ReadFile(embeddedSchema)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSchema(BuiltinSchema())
	}
	if err != nil {
		return nil, err
	}
	return ReadSchema(b)
}

var active atomic.Pointer[Schema]

func init() {
	s, err := defaultSchema()
	if err != nil {
		panic(fmt.Sprintf("fwtable: %v", err))
	}
	active.Store(s)
}

// Use makes s the schema of tables created or parsed from now on.
func Use(s *Schema) {
	active.Store(s)
}

// Active returns the schema in use.
func Active() *Schema { return active.Load() }

// FwTableDescriptor returns the descriptor of FwTable.
func FwTableDescriptor() protoreflect.MessageDescriptor { return active.Load().FwTable }

// ReadOnlyDescriptor returns the descriptor of ReadOnly.
func ReadOnlyDescriptor() protoreflect.MessageDescriptor { return active.Load().ReadOnly }
