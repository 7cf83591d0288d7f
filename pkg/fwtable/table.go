// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwtable

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// message is the shared part of FwTable and ReadOnly.
type message struct {
	m *dynamicpb.Message
}

func parse(md protoreflect.MessageDescriptor, b []byte) (message, error) {
	m := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(b, m); err != nil {
		return message{}, &fwerrors.FormatError{Msg: fmt.Sprintf("unable to parse %s", md.FullName()), Err: err}
	}
	return message{m: m}, nil
}

// Message returns the underlying protobuf message.
func (t message) Message() proto.Message { return t.m }

// Marshal serializes deterministically, unknown fields included.
func (t message) Marshal() ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(t.m)
}

// String returns the protobuf text format.
func (t message) String() string {
	return prototext.MarshalOptions{Multiline: true, Indent: "  "}.Format(t.m)
}

// JSON returns the protobuf JSON mapping.
func (t message) JSON() ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, UseProtoNames: true}.Marshal(t.m)
}

func field(m protoreflect.Message, name string) (protoreflect.FieldDescriptor, error) {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		return nil, &fwerrors.NotFoundError{Kind: "field", Name: string(m.Descriptor().FullName()) + "." + name}
	}
	return fd, nil
}

// FwTable is the firmware configuration table stored in cmfwcfg.
type FwTable struct {
	message
}

// NewFwTable returns an empty table.
func NewFwTable() *FwTable {
	return &FwTable{message{m: dynamicpb.NewMessage(FwTableDescriptor())}}
}

// ParseFwTable parses an unframed FwTable.
func ParseFwTable(b []byte) (*FwTable, error) {
	msg, err := parse(FwTableDescriptor(), b)
	if err != nil {
		return nil, err
	}
	return &FwTable{msg}, nil
}

// FwBundleVersion returns fw_bundle_version.
func (t *FwTable) FwBundleVersion() uint32 {
	fd, _ := field(t.m, FieldFwBundleVersion)
	return uint32(t.m.Get(fd).Uint())
}

// SetFwBundleVersion sets fw_bundle_version.
func (t *FwTable) SetFwBundleVersion(v uint32) {
	fd, _ := field(t.m, FieldFwBundleVersion)
	t.m.Set(fd, protoreflect.ValueOfUint32(v))
}

// Buses returns the PCIe buses with a property table. Bus N+1 is only
// considered when bus N is present.
func (t *FwTable) Buses() []int {
	var buses []int
	for bus := 0; ; bus++ {
		fd := t.m.Descriptor().Fields().ByName(protoreflect.Name(PciTableField(bus)))
		if fd == nil || !t.m.Has(fd) {
			return buses
		}
		buses = append(buses, bus)
	}
}

func (t *FwTable) pciTable(bus int, mutable bool) (protoreflect.Message, error) {
	fd, err := field(t.m, PciTableField(bus))
	if err != nil {
		return nil, err
	}
	if mutable {
		return t.m.Mutable(fd).Message(), nil
	}
	if !t.m.Has(fd) {
		return nil, &fwerrors.NotFoundError{Kind: "field", Name: PciTableField(bus)}
	}
	return t.m.Get(fd).Message(), nil
}

// Bar4Size returns pcie_bar4_size of bus in MiB.
func (t *FwTable) Bar4Size(bus int) (uint32, error) {
	pci, err := t.pciTable(bus, false)
	if err != nil {
		return 0, err
	}
	fd, err := field(pci, FieldPcieBar4Size)
	if err != nil {
		return 0, err
	}
	return uint32(pci.Get(fd).Uint()), nil
}

// SetBar4Size sets pcie_bar4_size of bus in MiB, creating the table.
func (t *FwTable) SetBar4Size(bus int, mib uint32) error {
	pci, err := t.pciTable(bus, true)
	if err != nil {
		return err
	}
	fd, err := field(pci, FieldPcieBar4Size)
	if err != nil {
		return err
	}
	pci.Set(fd, protoreflect.ValueOfUint32(mib))
	return nil
}

func (t *FwTable) harvesting(mutable bool) (protoreflect.Message, protoreflect.FieldDescriptor) {
	fd, _ := field(t.m, FieldProductSpecHarvesting)
	var h protoreflect.Message
	if mutable {
		h = t.m.Mutable(fd).Message()
	} else {
		h = t.m.Get(fd).Message()
	}
	count, _ := field(h, FieldTensixColDisableCount)
	return h, count
}

// TensixColDisableCount returns product_spec_harvesting.tensix_col_disable_count.
func (t *FwTable) TensixColDisableCount() uint32 {
	h, fd := t.harvesting(false)
	return uint32(h.Get(fd).Uint())
}

// SetTensixColDisableCount sets product_spec_harvesting.tensix_col_disable_count.
func (t *FwTable) SetTensixColDisableCount(n uint32) {
	h, fd := t.harvesting(true)
	h.Set(fd, protoreflect.ValueOfUint32(n))
}

// ReadOnly is the factory programmed board identity stored in boardcfg.
type ReadOnly struct {
	message
}

// NewReadOnly returns an empty message.
func NewReadOnly() *ReadOnly {
	return &ReadOnly{message{m: dynamicpb.NewMessage(ReadOnlyDescriptor())}}
}

// ParseReadOnly parses an unframed ReadOnly.
func ParseReadOnly(b []byte) (*ReadOnly, error) {
	msg, err := parse(ReadOnlyDescriptor(), b)
	if err != nil {
		return nil, err
	}
	return &ReadOnly{msg}, nil
}

// BoardID returns board_id.
func (r *ReadOnly) BoardID() uint64 {
	fd, _ := field(r.m, FieldBoardID)
	return r.m.Get(fd).Uint()
}

// SetBoardID sets board_id.
func (r *ReadOnly) SetBoardID(id uint64) {
	fd, _ := field(r.m, FieldBoardID)
	r.m.Set(fd, protoreflect.ValueOfUint64(id))
}

// VendorID returns vendor_id.
func (r *ReadOnly) VendorID() uint32 {
	fd, _ := field(r.m, FieldVendorID)
	return uint32(r.m.Get(fd).Uint())
}

// AsicLocation returns asic_location.
func (r *ReadOnly) AsicLocation() uint32 {
	fd, _ := field(r.m, FieldAsicLocation)
	return uint32(r.m.Get(fd).Uint())
}

// BoardIDFromUPI derives the default board id of a board type: the UPI in
// the top bits and bit 32 set.
func BoardIDFromUPI(upi uint64) uint64 {
	return upi<<36 | 1<<32
}

// UPIFromBoardID extracts the UPI from a board id.
func UPIFromBoardID(id uint64) uint64 {
	return id >> 36
}
