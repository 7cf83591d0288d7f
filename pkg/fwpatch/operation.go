// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwpatch

import (
	"fmt"
	"math"
	"math/bits"
	"sort"

	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/fwtable"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

// Table is a parsed protobuf sub-blob.
type Table interface {
	Marshal() ([]byte, error)
	String() string
}

// Operation is one field patch. The set is closed: SetBar4Size,
// SetTensixDisableCount and SetBoardID.
type Operation interface {
	// Tag is the boot filesystem entry holding the table.
	Tag() string
	// Validate checks the requested value. It never touches a file.
	Validate() error
	// Parse decodes the unframed entry payload.
	Parse(b []byte) (Table, error)
	// Apply sets the value.
	Apply(t Table) error
	// Verify checks that t holds the value.
	Verify(t Table) error
	String() string

	isOperation()
}

func fwTable(t Table) (*fwtable.FwTable, error) {
	tbl, ok := t.(*fwtable.FwTable)
	if !ok {
		return nil, fmt.Errorf("expected %s, got %T", fwtable.FwTableName, t)
	}
	return tbl, nil
}

func parseFwTable(b []byte) (Table, error) {
	return fwtable.ParseFwTable(b)
}

// SetBar4Size sets pcie_bar4_size of the PCIe property tables.
type SetBar4Size struct {
	// Buses limits the update, all buses when empty.
	Buses []int
	// SizeMiB is a power of two, or 0 to disable BAR4.
	SizeMiB int64
}

func (SetBar4Size) isOperation() {}

// Tag implements Operation.
func (SetBar4Size) Tag() string { return bootfs.TagCMFWCfg }

func (op SetBar4Size) String() string {
	return fmt.Sprintf("set pcie_bar4_size to %d MiB", op.SizeMiB)
}

// Validate implements Operation.
func (op SetBar4Size) Validate() error {
	if op.SizeMiB < 0 || op.SizeMiB > math.MaxUint32 {
		return fwerrors.Invalidf("size", "%d MiB is out of range", op.SizeMiB)
	}
	if op.SizeMiB != 0 && bits.OnesCount64(uint64(op.SizeMiB)) != 1 {
		return fwerrors.Invalidf("size", "%d MiB is not a power of two", op.SizeMiB)
	}
	for _, bus := range op.Buses {
		if bus < 0 {
			return fwerrors.Invalidf("bus", "%d is negative", bus)
		}
	}
	return nil
}

// Parse implements Operation.
func (SetBar4Size) Parse(b []byte) (Table, error) { return parseFwTable(b) }

// buses returns the present buses selected by op.
func (op SetBar4Size) buses(tbl *fwtable.FwTable) []int {
	present := tbl.Buses()
	if len(op.Buses) == 0 {
		return present
	}
	want := map[int]bool{}
	for _, b := range op.Buses {
		want[b] = true
	}
	var buses []int
	for _, b := range present {
		if want[b] {
			buses = append(buses, b)
		}
	}
	sort.Ints(buses)
	return buses
}

// Apply implements Operation.
func (op SetBar4Size) Apply(t Table) error {
	tbl, err := fwTable(t)
	if err != nil {
		return err
	}
	buses := op.buses(tbl)
	if len(buses) == 0 {
		log.Warnf("no selected PCIe property table present, nothing to update")
	}
	for _, bus := range buses {
		cur, err := tbl.Bar4Size(bus)
		if err != nil {
			return err
		}
		log.Debugf("current %s.%s: %d MiB", fwtable.PciTableField(bus), fwtable.FieldPcieBar4Size, cur)
		if err := tbl.SetBar4Size(bus, uint32(op.SizeMiB)); err != nil {
			return err
		}
		log.Debugf("updated %s.%s to %d MiB", fwtable.PciTableField(bus), fwtable.FieldPcieBar4Size, op.SizeMiB)
	}
	return nil
}

// Verify implements Operation.
func (op SetBar4Size) Verify(t Table) error {
	tbl, err := fwTable(t)
	if err != nil {
		return err
	}
	for _, bus := range op.buses(tbl) {
		got, err := tbl.Bar4Size(bus)
		if err != nil {
			return err
		}
		field := fwtable.PciTableField(bus) + "." + fwtable.FieldPcieBar4Size
		if int64(got) != op.SizeMiB {
			return &fwerrors.VerificationError{Field: field, Got: got, Want: op.SizeMiB}
		}
		log.Infof("verified %s is %d MiB", field, got)
	}
	return nil
}

// SetTensixDisableCount sets product_spec_harvesting.tensix_col_disable_count.
type SetTensixDisableCount struct {
	Count int64
}

func (SetTensixDisableCount) isOperation() {}

// Tag implements Operation.
func (SetTensixDisableCount) Tag() string { return bootfs.TagCMFWCfg }

func (op SetTensixDisableCount) String() string {
	return fmt.Sprintf("set tensix_col_disable_count to %d", op.Count)
}

// Validate implements Operation.
func (op SetTensixDisableCount) Validate() error {
	if op.Count < 0 || op.Count > math.MaxUint32 {
		return fwerrors.Invalidf("disable count", "%d is out of range", op.Count)
	}
	return nil
}

// Parse implements Operation.
func (SetTensixDisableCount) Parse(b []byte) (Table, error) { return parseFwTable(b) }

// Apply implements Operation.
func (op SetTensixDisableCount) Apply(t Table) error {
	tbl, err := fwTable(t)
	if err != nil {
		return err
	}
	log.Debugf("current tensix_col_disable_count: %d", tbl.TensixColDisableCount())
	tbl.SetTensixColDisableCount(uint32(op.Count))
	log.Debugf("updated tensix_col_disable_count to %d", op.Count)
	return nil
}

// Verify implements Operation.
func (op SetTensixDisableCount) Verify(t Table) error {
	tbl, err := fwTable(t)
	if err != nil {
		return err
	}
	if got := tbl.TensixColDisableCount(); int64(got) != op.Count {
		return &fwerrors.VerificationError{
			Field: fwtable.FieldProductSpecHarvesting + "." + fwtable.FieldTensixColDisableCount,
			Got:   got,
			Want:  op.Count,
		}
	}
	log.Infof("verified tensix_col_disable_count is %d", op.Count)
	return nil
}

// SetBoardID sets ReadOnly.board_id in boardcfg.
type SetBoardID struct {
	ID uint64
}

func (SetBoardID) isOperation() {}

// Tag implements Operation.
func (SetBoardID) Tag() string { return bootfs.TagBoardCfg }

func (op SetBoardID) String() string {
	return fmt.Sprintf("set board_id to 0x%016x", op.ID)
}

// Validate implements Operation.
func (op SetBoardID) Validate() error {
	if op.ID == 0 {
		return fwerrors.Invalidf("board id", "0 is not a board id")
	}
	return nil
}

// Parse implements Operation.
func (SetBoardID) Parse(b []byte) (Table, error) { return fwtable.ParseReadOnly(b) }

func readOnly(t Table) (*fwtable.ReadOnly, error) {
	ro, ok := t.(*fwtable.ReadOnly)
	if !ok {
		return nil, fmt.Errorf("expected %s, got %T", fwtable.ReadOnlyName, t)
	}
	return ro, nil
}

// Apply implements Operation.
func (op SetBoardID) Apply(t Table) error {
	ro, err := readOnly(t)
	if err != nil {
		return err
	}
	log.Debugf("current board_id: 0x%016x", ro.BoardID())
	ro.SetBoardID(op.ID)
	return nil
}

// Verify implements Operation.
func (op SetBoardID) Verify(t Table) error {
	ro, err := readOnly(t)
	if err != nil {
		return err
	}
	if got := ro.BoardID(); got != op.ID {
		return &fwerrors.VerificationError{Field: fwtable.FieldBoardID, Got: fmt.Sprintf("0x%016x", got), Want: fmt.Sprintf("0x%016x", op.ID)}
	}
	log.Infof("verified board_id is 0x%016x", op.ID)
	return nil
}
