// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bootfs implements tt_boot_fs, the tag indexed filesystem the
// Tenstorrent bootrom reads straight out of SPI flash.
//
// A table starts at its head with up to MaxFDs back-to-back descriptors
// terminated by an erased slot. The optional security binary descriptor lives
// at head+SecurityFDOffset and the mandatory failover descriptor at
// head+FailoverFDOffset. Every descriptor carries a word sum of itself; the
// payload checksum is recorded but only verified on request, so a damaged
// payload is still reachable through the failover path.
package bootfs

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/tenstorrent/ttfwtools/pkg/bytes"
	"github.com/tenstorrent/ttfwtools/pkg/check"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// BootFs is one descriptor table and the payloads it references.
type BootFs struct {
	// Head is the flash address of the descriptor table.
	Head    uint32
	Order   []string
	Entries map[string]*FsEntry
	// Failover is the recovery image, always serialized.
	Failover *FsEntry
	// Security is the optional security binary.
	Security *FsEntry
}

// New builds a primary table from entries in order.
func New(failover *FsEntry, entries ...*FsEntry) *BootFs {
	fs := &BootFs{
		Entries:  make(map[string]*FsEntry, len(entries)),
		Failover: failover,
	}
	for _, e := range entries {
		fs.Order = append(fs.Order, e.Tag)
		fs.Entries[e.Tag] = e
	}
	return fs
}

// Get returns the entry with tag, looking at regular entries first.
func (fs *BootFs) Get(tag string) (*FsEntry, bool) {
	if e, ok := fs.Entries[tag]; ok {
		return e, true
	}
	if fs.Failover != nil && fs.Failover.Tag == tag {
		return fs.Failover, true
	}
	if fs.Security != nil && fs.Security.Tag == tag {
		return fs.Security, true
	}
	return nil, false
}

// Replace swaps the payload of the regular entry tag, keeping its placement.
func (fs *BootFs) Replace(tag string, data []byte) error {
	e, ok := fs.Entries[tag]
	if !ok {
		return &fwerrors.NotFoundError{Kind: "entry", Name: tag}
	}
	fs.Entries[tag] = e.WithData(data)
	return nil
}

// Update returns a copy without provisioning only entries, as written by
// field updates.
func (fs *BootFs) Update() *BootFs {
	out := &BootFs{
		Head:     fs.Head,
		Entries:  make(map[string]*FsEntry),
		Failover: fs.Failover,
		Security: fs.Security,
	}
	for _, tag := range fs.Order {
		if e := fs.Entries[tag]; e != nil && !e.ProvisioningOnly {
			out.Order = append(out.Order, tag)
			out.Entries[tag] = e
		}
	}
	return out
}

// descRegion returns the span of the descriptor table.
func (fs *BootFs) descRegion() check.Region {
	return check.Region{
		Name:  fmt.Sprintf("descriptors@%#x", fs.Head),
		Range: bytes.Range{Offset: uint64(fs.Head), Length: DescRegionSize},
	}
}

// regions returns the descriptor table followed by every payload, regular
// entries in order.
func (fs *BootFs) regions() []check.Region {
	regions := []check.Region{fs.descRegion()}
	for _, tag := range fs.Order {
		if e := fs.Entries[tag]; e != nil {
			regions = append(regions, check.Region{Name: e.Tag, Range: e.Range()})
		}
	}
	if fs.Security != nil {
		regions = append(regions, check.Region{Name: fs.Security.Tag, Range: fs.Security.Range()})
	}
	if fs.Failover != nil {
		regions = append(regions, check.Region{Name: fs.Failover.Tag, Range: fs.Failover.Range()})
	}
	return regions
}

// Validate checks the table invariants. All problems are reported at once.
func (fs *BootFs) Validate() error {
	var result *multierror.Error
	if fs.Failover == nil {
		result = multierror.Append(result, fmt.Errorf("no failover entry"))
	}
	if len(fs.Order) > MaxFDs {
		result = multierror.Append(result, fmt.Errorf("%d entries exceed the limit of %d", len(fs.Order), MaxFDs))
	}
	if len(fs.Order) != len(fs.Entries) {
		result = multierror.Append(result, fmt.Errorf("order lists %d entries, table holds %d", len(fs.Order), len(fs.Entries)))
	}
	if fs.Head%BlockSize != 0 {
		result = multierror.Append(result, fmt.Errorf("head %#x is not block aligned", fs.Head))
	}

	seen := map[string]bool{}
	all := make([]*FsEntry, 0, len(fs.Order)+2)
	for _, tag := range fs.Order {
		e, ok := fs.Entries[tag]
		if !ok || e == nil {
			result = multierror.Append(result, fmt.Errorf("order names %q which is not in the table", tag))
			continue
		}
		if e.Tag != tag {
			result = multierror.Append(result, fmt.Errorf("entry keyed %q is tagged %q", tag, e.Tag))
		}
		all = append(all, e)
	}
	if fs.Security != nil {
		all = append(all, fs.Security)
	}
	if fs.Failover != nil {
		all = append(all, fs.Failover)
	}
	for _, e := range all {
		if seen[e.Tag] {
			result = multierror.Append(result, fmt.Errorf("duplicate tag %q", e.Tag))
		}
		seen[e.Tag] = true
		if _, err := e.FD(); err != nil {
			result = multierror.Append(result, err)
		}
		if len(e.Data)%4 != 0 {
			result = multierror.Append(result, fmt.Errorf("entry %q: size %#x is not a multiple of 4", e.Tag, len(e.Data)))
		}
	}

	regions := fs.regions()
	if err := check.Bounds(1<<32, regions...); err != nil {
		result = multierror.Append(result, err)
	}
	if err := check.Aligned(4, regions...); err != nil {
		result = multierror.Append(result, err)
	}
	if err := check.Disjoint(regions...); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return &fwerrors.FormatError{Msg: "invalid boot filesystem", Err: err}
	}
	return nil
}

// sortedRegions returns every region sorted by flash address.
func (fs *BootFs) sortedRegions() []check.Region {
	regions := fs.regions()
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Offset < regions[j].Offset
	})
	return regions
}
