// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tenstorrent/ttfwtools/pkg/bytes"
	"github.com/tenstorrent/ttfwtools/pkg/check"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// Layout describes how to build a table from component binaries.
type Layout struct {
	Name          string        `yaml:"name"`
	ProductName   string        `yaml:"product_name"`
	GenName       string        `yaml:"gen_name"`
	Alignment     Alignment     `yaml:"alignment"`
	Images        []LayoutImage `yaml:"images"`
	FailOverImage LayoutImage   `yaml:"fail_over_image"`
}

// Alignment constrains placement on the flash device.
type Alignment struct {
	FlashDeviceSize uint64 `yaml:"flash_device_size"`
	FlashBlockSize  uint64 `yaml:"flash_block_size"`
}

// LayoutImage is one component binary.
type LayoutImage struct {
	Name   string `yaml:"name"`
	Binary string `yaml:"binary"`
	// Offset is the load address.
	Offset     uint32 `yaml:"offset"`
	Executable bool   `yaml:"executable"`
	// SPIAddr pins the payload; it is placed automatically when unset.
	SPIAddr          *uint32 `yaml:"spi_addr,omitempty"`
	ProvisioningOnly bool    `yaml:"provisioning_only"`
}

// LoadLayout parses a YAML layout. Unknown keys are rejected.
func LoadLayout(r io.Reader) (*Layout, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var l Layout
	if err := dec.Decode(&l); err != nil {
		return nil, fmt.Errorf("unable to parse layout: %w", err)
	}
	return &l, nil
}

// ReadFileFunc loads a component binary.
type ReadFileFunc func(path string) ([]byte, error)

// Build reads every binary and lays the table out. Binary paths may refer to
// $VARS, looked up in vars first and the environment second. Entries without
// an SPI address are placed after the descriptors in layout order, failover
// first, aligned to the flash block size.
func (l *Layout) Build(vars map[string]string, readFile ReadFileFunc) (*BootFs, error) {
	if readFile == nil {
		readFile = os.ReadFile
	}
	block := l.Alignment.FlashBlockSize
	if block == 0 {
		block = BlockSize
	}
	if !bytes.IsPowerOfTwo(block) {
		return nil, fwerrors.Invalidf("flash_block_size", "%#x is not a power of two", block)
	}
	expand := func(s string) string {
		return os.Expand(s, func(name string) string {
			if v, ok := vars[name]; ok {
				return v
			}
			return os.Getenv(name)
		})
	}

	load := func(img LayoutImage) (*FsEntry, error) {
		if img.Binary == "" {
			return nil, fwerrors.Invalidf("binary", "image %q has no binary", img.Name)
		}
		path := expand(img.Binary)
		data, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", img.Name, err)
		}
		var spiAddr uint32
		if img.SPIAddr != nil {
			spiAddr = *img.SPIAddr
		}
		return NewEntry(img.ProvisioningOnly, img.Name, data, spiAddr, img.Offset, img.Executable), nil
	}

	failover, err := load(l.FailOverImage)
	if err != nil {
		return nil, err
	}
	entries := make([]*FsEntry, 0, len(l.Images))
	for _, img := range l.Images {
		e, err := load(img)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	fixed := []check.Region{{Name: "descriptors", Range: bytes.Range{Length: DescRegionSize}}}
	pinned := func(img LayoutImage, e *FsEntry) {
		if img.SPIAddr != nil {
			fixed = append(fixed, check.Region{Name: e.Tag, Range: e.Range()})
		}
	}
	pinned(l.FailOverImage, failover)
	for i, img := range l.Images {
		pinned(img, entries[i])
	}

	cursor := bytes.AlignUp(DescRegionSize, block)
	place := func(img LayoutImage, e *FsEntry) error {
		if img.SPIAddr != nil {
			return nil
		}
		addr := cursor
		for moved := true; moved; {
			moved = false
			want := bytes.Range{Offset: addr, Length: uint64(len(e.Data))}
			for _, r := range fixed {
				if r.Intersect(want) {
					addr = bytes.AlignUp(r.End(), block)
					moved = true
				}
			}
		}
		if addr+uint64(len(e.Data)) > 1<<32 {
			return fwerrors.Formatf("no room for image %q", e.Tag)
		}
		e.SPIAddr = uint32(addr)
		cursor = bytes.AlignUp(addr+uint64(len(e.Data)), block)
		return nil
	}
	if err := place(l.FailOverImage, failover); err != nil {
		return nil, err
	}
	for i, img := range l.Images {
		if err := place(img, entries[i]); err != nil {
			return nil, err
		}
	}

	fs := New(failover, entries...)
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	if size := l.Alignment.FlashDeviceSize; size != 0 {
		if err := check.Bounds(size, fs.regions()...); err != nil {
			return nil, &fwerrors.FormatError{Msg: fmt.Sprintf("layout %q does not fit the flash device", l.Name), Err: err}
		}
	}
	return fs, nil
}
