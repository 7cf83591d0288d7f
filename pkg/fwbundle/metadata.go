// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwbundle

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
)

// EntryMetadata describes one entry of a board image.
type EntryMetadata struct {
	Tag        string      `json:"image_tag"`
	Role       bootfs.Role `json:"-"`
	SPIAddr    uint32      `json:"spi_addr"`
	Size       int         `json:"size"`
	LoadAddr   uint32      `json:"copy_dest"`
	Executable bool        `json:"executable"`
}

// TableMetadata is one table of a board image.
type TableMetadata struct {
	Head    uint32          `json:"head"`
	Entries []EntryMetadata `json:"entries"`
}

// BoardMetadata is what a board image holds.
type BoardMetadata struct {
	Name   string          `json:"name"`
	Tables []TableMetadata `json:"tables"`
}

// HasTag reports whether any table holds tag.
func (b *BoardMetadata) HasTag(tag string) bool {
	for _, t := range b.Tables {
		for _, e := range t.Entries {
			if e.Tag == tag {
				return true
			}
		}
	}
	return false
}

// Metadata summarizes a bundle.
type Metadata struct {
	Manifest *Manifest                 `json:"manifest"`
	Boards   map[string]*BoardMetadata `json:"boards"`
}

// ReadMetadata opens the bundle at path and decodes every board image.
func ReadMetadata(path string) (*Metadata, error) {
	b, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return b.Metadata()
}

// Metadata decodes every board image of the bundle.
func (b *Bundle) Metadata() (*Metadata, error) {
	manifest, err := b.Manifest()
	if err != nil {
		return nil, err
	}
	boards, err := b.Boards()
	if err != nil {
		return nil, err
	}
	md := &Metadata{Manifest: manifest, Boards: make(map[string]*BoardMetadata, len(boards))}
	for _, name := range boards {
		img, err := b.ReadImage(name)
		if err != nil {
			return nil, err
		}
		fsImg, err := bootfs.DecodeImage(img.Bytes())
		if err != nil {
			return nil, fmt.Errorf("board %s: %w", name, err)
		}
		md.Boards[name] = boardMetadata(name, fsImg)
	}
	return md, nil
}

func boardMetadata(name string, img *bootfs.Image) *BoardMetadata {
	bm := &BoardMetadata{Name: name}
	for _, fs := range img.Tables {
		tm := TableMetadata{Head: fs.Head}
		add := func(role bootfs.Role, e *bootfs.FsEntry) {
			tm.Entries = append(tm.Entries, EntryMetadata{
				Tag:        e.Tag,
				Role:       role,
				SPIAddr:    e.SPIAddr,
				Size:       len(e.Data),
				LoadAddr:   e.LoadAddr,
				Executable: e.Executable,
			})
		}
		for _, tag := range fs.Order {
			add(bootfs.RoleRegular, fs.Entries[tag])
		}
		if fs.Security != nil {
			add(bootfs.RoleSecurity, fs.Security)
		}
		if fs.Failover != nil {
			add(bootfs.RoleFailover, fs.Failover)
		}
		bm.Tables = append(bm.Tables, tm)
	}
	return bm
}

// BoardNames returns every board, sorted.
func (m *Metadata) BoardNames() []string {
	names := make([]string, 0, len(m.Boards))
	for name := range m.Boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BoardsWithTag returns the boards holding an entry tag, sorted.
func (m *Metadata) BoardsWithTag(tag string) []string {
	var names []string
	for _, name := range m.BoardNames() {
		if m.Boards[name].HasTag(tag) {
			names = append(names, name)
		}
	}
	return names
}

// Print lists every entry of every board.
func (m *Metadata) Print(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if m.Manifest != nil {
		v, _ := m.Manifest.BundleVersion.Version()
		t.SetTitle("fwbundle %s (manifest %s)", v, m.Manifest.Version)
	}
	t.AppendHeader(table.Row{"Board", "Table", "Tag", "Role", "SPI Address", "Size", "Load Address", "Executable"})
	for _, name := range m.BoardNames() {
		for _, tm := range m.Boards[name].Tables {
			for _, e := range tm.Entries {
				t.AppendRow(table.Row{
					name,
					fmt.Sprintf("0x%x", tm.Head),
					e.Tag,
					e.Role,
					fmt.Sprintf("0x%08x", e.SPIAddr),
					humanize.IBytes(uint64(e.Size)),
					fmt.Sprintf("0x%08x", e.LoadAddr),
					e.Executable,
				})
			}
		}
		t.AppendSeparator()
	}
	t.Render()
}
