// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootfs

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tenstorrent/ttfwtools/pkg/pretty"
)

// Print renders the table as a listing.
func (fs *BootFs) Print(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("tt_boot_fs at 0x%x", fs.Head)
	t.AppendHeader(table.Row{"#", "Tag", "Role", "SPI Address", "Size", "Load Address", "Executable", "Provisioning"})
	row := func(idx string, role Role, e *FsEntry) {
		t.AppendRow([]interface{}{
			idx,
			e.Tag,
			role,
			fmt.Sprintf("0x%08x", e.SPIAddr),
			humanize.IBytes(uint64(len(e.Data))),
			fmt.Sprintf("0x%08x", e.LoadAddr),
			e.Executable,
			e.ProvisioningOnly,
		})
	}
	for i, tag := range fs.Order {
		row(fmt.Sprint(i), RoleRegular, fs.Entries[tag])
	}
	if fs.Security != nil {
		row("-", RoleSecurity, fs.Security)
	}
	if fs.Failover != nil {
		row("-", RoleFailover, fs.Failover)
	}
	t.Render()
}

// PrintDescriptors renders raw descriptors as returned by Inspect.
func PrintDescriptors(w io.Writer, infos []DescriptorInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Offset", "Role", "Tag", "SPI Address", "Size", "Copy Dest", "Flags", "Sig Size", "FD CRC", "Data CRC"})
	for _, info := range infos {
		fd := info.FD
		t.AppendRow([]interface{}{
			fmt.Sprintf("0x%04x", info.Offset),
			info.Role,
			fd.ImageTag,
			fmt.Sprintf("0x%08x", fd.SPIAddr),
			fmt.Sprintf("0x%x", fd.ImageSize()),
			fmt.Sprintf("0x%08x", fd.CopyDest),
			fd.FlagNames(),
			fd.SignatureSize(),
			crcState(fd.FDCRC, info.FDCRCValid, true),
			crcState(fd.DataCRC, info.DataCRCValid, info.InBounds),
		})
	}
	t.Render()
}

// PrettyString returns the raw fields of the descriptor followed by their
// decoded meaning.
func (fd *FD) PrettyString(depth uint, withHeader bool) string {
	lines := []string{pretty.Struct(depth, withHeader, "Descriptor "+fd.ImageTag.String(), fd)}
	lines = append(lines,
		pretty.SubValue(depth+1, "Image Size", "", fd.ImageSize()),
		pretty.SubValue(depth+1, "Flag Names", fd.FlagNames(), nil),
		pretty.SubValue(depth+1, "Signature Size", "", fd.SignatureSize()),
		pretty.SubValue(depth+1, "SB Phase", "", fd.SBPhase()),
		pretty.SubValue(depth+1, "CRC Valid", "", fd.CRCValid()),
	)
	return strings.Join(lines, "\n")
}

// PrintDescriptorsVerbose writes every descriptor field by field.
func PrintDescriptorsVerbose(w io.Writer, infos []DescriptorInfo) error {
	for _, info := range infos {
		title := fmt.Sprintf("%s descriptor at 0x%x", info.Role, info.Offset)
		if _, err := fmt.Fprintln(w, pretty.Header(0, title, nil)+info.FD.PrettyString(0, false)); err != nil {
			return err
		}
	}
	return nil
}

func crcState(crc uint32, valid, checked bool) string {
	switch {
	case !checked:
		return fmt.Sprintf("0x%08x (out of bounds)", crc)
	case !valid:
		return fmt.Sprintf("0x%08x (BAD)", crc)
	}
	return fmt.Sprintf("0x%08x", crc)
}

// Hexdump writes data as 16 byte lines addressed from base, each followed by
// the word sum of the line.
func Hexdump(w io.Writer, data []byte, base uint32) error {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]
		var hex strings.Builder
		for i, b := range line {
			if i > 0 && i%4 == 0 {
				hex.WriteByte(' ')
			}
			fmt.Fprintf(&hex, "%02x", b)
		}
		if _, err := fmt.Fprintf(w, "%08x: %-35s  sum=%08x\n", base+uint32(off), hex.String(), Checksum(line)); err != nil {
			return err
		}
	}
	return nil
}
