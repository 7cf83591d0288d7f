// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// update-bar4-size sets the PCIe BAR4 size in the firmware table of every
// board of a firmware bundle.
//
// Synopsis:
//
//	update-bar4-size -i BUNDLE -o OUTPUT --size MIB [--bus N...] [--board BOARD...] [-v]
//
// A size of 0 disables BAR4. --board '?' lists the boards the update applies
// to.
package main

import (
	"os"

	"github.com/tenstorrent/ttfwtools/cmds/internal/patchtool"
	"github.com/tenstorrent/ttfwtools/pkg/fwpatch"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var common patchtool.Flags
	fs := patchtool.NewFlagSet("update-bar4-size", &common)
	size := fs.Int64("size", 0, "BAR4 size in MiB, a power of two or 0")
	buses := fs.IntSlice("bus", nil, "PCIe bus to update, may be repeated; all buses when not given")
	if code, ok := common.Parse(fs, args); !ok {
		return code
	}
	if !common.Required(fs, "input") {
		return patchtool.ExUsage
	}
	if !common.Listing() && !common.Required(fs, "size") {
		return patchtool.ExUsage
	}
	return patchtool.Main(&common, fwpatch.SetBar4Size{Buses: *buses, SizeMiB: *size})
}
