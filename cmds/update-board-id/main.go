// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// update-board-id programs the board id stored in boardcfg for the selected
// boards of a firmware bundle.
//
// Synopsis:
//
//	update-board-id -i BUNDLE -o OUTPUT (--board-id ID | --upi UPI) [--board BOARD...] [-v]
//
// --upi derives the default id of a board type: the UPI in bits 36 and up,
// bit 32 set and a zero serial number.
package main

import (
	"os"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/internal/patchtool"
	"github.com/tenstorrent/ttfwtools/pkg/fwpatch"
	"github.com/tenstorrent/ttfwtools/pkg/fwtable"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var common patchtool.Flags
	fs := patchtool.NewFlagSet("update-board-id", &common)
	boardID := fs.String("board-id", "", "board id, decimal or 0x hex")
	upi := fs.String("upi", "", "board type UPI to derive the board id from")
	if code, ok := common.Parse(fs, args); !ok {
		return code
	}
	if !common.Required(fs, "input") {
		return patchtool.ExUsage
	}
	if common.Listing() {
		return patchtool.Main(&common, fwpatch.SetBoardID{})
	}

	var id uint64
	switch {
	case fs.Changed("board-id") == fs.Changed("upi"):
		return common.Usagef("exactly one of --board-id and --upi is required")
	case fs.Changed("board-id"):
		v, err := cli.ParseUint(*boardID, 64)
		if err != nil {
			return common.Usagef("--board-id: %v", err)
		}
		id = v
	default:
		v, err := cli.ParseUint(*upi, 28)
		if err != nil {
			return common.Usagef("--upi: %v", err)
		}
		id = fwtable.BoardIDFromUPI(v)
	}
	return patchtool.Main(&common, fwpatch.SetBoardID{ID: id})
}
