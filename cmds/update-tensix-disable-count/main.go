// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// update-tensix-disable-count sets how many Tensix columns the firmware
// harvests on every board of a firmware bundle.
//
// Synopsis:
//
//	update-tensix-disable-count -i BUNDLE -o OUTPUT --disable-count N [--board BOARD...] [-v]
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
	fs := patchtool.NewFlagSet("update-tensix-disable-count", &common)
	count := fs.Int64("disable-count", 0, "number of Tensix columns to disable")
	if code, ok := common.Parse(fs, args); !ok {
		return code
	}
	if !common.Required(fs, "input") {
		return patchtool.ExUsage
	}
	if !common.Listing() && !common.Required(fs, "disable-count") {
		return patchtool.ExUsage
	}
	return patchtool.Main(&common, fwpatch.SetTensixDisableCount{Count: *count})
}
