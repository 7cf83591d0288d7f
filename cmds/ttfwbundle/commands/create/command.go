// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package create

import (
	"fmt"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
)

var _ cli.Command = (*Command)(nil)

// Command packs per-board images into a new bundle.
type Command struct {
	commands.ArchiveOptions
	Version string `short:"v" long:"version" description:"bundle version fw_id.release_id.patch.debug" required:"true"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "creates a firmware bundle"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Arguments are BOARD IMAGE pairs. An image ending in .hex is read as Intel
HEX, anything else as a flat binary starting at address 0. The
bundle gets a manifest with the given version and a default mask per board.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) == 0 || len(args)%2 != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("expected BOARD IMAGE pairs, got %d arguments", len(args))}
	}
	version, err := fwbundle.ParseVersion(cmd.Version)
	if err != nil {
		return err
	}
	boards := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if _, ok := boards[args[i]]; ok {
			return cli.ErrArgs{Err: fmt.Errorf("board '%s' is given twice", args[i])}
		}
		boards[args[i]] = args[i+1]
	}
	return fwbundle.Create(cmd.Output, version, boards, cmd.Options())
}
