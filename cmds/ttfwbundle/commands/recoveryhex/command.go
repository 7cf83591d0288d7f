// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recoveryhex

import (
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
	"github.com/tenstorrent/ttfwtools/pkg/fwtable"
)

var _ cli.Command = (*Command)(nil)

// Command writes the recovery image of one board.
type Command struct {
	Input   string `short:"i" long:"input" description:"path to the bundle" required:"true"`
	Board   string `short:"b" long:"board" description:"board to extract" required:"true"`
	Output  string `short:"o" long:"output" description:"path of the Intel HEX file to write" required:"true"`
	BoardID string `long:"board-id" description:"board id to program, decimal or 0x hex"`
	UPI     string `long:"upi" description:"derive the board id from this board type UPI"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "extracts a recovery image from a firmware bundle"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Writes the image of one board as Intel HEX with the bundle mask
applied: counters and the tool version cleared, the programming date and the
bundle version stamped. With --board-id or --upi the board id is programmed
as well. The result can be flashed with a debug probe when tt-flash cannot
reach the board.`
}

func (cmd *Command) boardID() (*uint64, error) {
	switch {
	case cmd.BoardID != "" && cmd.UPI != "":
		return nil, cli.ErrArgs{Err: fmt.Errorf("--board-id and --upi are exclusive")}
	case cmd.BoardID != "":
		id, err := cli.ParseUint(cmd.BoardID, 64)
		if err != nil {
			return nil, cli.ErrArgs{Err: fmt.Errorf("--board-id: %w", err)}
		}
		return &id, nil
	case cmd.UPI != "":
		upi, err := cli.ParseUint(cmd.UPI, 28)
		if err != nil {
			return nil, cli.ErrArgs{Err: fmt.Errorf("--upi: %w", err)}
		}
		id := fwtable.BoardIDFromUPI(upi)
		return &id, nil
	}
	return nil, nil
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	id, err := cmd.boardID()
	if err != nil {
		return err
	}
	hex, err := fwbundle.RecoveryHex(cmd.Input, cmd.Board, fwbundle.MaskOptions{BoardID: id})
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(cmd.Output, hex, 0o644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", cmd.Output, err)
	}
	return nil
}
