// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hexdump

import (
	"fmt"
	"os"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

var _ cli.Command = (*Command)(nil)

// Command dumps one entry.
type Command struct {
	commands.ImageOptions
	Tag string `short:"t" long:"tag" description:"entry to dump" required:"true"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "hexdumps an entry with per-line checksums"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	img, err := cmd.Load()
	if err != nil {
		return err
	}
	fsImg, err := bootfs.DecodeImage(img.Bytes())
	if err != nil {
		return err
	}
	fs, ok := fsImg.FindTable(cmd.Tag)
	if !ok {
		return &fwerrors.NotFoundError{Kind: "entry", Name: cmd.Tag}
	}
	e, _ := fs.Get(cmd.Tag)
	fmt.Printf("%s at 0x%x, %d bytes, checksum %08x\n", e.Tag, e.SPIAddr, len(e.Data), bootfs.Checksum(e.Data))
	return bootfs.Hexdump(os.Stdout, e.Data, e.SPIAddr)
}
