// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convert

import (
	"fmt"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

var _ cli.Command = (*Command)(nil)

// Command re-encodes an image.
type Command struct {
	commands.ImageOptions
	Output   string `short:"o" long:"output" description:"path of the converted image" required:"true"`
	To       string `long:"to" description:"output encoding [auto, bin, b16, hex], auto picks by extension" default:"auto"`
	Reencode bool   `long:"reencode" description:"write the decoded tables instead of the programmed bytes"`
	Pad      bool   `long:"pad" description:"with --reencode, extend every region to the next block"`
	NoDecode bool   `long:"no-decode" description:"do not require the input to hold a valid table"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "converts an image between bin, base16 and Intel HEX"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `The programmed ranges of the input are written unchanged in the requested
encoding. With --reencode only the tables are kept and written from their
decoded form.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	if cmd.NoDecode && cmd.Reencode {
		return cli.ErrArgs{Err: fmt.Errorf("--reencode needs the tables decoded")}
	}
	img, err := cmd.Load()
	if err != nil {
		return err
	}
	out := img
	if !cmd.NoDecode {
		fsImg, err := bootfs.DecodeImage(img.Bytes())
		if err != nil {
			return err
		}
		log.Debugf("'%s' holds %d tables", cmd.Path, len(fsImg.Tables))
		if cmd.Reencode {
			if out, err = fsImg.Segments(cmd.Pad); err != nil {
				return err
			}
		}
	}
	return commands.Store(cmd.Output, cmd.To, out)
}
