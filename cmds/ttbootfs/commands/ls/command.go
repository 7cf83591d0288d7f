// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ls

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
)

var _ cli.Command = (*Command)(nil)

// Command lists the tables of an image.
type Command struct {
	commands.ImageOptions
	Heads   []uint32 `long:"head" base:"0" description:"table head address, may be repeated; default scans the image"`
	Raw     bool     `long:"raw" description:"list descriptors as found, without validating the table"`
	Verbose bool     `short:"v" long:"verbose" description:"print every descriptor field"`
	JSON    bool     `long:"json" description:"print the descriptors as JSON"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "lists the entries of a tt_boot_fs image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Without --raw the image is fully decoded and any descriptor damage is an
error. With --raw the descriptors are listed as found, with their checksums
marked when they do not match.`
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
	data := img.Bytes()

	if cmd.Raw {
		heads := cmd.Heads
		if len(heads) == 0 {
			heads = []uint32{0}
		}
		return cmd.printDescriptors(data, heads)
	}

	fsImg, err := bootfs.DecodeImage(data, cmd.Heads...)
	if err != nil {
		return err
	}
	if !cmd.Verbose && !cmd.JSON {
		for _, fs := range fsImg.Tables {
			fs.Print(os.Stdout)
		}
		return nil
	}
	var heads []uint32
	for _, fs := range fsImg.Tables {
		heads = append(heads, fs.Head)
	}
	return cmd.printDescriptors(data, heads)
}

func (cmd *Command) printDescriptors(data []byte, heads []uint32) error {
	for _, head := range heads {
		infos, err := bootfs.Inspect(data, head)
		if err != nil {
			return err
		}
		switch {
		case cmd.JSON:
			b, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", b)
		case cmd.Verbose:
			if err := bootfs.PrintDescriptorsVerbose(os.Stdout, infos); err != nil {
				return err
			}
		default:
			bootfs.PrintDescriptors(os.Stdout, infos)
		}
	}
	return nil
}
