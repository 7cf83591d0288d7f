// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verify

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

var _ cli.Command = (*Command)(nil)

// Command checks descriptors and payloads.
type Command struct {
	commands.ImageOptions
	Heads []uint32 `long:"head" base:"0" description:"table head address, may be repeated; default scans the image"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "verifies descriptor and payload checksums"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Decodes every table and checks the payload checksum of each entry, which
a plain decode does not.`
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
	fsImg, err := bootfs.DecodeImage(data, cmd.Heads...)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, fs := range fsImg.Tables {
		if err := bootfs.VerifyData(data, fs.Head); err != nil {
			result = multierror.Append(result, fmt.Errorf("table at %#x: %w", fs.Head, err))
			continue
		}
		log.Infof("table at %#x: %d entries verified", fs.Head, len(fs.Order)+1)
	}
	return result.ErrorOrNil()
}
