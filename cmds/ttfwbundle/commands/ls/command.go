// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ls

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
)

var _ cli.Command = (*Command)(nil)

// Command lists what a bundle holds.
type Command struct {
	Input string `short:"i" long:"input" description:"path to the bundle" required:"true"`
	JSON  bool   `long:"json" description:"print the metadata as JSON"`
	Tag   string `short:"t" long:"tag" description:"only list boards whose image holds this tag"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "lists the boards and entries of a firmware bundle"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Decodes the image of every board and prints its tt_boot_fs entries.
--tag keeps the boards whose image holds the given entry, which is how the
field-patch tools pick the boards they apply to.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	meta, err := fwbundle.ReadMetadata(cmd.Input)
	if err != nil {
		return err
	}
	if cmd.Tag != "" {
		keep := map[string]*fwbundle.BoardMetadata{}
		for _, name := range meta.BoardsWithTag(cmd.Tag) {
			keep[name] = meta.Boards[name]
		}
		meta.Boards = keep
	}

	if cmd.JSON {
		b, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to serialize into JSON: %w", err)
		}
		fmt.Println(string(b))
		return nil
	}
	meta.Print(os.Stdout)
	return nil
}
