// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package combine

import (
	"fmt"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
)

var _ cli.Command = (*Command)(nil)

// Command merges bundles.
type Command struct {
	commands.ArchiveOptions
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "merges firmware bundles into one"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Arguments are the bundles to merge. They are unpacked in order, so a
board or manifest present in several inputs is taken from the last one.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) == 0 {
		return cli.ErrArgs{Err: fmt.Errorf("no input bundles")}
	}
	return fwbundle.Combine(args, cmd.Output, cmd.Options())
}
