// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ttfwbundle creates, merges and inspects the firmware bundles tt-flash
// consumes.
//
// Synopsis:
//
//	ttfwbundle create -v VERSION -o BUNDLE [-c COMPRESSION] BOARD IMAGE [BOARD IMAGE...]
//	ttfwbundle combine -o BUNDLE [-c COMPRESSION] BUNDLE...
//	ttfwbundle ls -i BUNDLE [--json] [--tag TAG]
//	ttfwbundle recovery-hex -i BUNDLE -b BOARD -o HEX [--board-id ID | --upi UPI]
//
// An example:
//
//	ttfwbundle create -v 80.15.0.0 -o fw_pack.tar.gz P150A-1 p150a.hex P300-1 p300.hex
//	ttfwbundle ls -i fw_pack.tar.gz --tag cmfwcfg
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands/combine"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands/create"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands/ls"
	"github.com/tenstorrent/ttfwtools/cmds/ttfwbundle/commands/recoveryhex"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

var knownCommands = map[string]cli.Command{
	"create":       &create.Command{},
	"combine":      &combine.Command{},
	"ls":           &ls.Command{},
	"recovery-hex": &recoveryhex.Command{},
}

type globalOptions struct {
	Debug bool `short:"d" long:"debug" description:"enable debug prints"`
}

func main() {
	var opts globalOptions
	flagsParser := flags.NewParser(&opts, flags.Default)
	flagsParser.CommandHandler = func(command flags.Commander, args []string) error {
		log.SetVerbose(opts.Debug)
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	if _, err := flagsParser.Parse(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
