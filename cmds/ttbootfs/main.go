// Copyright 2017-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ttbootfs builds, inspects and converts tt_boot_fs flash images.
//
// Synopsis:
//
//	ttbootfs mkfs -l LAYOUT -o IMAGE [--var NAME=VALUE...] [--update] [--pad]
//	ttbootfs ls -f IMAGE [--raw] [--verbose] [--json] [--head ADDR...]
//	ttbootfs convert -f IMAGE -o OUTPUT [--to FORMAT] [--reencode]
//	ttbootfs verify -f IMAGE
//	ttbootfs hexdump -f IMAGE -t TAG
//	ttbootfs fwtable -f IMAGE [--json] [--schema SET]
//
// An example:
//
//	ttbootfs mkfs -l boards/p150a.yaml -D BUILD=build-p150a -o tt_boot_fs.hex
//	ttbootfs ls -f tt_boot_fs.hex
//	ttbootfs convert -f tt_boot_fs.hex -o image.b16
//
// Images are read as flat binaries, sparse base16 or Intel HEX; the encoding
// is detected unless --format is given.
package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands/convert"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands/fwtable"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands/hexdump"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands/ls"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands/mkfs"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands/verify"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

var (
	knownCommands = map[string]cli.Command{
		"mkfs":    &mkfs.Command{},
		"ls":      &ls.Command{},
		"convert": &convert.Command{},
		"verify":  &verify.Command{},
		"hexdump": &hexdump.Command{},
		"fwtable": &fwtable.Command{},
	}
)

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

	// parse arguments and execute the appropriate command; flags.Default
	// already printed the error
	if _, err := flagsParser.Parse(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
