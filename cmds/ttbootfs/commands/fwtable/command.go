// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwtable

import (
	"fmt"
	"os"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/fwtable"
	"github.com/tenstorrent/ttfwtools/pkg/nanopb"
)

var _ cli.Command = (*Command)(nil)

// Command prints the protobuf tables.
type Command struct {
	commands.ImageOptions
	JSON   bool   `long:"json" description:"print the protobuf JSON mapping instead of text format"`
	Schema string `long:"schema" description:"protobuf descriptor set to decode with instead of the built-in schema"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the firmware table and board identity"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Decodes cmfwcfg as FwTable and boardcfg as ReadOnly. Fields the schema
does not name are printed by number. --schema takes a descriptor set written
by protoc -o, binary or text format.`
}

type table interface {
	String() string
	JSON() ([]byte, error)
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	if cmd.Schema != "" {
		b, err := os.ReadFile(cmd.Schema)
		if err != nil {
			return err
		}
		s, err := fwtable.ReadSchema(b)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Schema, err)
		}
		fwtable.Use(s)
	}
	img, err := cmd.Load()
	if err != nil {
		return err
	}
	fsImg, err := bootfs.DecodeImage(img.Bytes())
	if err != nil {
		return err
	}

	found := false
	for _, tc := range []struct {
		tag   string
		parse func([]byte) (table, error)
	}{
		{bootfs.TagCMFWCfg, func(b []byte) (table, error) { return fwtable.ParseFwTable(b) }},
		{bootfs.TagBoardCfg, func(b []byte) (table, error) { return fwtable.ParseReadOnly(b) }},
	} {
		fs, ok := fsImg.FindTable(tc.tag)
		if !ok {
			continue
		}
		found = true
		e, _ := fs.Get(tc.tag)
		payload, err := nanopb.RemoveFraming(e.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", tc.tag, err)
		}
		t, err := tc.parse(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", tc.tag, err)
		}
		fmt.Printf("# %s\n", tc.tag)
		if cmd.JSON {
			b, err := t.JSON()
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", b)
			continue
		}
		fmt.Print(t.String())
	}
	if !found {
		return &fwerrors.NotFoundError{Kind: "entry", Name: bootfs.TagCMFWCfg + " or " + bootfs.TagBoardCfg}
	}
	return nil
}
