// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mkfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/cmds/ttbootfs/commands"
	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

var _ cli.Command = (*Command)(nil)

// Command builds a boot filesystem from a layout file.
type Command struct {
	Layout  string   `short:"l" long:"layout" description:"path to the layout YAML" required:"true"`
	Output  string   `short:"o" long:"output" description:"path of the image to write" required:"true"`
	Format  string   `long:"format" description:"output encoding [auto, bin, b16, hex], auto picks by extension" default:"auto"`
	Vars    []string `short:"D" long:"var" description:"layout variable NAME=VALUE, may be repeated"`
	BaseDir string   `long:"base-dir" description:"directory relative binaries are resolved against, defaults to the layout directory"`
	Update  bool     `long:"update" description:"leave out provisioning only images"`
	Pad     bool     `long:"pad" description:"extend every region with erased bytes to the next block"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "builds a tt_boot_fs image from a layout"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Reads a YAML layout naming every image, its flags and optionally its
SPI address, places the images after the descriptor region and writes the
encoded flash image. $NAME in paths is replaced by --var values or the
environment.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return cli.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	vars := map[string]string{}
	for _, v := range cmd.Vars {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return cli.ErrArgs{Err: fmt.Errorf("variable '%s' is not NAME=VALUE", v)}
		}
		vars[name] = value
	}

	f, err := os.Open(cmd.Layout)
	if err != nil {
		return fmt.Errorf("unable to open the layout '%s': %w", cmd.Layout, err)
	}
	defer f.Close()
	layout, err := bootfs.LoadLayout(f)
	if err != nil {
		return fmt.Errorf("layout '%s': %w", cmd.Layout, err)
	}

	baseDir := cmd.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(cmd.Layout)
	}
	fs, err := layout.Build(vars, func(path string) ([]byte, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return os.ReadFile(path)
	})
	if err != nil {
		return err
	}
	if cmd.Update {
		fs = fs.Update()
	}

	img, err := fs.Segments(cmd.Pad)
	if err != nil {
		return err
	}
	if err := commands.Store(cmd.Output, cmd.Format, img); err != nil {
		return err
	}
	log.Infof("wrote %s (%d entries) to %s", layout.Name, len(fs.Order)+1, cmd.Output)
	return nil
}
