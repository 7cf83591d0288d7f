// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/google/renameio/v2"

	"github.com/tenstorrent/ttfwtools/cmds/internal/cli"
	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
)

// ImageOptions are the flags shared by verbs reading an image file.
type ImageOptions struct {
	Path   string `short:"f" long:"file" description:"path to the flash image" required:"true"`
	Format string `long:"format" description:"image encoding [auto, bin, b16, hex]" default:"auto"`
}

// Load reads and decodes the image.
func (o ImageOptions) Load() (*flashimg.Image, error) {
	format, err := flashimg.ParseFormat(o.Format)
	if err != nil {
		return nil, cli.ErrArgs{Err: err}
	}
	data, err := os.ReadFile(o.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the image file '%s': %w", o.Path, err)
	}
	img, err := flashimg.Decode(o.Path, data, format)
	if err != nil {
		return nil, fmt.Errorf("unable to decode '%s': %w", o.Path, err)
	}
	return img, nil
}

// Store encodes img and atomically replaces path with it.
func Store(path, format string, img *flashimg.Image) error {
	f, err := flashimg.ParseFormat(format)
	if err != nil {
		return cli.ErrArgs{Err: err}
	}
	data, err := img.Encode(path, f)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", path, err)
	}
	return nil
}
