// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package commands holds what the ttfwbundle verbs share.
package commands

import (
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
)

// ArchiveOptions are the flags of verbs writing a bundle.
type ArchiveOptions struct {
	Output      string `short:"o" long:"output" description:"path of the bundle to write" required:"true"`
	Compression string `short:"c" long:"compression" description:"archive compression [gzip, xz, zstd, lz4, lzma]" default:"gzip"`
}

// Options converts the flags into fwbundle.Options.
func (o ArchiveOptions) Options() fwbundle.Options {
	return fwbundle.Options{Compression: o.Compression}
}
