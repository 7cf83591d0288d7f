// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// verify-blobs checks the sha256 of every binary blob listed in a Zephyr
// module description.
//
// Synopsis:
//
//	verify-blobs [--module zephyr/module.yml] [--blobs-dir DIR]
//
// Missing blobs are reported and skipped. Any checksum mismatch fails.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/tenstorrent/ttfwtools/pkg/blobcheck"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

var stderr io.Writer = os.Stderr

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, w io.Writer) int {
	fs := flag.NewFlagSet("verify-blobs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	module := fs.String("module", filepath.Join("zephyr", "module.yml"), "path to the module description")
	blobsDir := fs.String("blobs-dir", "", "directory blob paths are relative to, defaults to zephyr/blobs next to the module")
	debug := fs.BoolP("debug", "d", false, "enable debug prints")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return fwerrors.ExOK
		}
		return fwerrors.ExUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "verify-blobs: unexpected arguments %q\n", fs.Args())
		return fwerrors.ExUsage
	}
	log.SetVerbose(*debug)

	dir := *blobsDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(*module), "blobs")
	}

	f, err := os.Open(*module)
	if err != nil {
		log.Errorf("%v", err)
		return fwerrors.ExitCode(err)
	}
	defer f.Close()
	m, err := blobcheck.LoadModule(f)
	if err != nil {
		log.Errorf("%s: %v", *module, err)
		return fwerrors.ExitCode(err)
	}

	results, err := blobcheck.Verify(m, dir)
	for _, r := range results {
		fmt.Fprintf(w, "%-8s %s\n", r.Status, r.Blob.Path)
	}
	if err != nil {
		log.Errorf("%v", err)
		return fwerrors.ExitCode(err)
	}
	return fwerrors.ExOK
}
