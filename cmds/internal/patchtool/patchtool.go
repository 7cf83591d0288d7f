// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package patchtool is the command line front end shared by the field-patch
// tools. Each tool registers its own flags next to the common ones and hands
// an operation to Main.
package patchtool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"

	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/fwpatch"
	"github.com/tenstorrent/ttfwtools/pkg/fwtable"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

// Flags are the options every field-patch tool takes.
type Flags struct {
	Input       string
	Output      string
	Boards      []string
	Compression string
	Verbose     bool
	// Schema is a protobuf descriptor set replacing the built-in table
	// schema.
	Schema string

	// Stderr receives command line errors and the usage. It defaults to
	// os.Stderr.
	Stderr io.Writer

	tool string
}

func (f *Flags) stderr() io.Writer {
	if f.Stderr == nil {
		return os.Stderr
	}
	return f.Stderr
}

// Listing reports whether the run only lists the applicable boards.
func (f *Flags) Listing() bool {
	for _, b := range f.Boards {
		if b == fwpatch.ListBoards {
			return true
		}
	}
	return false
}

// NewFlagSet returns a flag set for tool with the common flags registered
// into f.
func NewFlagSet(tool string, f *Flags) *flag.FlagSet {
	f.tool = tool
	fs := flag.NewFlagSet(tool, flag.ContinueOnError)
	fs.SetOutput(f.stderr())
	fs.StringVarP(&f.Input, "input", "i", "", "path to the input fwbundle")
	fs.StringVarP(&f.Output, "output", "o", "", "path to the output fwbundle")
	fs.StringArrayVarP(&f.Boards, "board", "b", nil, "board to update, may be repeated; '?' lists the applicable boards")
	fs.StringVar(&f.Compression, "compression", fwbundle.DefaultCompression, "compression of the output fwbundle")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "hexdump the entry before and after the update")
	fs.StringVar(&f.Schema, "schema", "", "protobuf descriptor set of fw_table.proto and read_only.proto to use instead of the built-in schema")
	return fs
}

// Request builds the fwpatch request for op.
func (f *Flags) Request(op fwpatch.Operation) fwpatch.Request {
	return fwpatch.Request{
		Input:   f.Input,
		Output:  f.Output,
		Boards:  f.Boards,
		Op:      op,
		Options: fwbundle.Options{Compression: f.Compression},
		Verbose: f.Verbose,
	}
}

// Parse parses args into fs. The returned code is meaningful when ok is false:
// the tool must exit with it.
func (f *Flags) Parse(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return fwerrors.ExOK, false
		}
		return fwerrors.ExUsage, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(f.stderr(), "%s: unexpected arguments %q\n", f.tool, fs.Args())
		return fwerrors.ExUsage, false
	}
	return fwerrors.ExOK, true
}

// Required reports whether every flag in names was given. The first missing
// one is reported along with the usage.
func (f *Flags) Required(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if !fs.Changed(name) {
			fmt.Fprintf(f.stderr(), "%s: --%s is required\n", f.tool, name)
			fs.Usage()
			return false
		}
	}
	return true
}

// Usagef reports a command line error that the flag set cannot detect.
func (f *Flags) Usagef(format string, args ...any) int {
	fmt.Fprintf(f.stderr(), "%s: %s\n", f.tool, fmt.Sprintf(format, args...))
	return ExUsage
}

// Main runs the request and maps the outcome onto an exit code. Interrupts
// cancel the run between boards.
func Main(f *Flags, op fwpatch.Operation) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return run(ctx, f, op)
}

func run(ctx context.Context, f *Flags, op fwpatch.Operation) int {
	if f.tool != "" {
		log.DefaultLogger = log.WithTool(f.tool)
	}
	log.SetVerbose(f.Verbose)
	if err := f.loadSchema(); err != nil {
		log.Errorf("%v", err)
		return fwpatch.ExitCode(err)
	}
	if _, err := fwpatch.Run(ctx, f.Request(op)); err != nil {
		log.Errorf("%v", err)
		return fwpatch.ExitCode(err)
	}
	return fwerrors.ExOK
}

func (f *Flags) loadSchema() error {
	if f.Schema == "" {
		return nil
	}
	b, err := os.ReadFile(f.Schema)
	if err != nil {
		return err
	}
	s, err := fwtable.ReadSchema(b)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Schema, err)
	}
	log.Debugf("using table schema %s", f.Schema)
	fwtable.Use(s)
	return nil
}

// ExUsage is the exit code of a command line error.
const ExUsage = fwerrors.ExUsage
