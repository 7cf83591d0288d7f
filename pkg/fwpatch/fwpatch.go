// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fwpatch edits protobuf tables stored in the boot filesystem of every
// board of a firmware bundle.
//
// For each selected board the entry is located, its nanopb framing removed,
// the table parsed, edited, serialized and framed again, and the entry is
// written back in place. The new bundle is staged, read back and verified,
// and only then replaces the output.
package fwpatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/tenstorrent/ttfwtools/pkg/bootfs"
	"github.com/tenstorrent/ttfwtools/pkg/fwbundle"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/log"
	"github.com/tenstorrent/ttfwtools/pkg/nanopb"
)

// ListBoards in Request.Boards asks for the applicable boards instead of an
// update.
const ListBoards = "?"

// Request is one field-patch invocation.
type Request struct {
	Input  string
	Output string
	// Boards selects boards by name. Empty means every board holding the
	// entry.
	Boards []string
	Op     Operation
	// Options controls how the output bundle is packed.
	Options fwbundle.Options
	// Verbose hexdumps the entry before and after the update.
	Verbose bool
}

// Status tells what happened to a board.
type Status int

// Board statuses.
const (
	StatusApplied Status = iota
	StatusSkipped
	StatusListed
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusSkipped:
		return "skipped"
	case StatusListed:
		return "listed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome for one board.
type Result struct {
	Board  string
	Status Status
}

func (r Request) validate() error {
	if r.Op == nil {
		return fwerrors.Invalidf("operation", "none given")
	}
	if r.Input == "" {
		return fwerrors.Invalidf("input", "no input bundle given")
	}
	if r.listing() {
		return nil
	}
	if err := r.Op.Validate(); err != nil {
		return err
	}
	if r.Output == "" {
		return fwerrors.Invalidf("output", "no output bundle given")
	}
	return r.Options.Validate()
}

func (r Request) listing() bool {
	for _, b := range r.Boards {
		if b == ListBoards {
			return true
		}
	}
	return false
}

// Run executes req. Listing and skipped boards are reported as results, not
// errors. When no board is left to update a NotFoundError is returned and
// nothing is written.
func Run(ctx context.Context, req Request) ([]Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	tag := req.Op.Tag()

	log.Infof("loading fwbundle %s", req.Input)
	b, err := fwbundle.Open(req.Input)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	md, err := b.Metadata()
	if err != nil {
		return nil, fmt.Errorf("unable to load fwbundle metadata: %w", err)
	}
	applicable := md.BoardsWithTag(tag)

	var results []Result
	if req.listing() {
		if len(applicable) == 0 {
			log.Warnf("no boards found with bootfs entry %s", tag)
		}
		for _, board := range applicable {
			log.Infof("%s", board)
			results = append(results, Result{Board: board, Status: StatusListed})
		}
		return results, nil
	}

	selected := applicable
	if len(req.Boards) != 0 {
		selected = nil
		has := map[string]bool{}
		for _, board := range applicable {
			has[board] = true
		}
		seen := map[string]bool{}
		for _, board := range req.Boards {
			if seen[board] {
				continue
			}
			seen[board] = true
			if !has[board] {
				log.Warnf("board '%s' does not have a bootfs entry %s and will be skipped", board, tag)
				results = append(results, Result{Board: board, Status: StatusSkipped})
				continue
			}
			selected = append(selected, board)
		}
	}
	if len(selected) == 0 {
		log.Infof("no valid boards to process")
		return results, &fwerrors.NotFoundError{Kind: "board with bootfs entry", Name: tag}
	}

	for _, board := range selected {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		log.Debugf("processing board '%s': %s", board, req.Op)
		if err := patchBoard(b, board, req.Op, req.Verbose); err != nil {
			return results, fmt.Errorf("board %s: %w", board, err)
		}
	}

	staging, err := os.MkdirTemp("", "fwpatch-")
	if err != nil {
		return results, err
	}
	defer os.RemoveAll(staging)
	staged := filepath.Join(staging, "staged.fwbundle")
	if err := b.Pack(staged, req.Options); err != nil {
		return results, err
	}
	if err := verifyBundle(staged, selected, req.Op); err != nil {
		return results, err
	}
	data, err := os.ReadFile(staged)
	if err != nil {
		return results, err
	}
	verb := "creating"
	if _, err := os.Stat(req.Output); err == nil {
		verb = "overwriting existing"
	}
	log.Infof("%s output fwbundle: %s", verb, req.Output)
	if err := renameio.WriteFile(req.Output, data, 0o644); err != nil {
		return results, err
	}
	for _, board := range selected {
		results = append(results, Result{Board: board, Status: StatusApplied})
	}
	return results, nil
}

// entryPayload returns the unframed payload of tag and the decoded table
// holding it.
func entryPayload(data []byte, tag string) (*bootfs.BootFs, []byte, error) {
	img, err := bootfs.DecodeImage(data)
	if err != nil {
		return nil, nil, err
	}
	fs, ok := img.FindTable(tag)
	if !ok {
		return nil, nil, &fwerrors.NotFoundError{Kind: "entry", Name: tag}
	}
	e, _ := fs.Get(tag)
	log.Debugf("%s at SPI address: 0x%x, size: %d bytes", tag, e.SPIAddr, len(e.Data))
	payload, err := nanopb.RemoveFraming(e.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("entry %s: %w", tag, err)
	}
	return fs, payload, nil
}

func dump(what string, base uint32, data []byte) {
	var sb strings.Builder
	if err := bootfs.Hexdump(&sb, data, base); err == nil {
		log.Debugf("%s:\n%s", what, sb.String())
	}
}

func patchBoard(b *fwbundle.Bundle, board string, op Operation, verbose bool) error {
	img, err := b.ReadImage(board)
	if err != nil {
		return err
	}
	fs, payload, err := entryPayload(img.Bytes(), op.Tag())
	if err != nil {
		return err
	}
	e, _ := fs.Get(op.Tag())
	if verbose {
		dump("before", e.SPIAddr, e.Data)
	}
	tbl, err := op.Parse(payload)
	if err != nil {
		return err
	}
	if err := op.Apply(tbl); err != nil {
		return err
	}
	out, err := tbl.Marshal()
	if err != nil {
		return err
	}
	framed := nanopb.AddFraming(out)
	if verbose {
		dump("after", e.SPIAddr, framed)
	}
	if err := fs.Patch(img, op.Tag(), framed); err != nil {
		return err
	}
	return b.WriteImage(board, img)
}

func verifyBundle(path string, boards []string, op Operation) error {
	b, err := fwbundle.Open(path)
	if err != nil {
		return err
	}
	defer b.Close()
	for _, board := range boards {
		log.Debugf("verifying board '%s'", board)
		img, err := b.ReadImage(board)
		if err != nil {
			return err
		}
		_, payload, err := entryPayload(img.Bytes(), op.Tag())
		if err != nil {
			return fmt.Errorf("board %s: %w", board, err)
		}
		tbl, err := op.Parse(payload)
		if err != nil {
			return fmt.Errorf("board %s: %w", board, err)
		}
		if err := op.Verify(tbl); err != nil {
			var ve *fwerrors.VerificationError
			if errors.As(err, &ve) {
				ve.Board = board
			}
			return err
		}
	}
	return nil
}

// ExitCode maps the error of Run onto a sysexits code.
func ExitCode(err error) int {
	return fwerrors.ExitCode(err)
}
