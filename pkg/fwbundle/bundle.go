// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwbundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

// Bundle is a bundle unpacked into a private directory.
type Bundle struct {
	Dir string
}

// Open extracts the bundle at path. Close removes the directory.
func Open(path string) (*Bundle, error) {
	dir, err := os.MkdirTemp("", "fwbundle-")
	if err != nil {
		return nil, err
	}
	if err := Extract(path, dir); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Bundle{Dir: dir}, nil
}

// Close removes the extracted tree.
func (b *Bundle) Close() error {
	return os.RemoveAll(b.Dir)
}

// Pack writes the tree back into an archive at output.
func (b *Bundle) Pack(output string, opts Options) error {
	return Pack(b.Dir, output, opts)
}

// Boards returns the names of the board directories, sorted.
func (b *Bundle) Boards() ([]string, error) {
	entries, err := os.ReadDir(b.Dir)
	if err != nil {
		return nil, err
	}
	var boards []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(b.Dir, e.Name(), ImageFile)); err == nil {
			boards = append(boards, e.Name())
		}
	}
	sort.Strings(boards)
	return boards, nil
}

func (b *Bundle) boardFile(board, name string) (string, error) {
	if board == "" || strings.ContainsAny(board, `/\`) || board == "." || board == ".." {
		return "", fwerrors.Invalidf("board", "%q is not a board name", board)
	}
	return filepath.Join(b.Dir, board, name), nil
}

func (b *Bundle) readBoardFile(board, name string) ([]byte, error) {
	p, err := b.boardFile(board, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, &fwerrors.NotFoundError{Kind: "bundle member", Name: board + "/" + name}
	}
	return data, err
}

// Manifest reads manifest.json.
func (b *Bundle) Manifest() (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(b.Dir, ManifestFile))
	if os.IsNotExist(err) {
		return nil, &fwerrors.NotFoundError{Kind: "bundle member", Name: ManifestFile}
	}
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ReadImage parses image.bin of board.
func (b *Bundle) ReadImage(board string) (*flashimg.Image, error) {
	data, err := b.readBoardFile(board, ImageFile)
	if err != nil {
		return nil, err
	}
	img, err := flashimg.ParseB16Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", board, err)
	}
	return img, nil
}

// WriteImage replaces image.bin of board.
func (b *Bundle) WriteImage(board string, img *flashimg.Image) error {
	p, err := b.boardFile(board, ImageFile)
	if err != nil {
		return err
	}
	return os.WriteFile(p, img.B16(), 0o644)
}

// Mask reads mask.json of board.
func (b *Bundle) Mask(board string) (Mask, error) {
	data, err := b.readBoardFile(board, MaskFile)
	if err != nil {
		return nil, err
	}
	return ParseMask(data)
}

// Mapping reads mapping.json of board.
func (b *Bundle) Mapping(board string) (*Mapping, error) {
	data, err := b.readBoardFile(board, MappingFile)
	if err != nil {
		return nil, err
	}
	return ParseMapping(data)
}

func writeJSON(path string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Create writes a bundle at version holding one board per entry of boards,
// mapping board name to a flash image. Images ending in .hex are read as
// Intel HEX and keep their address ranges; anything else is a flat binary
// starting at address 0. Inputs are all read before output is touched.
func Create(output string, version Version, boards map[string]string, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	sort.Strings(names)

	images := make(map[string][]byte, len(boards))
	for _, name := range names {
		if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fwerrors.Invalidf("board", "%q is not a board name", name)
		}
		b16, err := readBoardImage(boards[name])
		if err != nil {
			return fmt.Errorf("board %s: %w", name, err)
		}
		images[name] = b16
	}

	dir, err := os.MkdirTemp("", "fwbundle-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	for _, name := range names {
		boardDir := filepath.Join(dir, name)
		if err := os.Mkdir(boardDir, 0o755); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(boardDir, MaskFile), DefaultMask()); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(boardDir, MappingFile), &Mapping{}); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(boardDir, ImageFile), images[name], 0o644); err != nil {
			return err
		}
	}
	// The manifest goes last, it carries the bundle version.
	if err := writeJSON(filepath.Join(dir, ManifestFile), NewManifest(version)); err != nil {
		return err
	}
	if err := Pack(dir, output, opts); err != nil {
		return err
	}
	log.Infof("wrote fwbundle %s (version %s, %d boards)", output, version, len(names))
	return nil
}

func readBoardImage(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".hex") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, err := flashimg.ParseIntelHex(f)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", path, err)
		}
		return img.B16(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return flashimg.B16Plain(raw), nil
}

// Combine merges inputs into one bundle. Inputs are unpacked in order into
// the same tree, so a member present in several inputs comes from the last.
func Combine(inputs []string, output string, opts Options) error {
	if len(inputs) == 0 {
		return fwerrors.Invalidf("inputs", "nothing to combine")
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			return err
		}
	}
	dir, err := os.MkdirTemp("", "fwbundle-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	for _, in := range inputs {
		if err := Extract(in, dir); err != nil {
			return err
		}
	}
	if err := Pack(dir, output, opts); err != nil {
		return err
	}
	log.Infof("wrote combined fwbundle %s from %d bundles", output, len(inputs))
	return nil
}
