// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwbundle

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/tenstorrent/ttfwtools/pkg/flashimg"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

// MaskOptions parameterizes ApplyMask.
type MaskOptions struct {
	// BoardID is written into HEADER.BOARD_INFO when set.
	BoardID *uint64
	// Today is the programming date. Zero means time.Now.
	Today time.Time
}

// maskHandler returns the bytes a range directive writes.
type maskHandler func(length int) ([]byte, error)

// ApplyMask rewrites the ranges named by mask the way a recovery flash does
// without tt-flash: counters and the tool version are cleared, the date is
// stamped and the bundle version written. Read-modify-write ranges are left
// alone since there is no previous content to keep. Unknown directives are
// skipped with a warning.
func ApplyMask(img *flashimg.Image, mask Mask, mapping *Mapping, manifest *Manifest, opts MaskOptions) error {
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	handlers := map[string]maskHandler{
		MaskIncr:         zeros,
		MaskFlashVersion: zeros,
		MaskDate: func(length int) ([]byte, error) {
			// 2025-10-16 is stored as the number 0x20251016.
			v, err := strconv.ParseUint(today.Format("20060102"), 16, 64)
			if err != nil {
				return nil, err
			}
			return littleEndian(v, length, "date")
		},
		MaskBundleVersion: func(length int) ([]byte, error) {
			if manifest == nil {
				return nil, &fwerrors.NotFoundError{Kind: "bundle member", Name: ManifestFile}
			}
			v, err := manifest.BundleVersion.Version()
			if err != nil {
				return nil, err
			}
			if length != 4 {
				return nil, fwerrors.Formatf("bundle_version range is %d bytes, expected 4", length)
			}
			return []byte{v.Debug, v.Patch, v.ReleaseID, v.FwID}, nil
		},
	}

	for i, entry := range mask {
		switch entry.Tag {
		case MaskRMW:
			log.Debugf("mask[%d]: skipping rmw range", i)
			continue
		case MaskWriteBoardCfg:
			continue
		}
		handler, ok := handlers[entry.Tag]
		if !ok {
			log.Warnf("unknown mask tag %q, skipping", entry.Tag)
			continue
		}
		if entry.Start == nil || entry.End == nil || *entry.End < *entry.Start {
			return fwerrors.Formatf("mask[%d]: %s needs a start <= end range", i, entry.Tag)
		}
		data, err := handler(int(*entry.End - *entry.Start))
		if err != nil {
			return fmt.Errorf("mask[%d] (%s): %w", i, entry.Tag, err)
		}
		img.Put(*entry.Start, data)
	}

	if opts.BoardID == nil {
		return nil
	}
	start, end, ok := mapping.Lookup("HEADER", "BOARD_INFO")
	if !ok {
		log.Warnf("BOARD_INFO location not found in %s, board id not written", MappingFile)
		return nil
	}
	data, err := littleEndian(*opts.BoardID, int(end-start), "board id")
	if err != nil {
		return err
	}
	img.Put(start, data)
	log.Infof("wrote board id 0x%016x at 0x%05x", *opts.BoardID, start)
	return nil
}

func zeros(length int) ([]byte, error) {
	return make([]byte, length), nil
}

// littleEndian stores v in length bytes.
func littleEndian(v uint64, length int, what string) ([]byte, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	out := make([]byte, length)
	copy(out, buf[:])
	if length < 8 && v>>(8*uint(length)) != 0 {
		return nil, fwerrors.Formatf("%s 0x%x does not fit in %d bytes", what, v, length)
	}
	return out, nil
}

// RecoveryImage builds the image a recovery flash of board writes: the
// bundle image with its mask applied.
func (b *Bundle) RecoveryImage(board string, opts MaskOptions) (*flashimg.Image, error) {
	img, err := b.ReadImage(board)
	if err != nil {
		return nil, err
	}
	mask, err := b.Mask(board)
	if err != nil {
		return nil, err
	}
	mapping, err := b.Mapping(board)
	if err != nil {
		return nil, err
	}
	manifest, err := b.Manifest()
	if err != nil {
		return nil, err
	}
	if err := ApplyMask(img, mask, mapping, manifest, opts); err != nil {
		return nil, fmt.Errorf("board %s: %w", board, err)
	}
	return img, nil
}

// RecoveryHex returns the recovery image of board in the bundle at path as
// Intel HEX.
func RecoveryHex(bundlePath, board string, opts MaskOptions) ([]byte, error) {
	b, err := Open(bundlePath)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	img, err := b.RecoveryImage(board, opts)
	if err != nil {
		return nil, err
	}
	return img.IntelHex()
}
