// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fwbundle reads and writes Tenstorrent firmware bundles.
//
// A bundle is a compressed tar archive holding manifest.json and one directory
// per board. Each board directory has image.bin, a sparse base16 flash image,
// mask.json listing the ranges the flashing tool rewrites, and mapping.json
// naming fields of the image.
package fwbundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// File names inside a bundle.
const (
	ManifestFile = "manifest.json"
	ImageFile    = "image.bin"
	MaskFile     = "mask.json"
	MappingFile  = "mapping.json"
)

// ManifestVersion is the manifest format written by Create.
const ManifestVersion = "2.0.0"

// Version is the bundle version, fwId.releaseId.patch.debug.
type Version struct {
	FwID      uint8
	ReleaseID uint8
	Patch     uint8
	Debug     uint8
}

// ParseVersion parses "80.16.0.1".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return Version{}, fwerrors.Invalidf("bundle version", "%q has %d components, expected 4", s, len(parts))
	}
	var v [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Version{}, fwerrors.Invalidf("bundle version", "component %q of %q is not a number in 0..255", p, s)
		}
		v[i] = uint8(n)
	}
	return Version{FwID: v[0], ReleaseID: v[1], Patch: v[2], Debug: v[3]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.FwID, v.ReleaseID, v.Patch, v.Debug)
}

// BundleVersion is the manifest form of Version.
type BundleVersion struct {
	FwID      int `json:"fwId"`
	ReleaseID int `json:"releaseId"`
	Patch     int `json:"patch"`
	Debug     int `json:"debug"`
}

// Version checks the range of every component.
func (bv BundleVersion) Version() (Version, error) {
	for _, c := range []struct {
		name string
		v    int
	}{{"fwId", bv.FwID}, {"releaseId", bv.ReleaseID}, {"patch", bv.Patch}, {"debug", bv.Debug}} {
		if c.v < 0 || c.v > 255 {
			return Version{}, fwerrors.Invalidf("bundle_version."+c.name, "%d is out of 0..255", c.v)
		}
	}
	return Version{FwID: uint8(bv.FwID), ReleaseID: uint8(bv.ReleaseID), Patch: uint8(bv.Patch), Debug: uint8(bv.Debug)}, nil
}

// Manifest is manifest.json.
type Manifest struct {
	Version       string        `json:"version"`
	BundleVersion BundleVersion `json:"bundle_version"`
}

// NewManifest returns the manifest of a bundle at version v.
func NewManifest(v Version) *Manifest {
	return &Manifest{
		Version: ManifestVersion,
		BundleVersion: BundleVersion{
			FwID:      int(v.FwID),
			ReleaseID: int(v.ReleaseID),
			Patch:     int(v.Patch),
			Debug:     int(v.Debug),
		},
	}
}

// ParseManifest decodes manifest.json.
func ParseManifest(b []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, &fwerrors.FormatError{Msg: "bad " + ManifestFile, Err: err}
	}
	if _, err := m.BundleVersion.Version(); err != nil {
		return nil, &fwerrors.FormatError{Msg: "bad " + ManifestFile, Err: err}
	}
	return &m, nil
}

// Mask directive tags.
const (
	MaskIncr          = "incr"
	MaskDate          = "date"
	MaskFlashVersion  = "flash_version"
	MaskBundleVersion = "bundle_version"
	MaskRMW           = "rmw"
	MaskWriteBoardCfg = "write-boardcfg"
)

// MaskEntry is one directive of mask.json. Range directives carry the
// half-open span [Start, End).
type MaskEntry struct {
	Tag   string  `json:"tag"`
	Start *uint32 `json:"start,omitempty"`
	End   *uint32 `json:"end,omitempty"`
}

// Mask is mask.json.
type Mask []MaskEntry

// DefaultMask is written by Create: tt-flash rewrites boardcfg from the
// board it flashes.
func DefaultMask() Mask {
	return Mask{{Tag: MaskWriteBoardCfg}}
}

// ParseMask decodes mask.json.
func ParseMask(b []byte) (Mask, error) {
	var m Mask
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, &fwerrors.FormatError{Msg: "bad " + MaskFile, Err: err}
	}
	return m, nil
}

// Mapping is mapping.json: nested objects naming fields of the image, each
// leaf an object with start and end. An empty list means no fields.
type Mapping struct {
	root map[string]interface{}
}

// ParseMapping decodes mapping.json.
func ParseMapping(b []byte) (*Mapping, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var list []interface{}
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, &fwerrors.FormatError{Msg: "bad " + MappingFile, Err: err}
		}
		return &Mapping{}, nil
	}
	var root map[string]interface{}
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, &fwerrors.FormatError{Msg: "bad " + MappingFile, Err: err}
	}
	return &Mapping{root: root}, nil
}

// MarshalJSON implements json.Marshaler.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.root) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(m.root)
}

// Lookup returns the span of the field at path, e.g. "HEADER", "BOARD_INFO".
func (m *Mapping) Lookup(path ...string) (start, end uint32, ok bool) {
	if m == nil {
		return 0, 0, false
	}
	var node interface{} = m.root
	for _, name := range path {
		obj, isObj := node.(map[string]interface{})
		if !isObj {
			return 0, 0, false
		}
		if node, ok = obj[name]; !ok {
			return 0, 0, false
		}
	}
	leaf, isObj := node.(map[string]interface{})
	if !isObj {
		return 0, 0, false
	}
	s, okS := leaf["start"].(float64)
	e, okE := leaf["end"].(float64)
	if !okS || !okE || s < 0 || e < s || e > 0xffffffff {
		return 0, 0, false
	}
	return uint32(s), uint32(e), true
}
