// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package blobcheck verifies prebuilt blobs against the sha256 sums recorded
// in a Zephyr module.yml.
package blobcheck

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

// Blob is one entry of the blobs list. Only the fields needed for
// verification are decoded.
type Blob struct {
	Path   string `yaml:"path"`
	SHA256 string `yaml:"sha256"`
	Type   string `yaml:"type,omitempty"`
	URL    string `yaml:"url,omitempty"`
}

// Module is the part of module.yml describing blobs.
type Module struct {
	Name  string `yaml:"name,omitempty"`
	Blobs []Blob `yaml:"blobs"`
}

// LoadModule parses module.yml.
func LoadModule(r io.Reader) (*Module, error) {
	var m Module
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, &fwerrors.FormatError{Msg: "unable to parse module description", Err: err}
	}
	return &m, nil
}

// Status is the outcome for one blob.
type Status int

// Blob statuses.
const (
	StatusOK Status = iota
	StatusMissing
	StatusMismatch
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusMismatch:
		return "mismatch"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of checking one blob.
type Result struct {
	Blob   Blob
	Status Status
	// Actual is the sum of the file on disk, empty if it is missing.
	Actual string
}

// Sum returns the lowercase hex sha256 of the file at path.
func Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("unable to read '%s': %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks every blob relative to baseDir. Missing files are reported
// and skipped; every mismatch is returned as a VerificationError.
func Verify(m *Module, baseDir string) ([]Result, error) {
	var (
		results []Result
		result  *multierror.Error
	)
	for _, b := range m.Blobs {
		path := filepath.Join(baseDir, filepath.FromSlash(b.Path))
		sum, err := Sum(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warnf("blob '%s' does not exist", b.Path)
			results = append(results, Result{Blob: b, Status: StatusMissing})
			continue
		case err != nil:
			result = multierror.Append(result, err)
			continue
		}
		r := Result{Blob: b, Status: StatusOK, Actual: sum}
		if !strings.EqualFold(sum, b.SHA256) {
			r.Status = StatusMismatch
			result = multierror.Append(result, &fwerrors.VerificationError{
				Board: b.Path,
				Field: "sha256",
				Got:   sum,
				Want:  b.SHA256,
			})
		}
		results = append(results, r)
	}
	return results, result.ErrorOrNil()
}
