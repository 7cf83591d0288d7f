// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwbundle

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/tenstorrent/ttfwtools/pkg/compression"
	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
	"github.com/tenstorrent/ttfwtools/pkg/log"
)

// DefaultCompression is what tt-flash expects.
const DefaultCompression = "gzip"

// Options controls how archives are written.
type Options struct {
	// Compression is a name known to package compression. Empty means
	// DefaultCompression.
	Compression string
	// ModTime is stamped on every member. Zero means SOURCE_DATE_EPOCH, or
	// the Unix epoch when that is unset.
	ModTime time.Time
}

func (o Options) compressor() (compression.Compressor, error) {
	name := o.Compression
	if name == "" {
		name = DefaultCompression
	}
	c, err := compression.FromName(name)
	if err != nil {
		return nil, fwerrors.Invalidf("compression", "%v", err)
	}
	return c, nil
}

func (o Options) modTime() (time.Time, error) {
	if !o.ModTime.IsZero() {
		return o.ModTime.UTC().Truncate(time.Second), nil
	}
	epoch := os.Getenv("SOURCE_DATE_EPOCH")
	if epoch == "" {
		return time.Unix(0, 0).UTC(), nil
	}
	sec, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return time.Time{}, fwerrors.Invalidf("SOURCE_DATE_EPOCH", "%q is not a number of seconds", epoch)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// Validate checks the options without touching any file.
func (o Options) Validate() error {
	if _, err := o.compressor(); err != nil {
		return err
	}
	_, err := o.modTime()
	return err
}

// Extract unpacks the bundle at path into dir. The compression is detected
// from the stream. Members escaping dir are rejected, links are skipped.
func Extract(bundlePath, dir string) error {
	f, err := os.Open(bundlePath)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, c, err := compression.NewDetectingReader(f)
	if err != nil {
		return &fwerrors.FormatError{Msg: fmt.Sprintf("'%s' is not a firmware bundle", bundlePath), Err: err}
	}
	defer zr.Close()
	log.Debugf("extracting %s bundle '%s' into '%s'", c.Name(), bundlePath, dir)

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &fwerrors.FormatError{Msg: fmt.Sprintf("unable to read '%s'", bundlePath), Err: err}
		}
		name, err := memberPath(hdr.Name)
		if err != nil {
			return err
		}
		if name == "" {
			continue
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeMember(target, tr); err != nil {
				return err
			}
		default:
			log.Warnf("skipping '%s' of type %q in '%s'", hdr.Name, hdr.Typeflag, bundlePath)
		}
	}
}

// memberPath cleans a member name. The archive root yields "".
func memberPath(name string) (string, error) {
	clean := path.Clean("/" + strings.TrimPrefix(name, "./"))
	if strings.HasPrefix(name, "/") || strings.Contains("/"+name+"/", "/../") {
		return "", fwerrors.Formatf("member '%s' escapes the bundle", name)
	}
	return strings.TrimPrefix(clean, "/"), nil
}

func writeMember(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("unable to extract '%s': %w", target, err)
	}
	return out.Close()
}

// Pack archives the content of dir into output. Members are sorted by name,
// owned by root and stamped with one modification time, so equal trees give
// equal archives. output is replaced atomically.
func Pack(dir, output string, opts Options) error {
	c, err := opts.compressor()
	if err != nil {
		return err
	}
	mtime, err := opts.modTime()
	if err != nil {
		return err
	}

	pf, err := renameio.NewPendingFile(output, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer pf.Cleanup()

	zw, err := c.NewWriter(pf)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		name := "./" + filepath.ToSlash(rel)
		if rel == "." {
			name = "."
		}
		hdr := &tar.Header{
			Name:    name,
			ModTime: mtime,
			Format:  tar.FormatPAX,
		}
		switch {
		case d.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			hdr.Mode = 0o755
			return tw.WriteHeader(hdr)
		case d.Type().IsRegular():
			b, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			hdr.Typeflag = tar.TypeReg
			hdr.Mode = 0o644
			hdr.Size = int64(len(b))
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			_, err = tw.Write(b)
			return err
		}
		log.Warnf("not packing '%s': not a regular file", p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("unable to pack '%s': %w", dir, err)
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
