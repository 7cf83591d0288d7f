// Copyright 2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fwerrors defines the error taxonomy shared by the boot filesystem
// codec, the bundle tooling and the field-patch driver, and maps it onto
// POSIX sysexits codes for the command line tools.
package fwerrors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Exit codes from sysexits.h.
const (
	ExOK       = 0
	ExUsage    = 64
	ExDataErr  = 65
	ExNoInput  = 66
	ExSoftware = 70
	ExIOErr    = 74
	ExConfig   = 78
)

// FormatError means an image or transport encoding cannot be trusted:
// checksum mismatch, malformed descriptor, duplicate tag, out of range entry.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error: %s: %v", e.Msg, e.Err)
	}
	return "format error: " + e.Msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError means a caller supplied value is outside of its domain.
// It is always raised before any file is touched.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid value: " + e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NotFoundError means a requested board or entry tag is absent.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// VerificationError means a post-write readback does not hold the intended
// value. The artifact it refers to must be discarded.
type VerificationError struct {
	Board string
	Field string
	Got   interface{}
	Want  interface{}
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for board %q: %s is %v, expected %v",
		e.Board, e.Field, e.Got, e.Want)
}

// Formatf builds a FormatError.
func Formatf(format string, args ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// Invalidf builds a ValidationError for field.
func Invalidf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps err onto a sysexits code.
func ExitCode(err error) int {
	if err == nil {
		return ExOK
	}
	var (
		formatErr *FormatError
		validErr  *ValidationError
		notFound  *NotFoundError
		verifyErr *VerificationError
	)
	switch {
	case errors.As(err, &formatErr),
		errors.As(err, &validErr),
		errors.As(err, &notFound),
		errors.As(err, &verifyErr):
		return ExDataErr
	case errors.Is(err, fs.ErrNotExist):
		return ExNoInput
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ExIOErr
	}
	return ExSoftware
}
