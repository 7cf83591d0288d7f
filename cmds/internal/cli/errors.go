// Copyright 2017-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"

	"github.com/tenstorrent/ttfwtools/pkg/fwerrors"
)

// ErrArgs means arguments are invalid
type ErrArgs struct {
	Err error
}

func (err ErrArgs) Error() string {
	return fmt.Sprintf("invalid arguments: %v", err.Err)
}

func (err ErrArgs) Unwrap() error {
	return err.Err
}

// ExitCode maps an error returned by a verb or by the flags parser onto a
// sysexits code.
func ExitCode(err error) int {
	var flagsErr *flags.Error
	switch {
	case err == nil:
		return fwerrors.ExOK
	case errors.As(err, &flagsErr):
		if flagsErr.Type == flags.ErrHelp {
			return fwerrors.ExOK
		}
		return fwerrors.ExUsage
	case errors.As(err, &ErrArgs{}):
		return fwerrors.ExUsage
	}
	return fwerrors.ExitCode(err)
}
