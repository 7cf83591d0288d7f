// Copyright 2017-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"github.com/jessevdk/go-flags"
)

// Command is an interface of implementations of verbs
// (like "mkfs" of "ttbootfs mkfs" or "create" of "ttfwbundle create")
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line
	ShortDescription() string

	// LongDescription explains what this verb does (without limitation in amount of lines)
	LongDescription() string
}
