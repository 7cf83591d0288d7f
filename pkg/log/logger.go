// Copyright 2021-2025 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log is the logging front end shared by the ttfwtools commands and
// packages. Library code logs through the package functions so that commands
// can swap DefaultLogger or raise verbosity in one place.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger describes a logger to be used in ttfwtools.
type Logger interface {
	// Debugf logs a message only shown in verbose mode.
	Debugf(format string, args ...interface{})

	// Infof logs an informational message.
	Infof(format string, args ...interface{})

	// Warnf logs an warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and immediately exits the application
	// with os.Exit.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger is the logger used by default everywhere within ttfwtools.
var DefaultLogger Logger

var root *logrus.Logger

func init() {
	root = logrus.New()
	root.SetOutput(os.Stderr)
	root.SetLevel(logrus.InfoLevel)
	root.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	DefaultLogger = logrusWrapper{entry: logrus.NewEntry(root)}
}

type logrusWrapper struct {
	entry *logrus.Entry
}

// Debugf implements Logger.
func (l logrusWrapper) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Infof implements Logger.
func (l logrusWrapper) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Warnf implements Logger.
func (l logrusWrapper) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Errorf implements Logger.
func (l logrusWrapper) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Fatalf implements Logger.
func (l logrusWrapper) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

// WithTool returns a Logger tagging every line with the command name.
func WithTool(name string) Logger {
	return logrusWrapper{entry: root.WithField("tool", name)}
}

// SetVerbose switches debug output on or off for the default logrus backend.
func SetVerbose(verbose bool) {
	if verbose {
		root.SetLevel(logrus.DebugLevel)
		return
	}
	root.SetLevel(logrus.InfoLevel)
}

// SetOutput redirects the default logrus backend.
func SetOutput(w io.Writer) {
	root.SetOutput(w)
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	DefaultLogger.Infof(format, args...)
}

// Warnf logs an warning message.
func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}

// Fatalf logs a fatal message and immediately exits the application
// with os.Exit (which is expected to be called by the DefaultLogger.Fatalf).
func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}
