// Package glog keeps the leveled logging calls used across the tree
// (glog.V(n).Infof, glog.Errorf, ...) and routes them to github.com/golang/glog.
package glog

import (
	"fmt"

	upstream "github.com/golang/glog"
)

type Level = upstream.Level

// Verbose guards a log call on the -v flag, see V.
type Verbose bool

// V reports whether verbosity at the call site is at least the requested level.
func V(level Level) Verbose {
	return Verbose(upstream.VDepth(1, level))
}

func (v Verbose) Info(args ...interface{}) {
	if v {
		upstream.InfoDepth(1, args...)
	}
}

func (v Verbose) Infoln(args ...interface{}) {
	if v {
		upstream.InfoDepth(1, fmt.Sprintln(args...))
	}
}

func (v Verbose) Infof(format string, args ...interface{}) {
	if v {
		upstream.InfoDepthf(1, format, args...)
	}
}

func Info(args ...interface{}) {
	upstream.InfoDepth(1, args...)
}

func Infof(format string, args ...interface{}) {
	upstream.InfoDepthf(1, format, args...)
}

func Warning(args ...interface{}) {
	upstream.WarningDepth(1, args...)
}

func Warningf(format string, args ...interface{}) {
	upstream.WarningDepthf(1, format, args...)
}

func Error(args ...interface{}) {
	upstream.ErrorDepth(1, args...)
}

func Errorf(format string, args ...interface{}) {
	upstream.ErrorDepthf(1, format, args...)
}

// Fatalf logs to the FATAL log and exits the process.
func Fatalf(format string, args ...interface{}) {
	upstream.FatalDepthf(1, format, args...)
}

// Flush writes any buffered log lines to their files.
func Flush() {
	upstream.Flush()
}
