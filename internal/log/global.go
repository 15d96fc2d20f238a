// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

var globalLogger = New()

// NewFromGlobal creates a child logger from the global logger.
func NewFromGlobal(options ...Option) *Logger {
	return globalLogger.New(options...)
}

// Patch patches the global package logger.
func Patch(options ...Option) {
	globalLogger.Patch(options...)
}

// Infof formats and logs at the info level using the global logger.
func Infof(format string, args ...interface{}) {
	globalLogger.log(Info, format, args...)
}

// Errorf formats and logs at the eror level using the global logger.
func Errorf(format string, args ...interface{}) {
	globalLogger.log(Error, format, args...)
}
