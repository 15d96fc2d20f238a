// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"path/filepath"
	"runtime"
	"strconv"
)

// callerDepth skips callerString, Logger.log and the exported log method.
const callerDepth = 3

// callerString returns the file:line of the code calling the logger.
func callerString() string {
	_, file, line, ok := runtime.Caller(callerDepth)
	if !ok {
		return "unknown"
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
