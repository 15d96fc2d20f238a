// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
	"os"
)

type settings struct {
	writer  io.Writer
	level   *Level
	colour  *bool
	caller  *bool
	context []contextKeyValues
}

type contextKeyValues struct {
	key    string
	values []string
}

func newSettings(options []Option) (settings settings) {
	for _, option := range options {
		option(&settings)
	}
	return settings
}

// mergeWith fills the unset values of the receiver with the values
// of the other settings. The context of other is placed first.
func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}

	if s.level == nil && other.level != nil {
		value := *other.level
		s.level = &value
	}

	if s.colour == nil && other.colour != nil {
		value := *other.colour
		s.colour = &value
	}

	if s.caller == nil && other.caller != nil {
		value := *other.caller
		s.caller = &value
	}

	// Parent context goes first.
	merged := make([]contextKeyValues, 0, len(s.context)+len(other.context))
	merged = append(merged, other.context...)
	for _, kv := range s.context {
		found := false
		for i := range merged {
			if merged[i].key == kv.key {
				merged[i].values = append(append([]string(nil), merged[i].values...), kv.values...)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, kv)
		}
	}
	s.context = merged
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}

	if s.level == nil {
		value := Info
		s.level = &value
	}

	if s.colour == nil {
		value := false
		s.colour = &value
	}

	if s.caller == nil {
		value := false
		s.caller = &value
	}
}
