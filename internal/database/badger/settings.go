// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package badger

import (
	"errors"
	"fmt"
	"path/filepath"
)

var errPathNotSet = errors.New("path is not set for an on disk database")

// Settings is the database settings.
type Settings struct {
	// Path is the database directory. It defaults to the current
	// directory and is ignored by in memory databases.
	Path string
	// InMemory keeps all the data in memory.
	InMemory *bool
}

// SetDefaults sets the default values on the settings.
func (s *Settings) SetDefaults() {
	if s.Path == "" && (s.InMemory == nil || !*s.InMemory) {
		s.Path = "."
	}
	if s.InMemory == nil {
		s.InMemory = ptrTo(false)
	}
}

// Validate validates the settings.
func (s Settings) Validate() error {
	if *s.InMemory {
		return nil
	}
	if s.Path == "" {
		return errPathNotSet
	}
	_, err := filepath.Abs(s.Path)
	if err != nil {
		return fmt.Errorf("changing path to absolute path: %w", err)
	}
	return nil
}

func ptrTo[T any](value T) *T { return &value }
