// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/lib/runtime/native"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

// Runtime builds a chain can start with.
const (
	CurrentBuild = "current"
	LegacyBuild  = "legacy"
)

var (
	errNoGenesisState = errors.New("genesis has neither raw nor runtime state")
	errUnknownBuild   = errors.New("unknown runtime build")
)

// Genesis stores the data parsed from the genesis configuration file
type Genesis struct {
	Name       string         `json:"name"`
	ID         string         `json:"id"`
	ChainType  string         `json:"chainType"`
	Build      string         `json:"build,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Genesis    Fields         `json:"genesis"`
}

// Fields stores the genesis state, either raw hex encoded key value pairs or
// the human readable runtime configuration.
type Fields struct {
	Raw     map[string]string     `json:"raw,omitempty"`
	Runtime *native.GenesisConfig `json:"runtime,omitempty"`
}

// NewGenesisFromJSON parses a JSON formatted genesis file
func NewGenesisFromJSON(file string) (*Genesis, error) {
	fp, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(fp))
	if err != nil {
		return nil, err
	}

	g := new(Genesis)
	err = json.Unmarshal(data, g)
	if err != nil {
		return nil, fmt.Errorf("parsing genesis file %s: %w", file, err)
	}
	return g, nil
}

// WriteJSON writes the genesis as indented JSON to the file.
func (g *Genesis) WriteJSON(file string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, data, 0o600)
}

// Runtime returns the runtime build the chain starts with.
func (g *Genesis) Runtime() (*native.Runtime, error) {
	switch g.Build {
	case "", CurrentBuild:
		return native.New(native.CurrentVersion()), nil
	case LegacyBuild:
		return native.New(native.LegacyVersion()), nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownBuild, g.Build)
}

// Entries returns the genesis state.
func (g *Genesis) Entries() (map[string][]byte, error) {
	if g.Genesis.Raw != nil {
		entries := make(map[string][]byte, len(g.Genesis.Raw))
		for key, value := range g.Genesis.Raw {
			k, err := common.HexToBytes(key)
			if err != nil {
				return nil, fmt.Errorf("decoding raw key: %w", err)
			}
			v, err := common.HexToBytes(value)
			if err != nil {
				return nil, fmt.Errorf("decoding raw value of %s: %w", key, err)
			}
			entries[string(k)] = v
		}
		return entries, nil
	}

	if g.Genesis.Runtime == nil {
		return nil, errNoGenesisState
	}
	build, err := g.Runtime()
	if err != nil {
		return nil, err
	}
	return build.BuildStorage(*g.Genesis.Runtime)
}

// ToRaw replaces the runtime configuration with the raw state it builds.
func (g *Genesis) ToRaw() error {
	entries, err := g.Entries()
	if err != nil {
		return err
	}
	raw := make(map[string]string, len(entries))
	for key, value := range entries {
		raw[common.BytesToHex([]byte(key))] = common.BytesToHex(value)
	}
	g.Genesis = Fields{Raw: raw}
	return nil
}

// Header returns the genesis header committing to the state entries.
func Header(entries map[string][]byte) (*types.Header, error) {
	root, err := storage.StateRoot(entries)
	if err != nil {
		return nil, err
	}
	extrinsicsRoot, err := types.Body{}.ExtrinsicsRoot()
	if err != nil {
		return nil, err
	}
	return types.NewHeader(common.Hash{}, root, extrinsicsRoot, 0, types.NewDigest()), nil
}

// GrandpaAuthorities returns the genesis grandpa authority set stored in
// the state entries.
func GrandpaAuthorities(entries map[string][]byte) ([]types.GrandpaAuthoritiesRaw, error) {
	enc, ok := entries[string(native.GrandpaAuthoritiesKey)]
	if !ok {
		return nil, nil
	}
	var authorities []types.GrandpaAuthoritiesRaw
	err := scale.Unmarshal(enc, &authorities)
	if err != nil {
		return nil, fmt.Errorf("decoding grandpa authorities: %w", err)
	}
	return authorities, nil
}
