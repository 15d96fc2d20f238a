// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"errors"
	"fmt"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/database"
	"github.com/ChainSafe/rtapi/internal/database/badger"
	"github.com/ChainSafe/rtapi/internal/database/memory"
	"github.com/ChainSafe/rtapi/internal/log"
	"github.com/ChainSafe/rtapi/lib/runtime/storage"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "state"))

var (
	// ErrNotInitialised is returned when starting a service on a database
	// without a genesis block.
	ErrNotInitialised = errors.New("state not initialised")
	// ErrAlreadyInitialised is returned when initialising a database
	// holding a genesis block.
	ErrAlreadyInitialised = errors.New("state already initialised")
)

// Database backends.
const (
	BadgerDatabase = "badger"
	MemoryDatabase = "memory"
)

// Config is the configuration of the state service.
type Config struct {
	// Path is the database directory, ignored by the memory database.
	Path string
	// Database is the database backend, BadgerDatabase by default.
	Database string
	LogLevel log.Level
}

// Service holds the block, storage and grandpa states over one database.
type Service struct {
	db      database.Database
	Block   *BlockState
	Storage *StorageState
	Grandpa *GrandpaState
}

// NewService opens the database described by the configuration.
func NewService(config Config) (*Service, error) {
	logger.Patch(log.SetLevel(config.LogLevel))

	var db database.Database
	switch config.Database {
	case "", BadgerDatabase:
		badgerDB, err := badger.New(badger.Settings{Path: config.Path})
		if err != nil {
			return nil, fmt.Errorf("creating badger database: %w", err)
		}
		db = badgerDB
	case MemoryDatabase:
		db = memory.New()
	default:
		return nil, fmt.Errorf("unknown database backend: %q", config.Database)
	}

	blockState := NewBlockState(db)
	return &Service{
		db:      db,
		Block:   blockState,
		Storage: NewStorageState(db, blockState),
		Grandpa: NewGrandpaState(db),
	}, nil
}

// Initialise writes the genesis block, its state and the genesis grandpa
// authority set.
func (s *Service) Initialise(genesis *types.Header, entries map[string][]byte,
	grandpaAuthorities []types.GrandpaAuthoritiesRaw) error {
	_, err := s.Block.GenesisHash()
	if err == nil {
		return ErrAlreadyInitialised
	} else if !errors.Is(err, database.ErrKeyNotFound) {
		return fmt.Errorf("reading genesis hash: %w", err)
	}

	hash := genesis.Hash()
	err = s.Storage.storeEntries(hash, entries)
	if err != nil {
		return fmt.Errorf("storing genesis state: %w", err)
	}
	err = s.Grandpa.setCurrentSet(types.GrandpaSet{SetID: 0, Authorities: grandpaAuthorities})
	if err != nil {
		return fmt.Errorf("storing genesis authorities: %w", err)
	}
	err = s.Block.setGenesis(genesis)
	if err != nil {
		return fmt.Errorf("storing genesis block: %w", err)
	}

	logger.Infof("initialised state with genesis block %s", hash)
	return nil
}

// Start checks the database holds an initialised chain.
func (s *Service) Start() error {
	genesis, err := s.Block.GenesisHash()
	if errors.Is(err, database.ErrKeyNotFound) {
		return ErrNotInitialised
	} else if err != nil {
		return fmt.Errorf("reading genesis hash: %w", err)
	}

	best, err := s.Block.BestBlockHeader()
	if err != nil {
		return fmt.Errorf("reading best block: %w", err)
	}
	logger.Infof("started state with genesis %s and best block #%d (%s)",
		genesis, best.Number, best.Hash())
	return nil
}

// Stop closes the database.
func (s *Service) Stop() error {
	return s.db.Close()
}

// ImportBlock stores the block with its post state, made of the changes
// applied to the parent state. The state root must match the header.
func (s *Service) ImportBlock(block *types.Block, changes []storage.Change) error {
	hash := block.Header.Hash()
	root, err := s.Storage.StoreChanges(block.Header.ParentHash, hash, changes)
	if err != nil {
		return fmt.Errorf("storing state of block %s: %w", hash, err)
	}
	if root != block.Header.StateRoot {
		return fmt.Errorf("%w: state root %s does not match header state root %s",
			ErrBadStateRoot, root, block.Header.StateRoot)
	}

	err = s.Block.AddBlock(block)
	if err != nil {
		return fmt.Errorf("adding block %s: %w", hash, err)
	}
	return nil
}
