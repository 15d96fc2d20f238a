// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package state

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ChainSafe/rtapi/dot/types"
	"github.com/ChainSafe/rtapi/internal/database"
	"github.com/ChainSafe/rtapi/lib/common"
	"github.com/ChainSafe/rtapi/pkg/scale"
)

const blockPrefix = "block"

var (
	headerPrefix     = []byte("hdr") // headerPrefix + hash -> header
	blockBodyPrefix  = []byte("blb") // blockBodyPrefix + hash -> body
	headerHashPrefix = []byte("hsh") // headerHashPrefix + encodedBlockNum -> hash
	genesisHashKey   = []byte("genesis")
	bestBlockHashKey = []byte("best")
)

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func decodeBlockNumber(enc []byte) uint64 {
	return binary.BigEndian.Uint64(enc)
}

func headerKey(hash common.Hash) []byte {
	return database.PrefixedKey(headerPrefix, hash[:])
}

func headerHashKey(number uint64) []byte {
	return database.PrefixedKey(headerHashPrefix, encodeBlockNumber(number))
}

func blockBodyKey(hash common.Hash) []byte {
	return database.PrefixedKey(blockBodyPrefix, hash[:])
}

// BlockState stores block headers and bodies, and tracks the canonical
// chain as the chain of the best block.
type BlockState struct {
	db database.Table
	// mtx serialises block additions.
	mtx sync.Mutex
}

// NewBlockState returns the block state stored in the database.
func NewBlockState(db database.Database) *BlockState {
	return &BlockState{db: db.NewTable(blockPrefix)}
}

func (bs *BlockState) setGenesis(header *types.Header) error {
	hash := header.Hash()
	batch := bs.db.NewWriteBatch()
	err := bs.writeBlock(batch, &types.Block{Header: *header, Body: types.Body{}})
	if err != nil {
		batch.Cancel()
		return err
	}
	for _, key := range [][]byte{genesisHashKey, bestBlockHashKey, headerHashKey(0)} {
		err = batch.Set(key, hash[:])
		if err != nil {
			batch.Cancel()
			return err
		}
	}
	return batch.Flush()
}

// GenesisHash returns the hash of the genesis block.
func (bs *BlockState) GenesisHash() (common.Hash, error) {
	return bs.getHash(genesisHashKey)
}

// BestBlockHash returns the hash of the best block.
func (bs *BlockState) BestBlockHash() (common.Hash, error) {
	return bs.getHash(bestBlockHashKey)
}

// BestBlockHeader returns the header of the best block.
func (bs *BlockState) BestBlockHeader() (*types.Header, error) {
	hash, err := bs.BestBlockHash()
	if err != nil {
		return nil, err
	}
	return bs.GetHeaderByHash(hash)
}

func (bs *BlockState) getHash(key []byte) (hash common.Hash, err error) {
	enc, err := bs.db.Get(key)
	if err != nil {
		return hash, err
	}
	return common.NewHash(enc), nil
}

// GetHashByNumber returns the hash of the canonical block at the number.
func (bs *BlockState) GetHashByNumber(number uint64) (common.Hash, error) {
	return bs.getHash(headerHashKey(number))
}

// Resolve returns the hash of the block the id refers to.
func (bs *BlockState) Resolve(id types.BlockID) (common.Hash, error) {
	if hash, ok := id.Hash(); ok {
		return hash, nil
	}
	number, _ := id.Number()
	return bs.GetHashByNumber(number)
}

// GetHeader returns the header of the block the id refers to.
func (bs *BlockState) GetHeader(id types.BlockID) (*types.Header, error) {
	hash, err := bs.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", id, err)
	}
	return bs.GetHeaderByHash(hash)
}

// GetHeaderByHash returns the header of the block with the hash.
func (bs *BlockState) GetHeaderByHash(hash common.Hash) (*types.Header, error) {
	enc, err := bs.db.Get(headerKey(hash))
	if err != nil {
		return nil, fmt.Errorf("getting header %s: %w", hash, err)
	}
	header := types.NewEmptyHeader()
	err = scale.Unmarshal(enc, header)
	if err != nil {
		return nil, fmt.Errorf("decoding header %s: %w", hash, err)
	}
	return header, nil
}

// GetBlockBody returns the body of the block with the hash.
func (bs *BlockState) GetBlockBody(hash common.Hash) (types.Body, error) {
	enc, err := bs.db.Get(blockBodyKey(hash))
	if err != nil {
		return nil, fmt.Errorf("getting body %s: %w", hash, err)
	}
	var exts []types.Extrinsic
	err = scale.Unmarshal(enc, &exts)
	if err != nil {
		return nil, fmt.Errorf("decoding body %s: %w", hash, err)
	}
	return exts, nil
}

// GetBlock returns the block the id refers to.
func (bs *BlockState) GetBlock(id types.BlockID) (*types.Block, error) {
	header, err := bs.GetHeader(id)
	if err != nil {
		return nil, err
	}
	body, err := bs.GetBlockBody(header.Hash())
	if err != nil {
		return nil, err
	}
	block := types.NewBlock(*header, body)
	return &block, nil
}

// AddBlock stores a block whose parent is known. The block becomes the
// best block when it is higher than the current best block.
func (bs *BlockState) AddBlock(block *types.Block) error {
	bs.mtx.Lock()
	defer bs.mtx.Unlock()

	parent, err := bs.GetHeaderByHash(block.Header.ParentHash)
	if err != nil {
		return fmt.Errorf("getting parent: %w", err)
	}
	if block.Header.Number != parent.Number+1 {
		return fmt.Errorf("%w: block number %d with parent number %d",
			ErrBadBlockNumber, block.Header.Number, parent.Number)
	}
	best, err := bs.BestBlockHeader()
	if err != nil {
		return fmt.Errorf("getting best block: %w", err)
	}

	hash := block.Header.Hash()
	batch := bs.db.NewWriteBatch()
	err = bs.writeBlock(batch, block)
	if err != nil {
		batch.Cancel()
		return err
	}
	if block.Header.Number > best.Number {
		err = bs.reorganise(batch, block.Header.ParentHash, block.Header.Number-1)
		if err != nil {
			batch.Cancel()
			return err
		}
		err = batch.Set(headerHashKey(block.Header.Number), hash[:])
		if err == nil {
			err = batch.Set(bestBlockHashKey, hash[:])
		}
		if err != nil {
			batch.Cancel()
			return err
		}
	}
	err = batch.Flush()
	if err != nil {
		return err
	}

	logger.Debugf("added block #%d (%s)", block.Header.Number, hash)
	return nil
}

func (bs *BlockState) writeBlock(batch database.WriteBatch, block *types.Block) error {
	hash := block.Header.Hash()
	header, err := scale.Marshal(block.Header)
	if err != nil {
		return err
	}
	body, err := scale.Marshal([]types.Extrinsic(block.Body))
	if err != nil {
		return err
	}
	err = batch.Set(headerKey(hash), header)
	if err != nil {
		return err
	}
	return batch.Set(blockBodyKey(hash), body)
}

// reorganise points the canonical numbers at the ancestors of a new best
// block, walking back from its parent until the chains meet.
func (bs *BlockState) reorganise(batch database.WriteBatch, hash common.Hash, number uint64) error {
	for {
		canonical, err := bs.GetHashByNumber(number)
		if err != nil {
			return fmt.Errorf("getting canonical hash at #%d: %w", number, err)
		}
		if canonical == hash {
			return nil
		}
		err = batch.Set(headerHashKey(number), hash[:])
		if err != nil {
			return err
		}
		header, err := bs.GetHeaderByHash(hash)
		if err != nil {
			return err
		}
		hash, number = header.ParentHash, number-1
	}
}
