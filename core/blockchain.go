// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package core implements the ledger: block processing, the canonical chain
// and the genesis.
package core

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/tosdb"
)

const (
	receiptsCacheLimit = 32
	blockCacheLimit    = 256
)

var errChainStopped = errors.New("blockchain is stopped")

// BlockChain represents the canonical chain given a database with a genesis
// block. Blocks are only ever appended on top of the current head: the dev
// sealer is the single block producer, so there are no side chains.
type BlockChain struct {
	chainConfig *params.ChainConfig // Chain & network configuration

	db         tosdb.Database // Low level persistent database to store final content in
	stateCache state.Database // State database to reuse between imports (contains state cache)
	processor  *StateProcessor

	genesisBlock *types.Block
	currentBlock atomic.Value // Current head of the block chain

	chainmu sync.Mutex // blockchain insertion lock

	receiptsCache *lru.Cache // Cache for the most recent receipts per block
	blockCache    *lru.Cache // Cache for the most recent entire blocks

	logsFeed      event.Feed[[]*types.Log]
	chainHeadFeed event.Feed[ChainHeadEvent]
	scope         event.SubscriptionScope

	running int32 // 0 if chain is running, 1 when stopped
}

// NewBlockChain returns a fully initialised block chain using information
// available in the database. A nil genesis uses the stored one, or the dev
// genesis on an empty database.
func NewBlockChain(db tosdb.Database, genesis *Genesis) (*BlockChain, error) {
	chainConfig, genesisHash, err := SetupGenesisBlock(db, genesis)
	if err != nil {
		if _, ok := err.(*params.ConfigCompatError); ok {
			log.Warn("Stored chain configuration is incompatible", "err", err)
		}
		return nil, err
	}
	log.Info("Initialised chain configuration", "config", chainConfig)

	receiptsCache, _ := lru.New(receiptsCacheLimit)
	blockCache, _ := lru.New(blockCacheLimit)
	bc := &BlockChain{
		chainConfig:   chainConfig,
		db:            db,
		stateCache:    state.NewDatabase(db),
		receiptsCache: receiptsCache,
		blockCache:    blockCache,
	}
	bc.processor = NewStateProcessor(chainConfig, bc)

	bc.genesisBlock = bc.GetBlockByHash(genesisHash)
	if bc.genesisBlock == nil {
		return nil, ErrNoGenesis
	}
	if err := bc.loadLastState(); err != nil {
		return nil, err
	}
	return bc, nil
}

// loadLastState loads the last known chain state from the database.
func (bc *BlockChain) loadLastState() error {
	head := rawdb.ReadHeadBlockHash(bc.db)
	if head == (common.Hash{}) {
		log.Warn("Empty database, resetting chain")
		bc.currentBlock.Store(bc.genesisBlock)
		return nil
	}
	currentBlock := bc.GetBlockByHash(head)
	if currentBlock == nil {
		return fmt.Errorf("head block %x missing", head)
	}
	if root := rawdb.ReadStateRoot(bc.db); root != currentBlock.Root() {
		return fmt.Errorf("%w: head state %x, stored state %x", ErrBadStateRoot, currentBlock.Root(), root)
	}
	bc.currentBlock.Store(currentBlock)
	headBlockGauge.Update(int64(currentBlock.NumberU64()))
	log.Info("Loaded most recent local block", "number", currentBlock.Number(), "hash", currentBlock.Hash(), "root", currentBlock.Root())
	return nil
}

// Config retrieves the chain's fork configuration.
func (bc *BlockChain) Config() *params.ChainConfig { return bc.chainConfig }

// Genesis retrieves the chain's genesis block.
func (bc *BlockChain) Genesis() *types.Block { return bc.genesisBlock }

// CurrentBlock retrieves the current head block of the canonical chain.
func (bc *BlockChain) CurrentBlock() *types.Block {
	return bc.currentBlock.Load().(*types.Block)
}

// CurrentHeader retrieves the current head header of the canonical chain.
func (bc *BlockChain) CurrentHeader() *types.Header {
	return bc.CurrentBlock().Header()
}

// Processor returns the current processor.
func (bc *BlockChain) Processor() *StateProcessor { return bc.processor }

// StateCache returns the caching database underpinning the blockchain instance.
func (bc *BlockChain) StateCache() state.Database { return bc.stateCache }

// State returns a new mutable state based on the current HEAD block.
func (bc *BlockChain) State() (*state.StateDB, error) {
	return bc.StateAt(bc.CurrentBlock().Root())
}

// StateAt returns a new mutable state based on a particular point in time.
// Only the head state is retained.
func (bc *BlockChain) StateAt(root common.Hash) (*state.StateDB, error) {
	return state.New(root, bc.stateCache)
}

// GetHeader retrieves a block header from the database by hash and number.
func (bc *BlockChain) GetHeader(hash common.Hash, number uint64) *types.Header {
	if block, ok := bc.blockCache.Get(hash); ok {
		return block.(*types.Block).Header()
	}
	return rawdb.ReadHeader(bc.db, hash, number)
}

// GetHeaderByNumber retrieves a canonical block header from the database by number.
func (bc *BlockChain) GetHeaderByNumber(number uint64) *types.Header {
	hash := rawdb.ReadCanonicalHash(bc.db, number)
	if hash == (common.Hash{}) {
		return nil
	}
	return bc.GetHeader(hash, number)
}

// GetBlock retrieves a block from the database by hash and number,
// caching it if found.
func (bc *BlockChain) GetBlock(hash common.Hash, number uint64) *types.Block {
	// Short circuit if the block's already in the cache, retrieve otherwise
	if block, ok := bc.blockCache.Get(hash); ok {
		return block.(*types.Block)
	}
	block := rawdb.ReadBlock(bc.db, hash, number)
	if block == nil {
		return nil
	}
	// Cache the found block for next time and return
	bc.blockCache.Add(block.Hash(), block)
	return block
}

// GetBlockByHash retrieves a block from the database by hash, caching it if found.
func (bc *BlockChain) GetBlockByHash(hash common.Hash) *types.Block {
	number := rawdb.ReadHeaderNumber(bc.db, hash)
	if number == nil {
		return nil
	}
	return bc.GetBlock(hash, *number)
}

// GetBlockByNumber retrieves a block from the database by number, caching it
// (associated with its hash) if found.
func (bc *BlockChain) GetBlockByNumber(number uint64) *types.Block {
	hash := rawdb.ReadCanonicalHash(bc.db, number)
	if hash == (common.Hash{}) {
		return nil
	}
	return bc.GetBlock(hash, number)
}

// GetReceiptsByHash retrieves the receipts for all transactions in a given block.
func (bc *BlockChain) GetReceiptsByHash(hash common.Hash) types.Receipts {
	if receipts, ok := bc.receiptsCache.Get(hash); ok {
		receiptCacheHitMeter.Mark(1)
		return receipts.(types.Receipts)
	}
	number := rawdb.ReadHeaderNumber(bc.db, hash)
	if number == nil {
		return nil
	}
	receipts := rawdb.ReadReceipts(bc.db, hash, *number)
	if receipts == nil {
		return nil
	}
	bc.receiptsCache.Add(hash, receipts)
	return receipts
}

// GetTransactionReceipt retrieves the receipt of a canonical transaction.
func (bc *BlockChain) GetTransactionReceipt(txHash common.Hash) *types.Receipt {
	number := rawdb.ReadTxLookupEntry(bc.db, txHash)
	if number == nil {
		return nil
	}
	hash := rawdb.ReadCanonicalHash(bc.db, *number)
	for _, receipt := range bc.GetReceiptsByHash(hash) {
		if receipt.TxHash == txHash {
			return receipt
		}
	}
	return nil
}

// GetTransaction retrieves a canonical transaction and its inclusion block.
func (bc *BlockChain) GetTransaction(txHash common.Hash) (*types.Transaction, common.Hash, uint64) {
	number := rawdb.ReadTxLookupEntry(bc.db, txHash)
	if number == nil {
		return nil, common.Hash{}, 0
	}
	block := bc.GetBlockByNumber(*number)
	if block == nil {
		return nil, common.Hash{}, 0
	}
	return block.Transaction(txHash), block.Hash(), *number
}

// InsertBlock validates and imports a block on top of the current head. The
// block is re-executed; its receipt commitment and state root must match.
func (bc *BlockChain) InsertBlock(block *types.Block) error {
	if atomic.LoadInt32(&bc.running) == 1 {
		return errChainStopped
	}
	bc.chainmu.Lock()
	defer bc.chainmu.Unlock()
	defer blockInsertTimer.UpdateSince(time.Now())

	head := bc.CurrentBlock()
	if bc.GetBlockByHash(block.Hash()) != nil {
		return ErrKnownBlock
	}
	if block.ParentHash() != head.Hash() {
		return fmt.Errorf("%w: parent %x, head %x", ErrUnknownAncestor, block.ParentHash(), head.Hash())
	}
	if block.NumberU64() != head.NumberU64()+1 {
		return fmt.Errorf("%w: have %d, want %d", ErrInvalidNumber, block.NumberU64(), head.NumberU64()+1)
	}
	statedb, err := bc.StateAt(head.Root())
	if err != nil {
		return err
	}
	receipts, logs, usedGas, err := bc.processor.Process(block, statedb)
	if err != nil {
		return err
	}
	if usedGas != block.GasUsed() {
		return fmt.Errorf("invalid gas used (remote: %d local: %d)", block.GasUsed(), usedGas)
	}
	if hash := types.DeriveSha(receipts); hash != block.ReceiptHash() {
		return fmt.Errorf("%w (remote: %x local: %x)", ErrBadReceiptHash, block.ReceiptHash(), hash)
	}
	root, err := statedb.IntermediateRoot()
	if err != nil {
		return err
	}
	if root != block.Root() {
		return fmt.Errorf("%w (remote: %x local: %x)", ErrBadStateRoot, block.Root(), root)
	}
	return bc.writeBlockWithState(block, receipts, logs, statedb)
}

// WriteBlockAndSetHead writes a locally sealed block together with the state
// it was built on and makes it the new head.
func (bc *BlockChain) WriteBlockAndSetHead(block *types.Block, receipts []*types.Receipt, logs []*types.Log, statedb *state.StateDB) error {
	if atomic.LoadInt32(&bc.running) == 1 {
		return errChainStopped
	}
	bc.chainmu.Lock()
	defer bc.chainmu.Unlock()

	if block.ParentHash() != bc.CurrentBlock().Hash() {
		return fmt.Errorf("%w: parent %x", ErrUnknownAncestor, block.ParentHash())
	}
	return bc.writeBlockWithState(block, receipts, logs, statedb)
}

// writeBlockWithState commits the state and writes the block, receipts and
// lookup entries, then advances the head. It expects chainmu to be held.
func (bc *BlockChain) writeBlockWithState(block *types.Block, receipts types.Receipts, logs []*types.Log, statedb *state.StateDB) error {
	start := time.Now()
	root, err := statedb.Commit()
	if err != nil {
		return err
	}
	if root != block.Root() {
		return fmt.Errorf("%w (remote: %x local: %x)", ErrBadStateRoot, block.Root(), root)
	}
	// Positional fields can only be derived now that the block hash is final.
	if err := receipts.DeriveFields(block.Hash(), block.NumberU64(), block.Transactions()); err != nil {
		return err
	}
	batch := bc.db.NewBatch()
	rawdb.WriteBlock(batch, block)
	rawdb.WriteReceipts(batch, block.Hash(), block.NumberU64(), receipts)
	rawdb.WriteTxLookupEntriesByBlock(batch, block)
	rawdb.WriteCanonicalHash(batch, block.Hash(), block.NumberU64())
	rawdb.WriteHeadBlockHash(batch, block.Hash())
	if err := batch.Write(); err != nil {
		log.Crit("Failed to write block into disk", "err", err)
	}
	blockCommitTimer.UpdateSince(start)

	bc.blockCache.Add(block.Hash(), block)
	bc.receiptsCache.Add(block.Hash(), receipts)
	bc.currentBlock.Store(block)
	headBlockGauge.Update(int64(block.NumberU64()))

	log.Info("Imported new block", "number", block.Number(), "hash", block.Hash(),
		"txs", len(block.Transactions()), "gas", block.GasUsed(), "elapsed", time.Since(start))

	bc.chainHeadFeed.Send(ChainHeadEvent{Block: block})
	if len(logs) > 0 {
		bc.logsFeed.Send(logs)
	}
	return nil
}

// SubscribeLogsEvent registers a subscription of the logs of every new head
// block.
func (bc *BlockChain) SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription {
	return bc.scope.Track(bc.logsFeed.Subscribe(ch))
}

// SubscribeChainHeadEvent registers a subscription of ChainHeadEvent.
func (bc *BlockChain) SubscribeChainHeadEvent(ch chan<- ChainHeadEvent) event.Subscription {
	return bc.scope.Track(bc.chainHeadFeed.Subscribe(ch))
}

// Stop stops the blockchain service and closes all subscriptions.
func (bc *BlockChain) Stop() {
	if !atomic.CompareAndSwapInt32(&bc.running, 0, 1) {
		return
	}
	bc.scope.Close()
	bc.chainmu.Lock()
	defer bc.chainmu.Unlock()
	log.Info("Blockchain stopped")
}
