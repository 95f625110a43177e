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

// Package miner implements the development sealer: pending transactions are
// executed on top of the chain head and written as a new block, either as
// soon as they arrive or once per recommit interval.
package miner

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/metrics"
	"github.com/tos-network/todochain/params"
)

var (
	// ErrAlreadyKnown is returned if the transaction is already pending.
	ErrAlreadyKnown = errors.New("already known")

	// ErrInvalidSender is returned if the transaction signature does not
	// recover to a sender.
	ErrInvalidSender = errors.New("invalid sender")
)

var (
	sealedBlockMeter = metrics.NewRegisteredMeter("miner/sealed", nil)
	droppedTxMeter   = metrics.NewRegisteredMeter("miner/dropped", nil)
	pendingGauge     = metrics.NewRegisteredGauge("miner/pending", nil)
)

// Config is the configuration parameters of mining.
type Config struct {
	Coinbase common.Address `toml:",omitempty"` // Public address for block sealing rewards
	GasCeil  uint64         // Target gas ceiling for sealed blocks
	Recommit time.Duration  // Sealing interval; zero seals as soon as a transaction arrives
}

// DefaultConfig contains the default sealing settings.
var DefaultConfig = Config{
	GasCeil: params.GenesisGasLimit,
}

// Miner holds the pending transactions and seals them into blocks.
type Miner struct {
	config Config
	chain  *core.BlockChain
	signer types.Signer

	mu      sync.Mutex // protects pending and the sealing of blocks
	pending types.Transactions
	known   map[common.Hash]struct{}

	newTxCh chan struct{}
}

// New creates a sealer working on top of chain.
func New(chain *core.BlockChain, config Config) *Miner {
	if config.GasCeil == 0 {
		config.GasCeil = DefaultConfig.GasCeil
	}
	return &Miner{
		config:  config,
		chain:   chain,
		signer:  types.MakeSigner(chain.Config()),
		known:   make(map[common.Hash]struct{}),
		newTxCh: make(chan struct{}, 1),
	}
}

// Coinbase returns the address receiving transaction fees.
func (m *Miner) Coinbase() common.Address { return m.config.Coinbase }

// AddTx validates tx against the head state and the pending set and queues it
// for the next block.
func (m *Miner) AddTx(tx *types.Transaction) error {
	from, err := types.Sender(m.signer, tx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSender, err)
	}
	if tx.Gas() > m.config.GasCeil {
		return fmt.Errorf("%w: tx gas %d, ceiling %d", core.ErrGasLimitReached, tx.Gas(), m.config.GasCeil)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.known[tx.Hash()]; ok {
		return ErrAlreadyKnown
	}
	next, err := m.pendingNonce(from)
	if err != nil {
		return err
	}
	switch {
	case tx.Nonce() < next:
		return fmt.Errorf("%w: address %v, tx: %d next: %d", core.ErrNonceTooLow, from.Hex(), tx.Nonce(), next)
	case tx.Nonce() > next:
		return fmt.Errorf("%w: address %v, tx: %d next: %d", core.ErrNonceTooHigh, from.Hex(), tx.Nonce(), next)
	}
	m.pending = append(m.pending, tx)
	m.known[tx.Hash()] = struct{}{}
	pendingGauge.Update(int64(len(m.pending)))
	log.Debug("Queued transaction", "hash", tx.Hash(), "from", from, "nonce", tx.Nonce())

	select {
	case m.newTxCh <- struct{}{}:
	default:
	}
	return nil
}

// PendingNonce returns the next nonce of addr, counting queued transactions.
func (m *Miner) PendingNonce(addr common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingNonce(addr)
}

func (m *Miner) pendingNonce(addr common.Address) (uint64, error) {
	statedb, err := m.chain.State()
	if err != nil {
		return 0, err
	}
	nonce := statedb.GetNonce(addr)
	for _, tx := range m.pending {
		if from, _ := types.Sender(m.signer, tx); from == addr {
			nonce++
		}
	}
	return nonce, nil
}

// Pending returns a copy of the queued transactions.
func (m *Miner) Pending() types.Transactions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(types.Transactions(nil), m.pending...)
}

// PendingState returns the head state with the queued transactions applied,
// together with the header of the block they would be sealed in. The state
// is a private copy; callers may mutate it freely.
func (m *Miner) PendingState() (*types.Header, *state.StateDB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statedb, err := m.chain.State()
	if err != nil {
		return nil, nil, err
	}
	parent := m.chain.CurrentHeader()
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		GasLimit:   m.config.GasCeil,
		Time:       parent.Time + 1,
		Coinbase:   m.config.Coinbase,
	}
	var (
		gp      = new(core.GasPool).AddGas(header.GasLimit)
		usedGas uint64
	)
	for i, tx := range m.pending {
		statedb.Prepare(tx.Hash(), i)
		if _, err := core.ApplyTransaction(m.chain.Config(), m.chain, &header.Coinbase, gp, statedb, header, tx, &usedGas); err != nil {
			return nil, nil, err
		}
	}
	return header, statedb, nil
}

// Seal executes every pending transaction and writes the result as the new
// head block. A block is sealed even when nothing is pending. Transactions
// that cannot be included are dropped.
func (m *Miner) Seal() (*types.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.pending
	m.pending = nil
	m.known = make(map[common.Hash]struct{})
	pendingGauge.Update(0)
	return m.commit(txs)
}

func (m *Miner) commit(txs types.Transactions) (*types.Block, error) {
	parent := m.chain.CurrentBlock()
	statedb, err := m.chain.State()
	if err != nil {
		return nil, err
	}
	timestamp := uint64(time.Now().Unix())
	if timestamp <= parent.Time() {
		timestamp = parent.Time() + 1
	}
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number(), big.NewInt(1)),
		GasLimit:   m.config.GasCeil,
		Time:       timestamp,
		Coinbase:   m.config.Coinbase,
	}
	var (
		gp       = new(core.GasPool).AddGas(header.GasLimit)
		usedGas  uint64
		included types.Transactions
		receipts types.Receipts
		logs     []*types.Log
	)
	for _, tx := range txs {
		var (
			snap  = statedb.Snapshot()
			gas   = *gp
			index = len(included)
		)
		statedb.Prepare(tx.Hash(), index)
		receipt, err := core.ApplyTransaction(m.chain.Config(), m.chain, &header.Coinbase, gp, statedb, header, tx, &usedGas)
		if err != nil {
			statedb.RevertToSnapshot(snap)
			*gp = gas
			droppedTxMeter.Mark(1)
			log.Warn("Dropping transaction", "hash", tx.Hash(), "err", err)
			continue
		}
		included = append(included, tx)
		receipts = append(receipts, receipt)
		logs = append(logs, receipt.Logs...)
	}
	header.GasUsed = usedGas
	if header.Root, err = statedb.IntermediateRoot(); err != nil {
		return nil, err
	}
	block := types.NewBlock(header, included, receipts)
	if err := m.chain.WriteBlockAndSetHead(block, receipts, logs, statedb); err != nil {
		return nil, err
	}
	sealedBlockMeter.Mark(1)
	log.Info("Sealed new block", "number", block.Number(), "hash", block.Hash(), "txs", len(included), "gas", usedGas)
	return block, nil
}

// Loop seals pending transactions until ctx is cancelled. Without a recommit
// interval every arriving transaction triggers a block.
func (m *Miner) Loop(ctx context.Context) error {
	var tick <-chan time.Time
	if m.config.Recommit > 0 {
		ticker := time.NewTicker(m.config.Recommit)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.newTxCh:
			if tick != nil {
				continue
			}
		case <-tick:
		}
		if len(m.Pending()) == 0 {
			continue
		}
		if _, err := m.Seal(); err != nil {
			log.Error("Failed to seal block", "err", err)
		}
	}
}
