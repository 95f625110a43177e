// Copyright 2015 The go-ethereum Authors
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

package backends

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/miner"
	"github.com/tos-network/todochain/params"
	_ "github.com/tos-network/todochain/todolist" // registers TODO_* handlers via init()
	"github.com/tos-network/todochain/tosdb/memorydb"
)

// This nil assignment ensures at compile time that SimulatedBackend implements bind.ContractBackend.
var _ bind.ContractBackend = (*SimulatedBackend)(nil)

var errUnknownSnapshot = errors.New("unknown snapshot")

// SimulatedCoinbase receives the fees of the blocks sealed by the backend.
var SimulatedCoinbase = common.HexToAddress("0xc014ba5ec014ba5ec014ba5ec014ba5ec014ba5e")

// SimulatedBackend implements bind.ContractBackend, simulating a blockchain in
// the background. Its main purpose is to allow for easy testing of contract
// bindings.
type SimulatedBackend struct {
	mu         sync.Mutex
	database   *memorydb.Database // In memory database to store our testing data
	blockchain *core.BlockChain   // Canonical chain of the simulated network
	miner      *miner.Miner       // Pending transactions and block sealing
	config     miner.Config

	autoCommit bool                 // Seal a block for every sent transaction
	snapshots  []*memorydb.Database // Checkpoints of the whole database
}

// NewSimulatedBackend creates a new binding backend using a simulated blockchain
// for testing purposes. A simulated backend always uses chainID 31337.
func NewSimulatedBackend(alloc core.GenesisAlloc, gasLimit uint64) *SimulatedBackend {
	database := memorydb.New()
	genesis := core.Genesis{Config: params.TestChainConfig, GasLimit: gasLimit, Alloc: alloc}
	genesis.MustCommit(database)

	backend := &SimulatedBackend{
		database: database,
		config:   miner.Config{Coinbase: SimulatedCoinbase, GasCeil: gasLimit},
	}
	if err := backend.reset(); err != nil {
		panic(err)
	}
	return backend
}

// reset rebuilds the chain and the sealer on top of the current database.
func (b *SimulatedBackend) reset() error {
	if b.blockchain != nil {
		b.blockchain.Stop()
	}
	blockchain, err := core.NewBlockChain(b.database, nil)
	if err != nil {
		return err
	}
	b.blockchain = blockchain
	b.miner = miner.New(blockchain, b.config)
	return nil
}

// Close terminates the underlying blockchain's update loop.
func (b *SimulatedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.blockchain.Stop()
	return nil
}

// SetAutoCommit makes every accepted transaction seal its own block, the way
// an automining development network behaves.
func (b *SimulatedBackend) SetAutoCommit(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.autoCommit = on
}

// Blockchain returns the underlying blockchain.
func (b *SimulatedBackend) Blockchain() *core.BlockChain {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.blockchain
}

// Commit imports all the pending transactions as a single block and starts a
// fresh new state.
func (b *SimulatedBackend) Commit() common.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()

	block, err := b.miner.Seal()
	if err != nil {
		panic(err) // This cannot happen unless the simulator is wrong, fail in that case
	}
	return block.Hash()
}

// Rollback aborts all pending transactions.
func (b *SimulatedBackend) Rollback() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.miner = miner.New(b.blockchain, b.config)
}

// Snapshot checkpoints the whole chain and returns an id for Revert. Pending
// transactions are not part of a snapshot.
func (b *SimulatedBackend) Snapshot() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.snapshots = append(b.snapshots, b.database.Copy())
	return len(b.snapshots) - 1
}

// Revert restores the chain to the snapshot id. Snapshots stay valid, so a
// fixture can be restored any number of times and in any order.
func (b *SimulatedBackend) Revert(id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id < 0 || id >= len(b.snapshots) {
		return fmt.Errorf("%w: %d", errUnknownSnapshot, id)
	}
	b.database = b.snapshots[id].Copy()
	log.Debug("Reverted simulated chain", "snapshot", id)
	return b.reset()
}

// CodeAt returns the code associated with a certain account in the blockchain.
func (b *SimulatedBackend) CodeAt(ctx context.Context, contract common.Address) ([]byte, error) {
	statedb, err := b.headState()
	if err != nil {
		return nil, err
	}
	return statedb.GetCode(contract), nil
}

// BalanceAt returns the wei balance of a certain account in the blockchain.
func (b *SimulatedBackend) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	statedb, err := b.headState()
	if err != nil {
		return nil, err
	}
	return statedb.GetBalance(account), nil
}

// NonceAt returns the nonce of a certain account in the blockchain.
func (b *SimulatedBackend) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	statedb, err := b.headState()
	if err != nil {
		return 0, err
	}
	return statedb.GetNonce(account), nil
}

// PendingNonceAt implements PendingStateReader.PendingNonceAt, retrieving
// the nonce currently pending for the account.
func (b *SimulatedBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.miner.PendingNonce(account)
}

// SuggestGasPrice implements ContractTransactor.SuggestGasPrice. Since the simulated
// chain doesn't have miners, we just return a gas price of 1 for any call.
func (b *SimulatedBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

// ChainID returns the chain id of the simulated network.
func (b *SimulatedBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(params.TestChainConfig.ChainID), nil
}

// TransactionReceipt returns the receipt of a transaction.
func (b *SimulatedBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt := b.blockchain.GetTransactionReceipt(txHash)
	if receipt == nil {
		return nil, bind.ErrNotFound
	}
	return receipt, nil
}

// BlockByNumber retrieves a canonical block; nil number means the head.
func (b *SimulatedBackend) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if number == nil {
		return b.blockchain.CurrentBlock(), nil
	}
	block := b.blockchain.GetBlockByNumber(number.Uint64())
	if block == nil {
		return nil, bind.ErrNotFound
	}
	return block, nil
}

// CallContract executes a contract call against the head state.
func (b *SimulatedBackend) CallContract(ctx context.Context, call bind.CallMsg) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	statedb, err := b.blockchain.State()
	if err != nil {
		return nil, err
	}
	res, err := b.callContract(call, b.blockchain.CurrentHeader(), statedb)
	if err != nil {
		return nil, err
	}
	return res.Return(), res.Err
}

// EstimateGas executes the call against the pending state and returns the gas
// it used. Native contracts have no refunds, so the used gas is also the gas
// required.
func (b *SimulatedBackend) EstimateGas(ctx context.Context, call bind.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	header, statedb, err := b.miner.PendingState()
	if err != nil {
		return 0, err
	}
	res, err := b.callContract(call, header, statedb)
	if err != nil {
		return 0, err
	}
	if res.Failed() {
		return 0, res.Err
	}
	return res.UsedGas, nil
}

// SendTransaction updates the pending block to include the given transaction.
func (b *SimulatedBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.miner.AddTx(tx); err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}
	if b.autoCommit {
		if _, err := b.miner.Seal(); err != nil {
			return err
		}
	}
	return nil
}

func (b *SimulatedBackend) headState() (*state.StateDB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.blockchain.State()
}

// callContract implements common code between normal and pending contract calls.
// state is modified during execution, make sure to copy it if necessary.
func (b *SimulatedBackend) callContract(call bind.CallMsg, header *types.Header, statedb *state.StateDB) (*core.ExecutionResult, error) {
	if call.GasPrice == nil {
		call.GasPrice = new(big.Int)
	}
	if call.Gas == 0 {
		call.Gas = header.GasLimit
	}
	if call.Value == nil {
		call.Value = new(big.Int)
	}
	// A dry run never fails for lack of funds.
	funds := new(big.Int).Mul(call.GasPrice, new(big.Int).SetUint64(call.Gas))
	statedb.AddBalance(call.From, funds.Add(funds, call.Value))

	msg := types.NewMessage(call.From, call.To, statedb.GetNonce(call.From), call.Value, call.Gas, call.GasPrice, call.Data, true)
	blockCtx := core.NewBlockContext(header, b.blockchain, nil)
	gp := new(core.GasPool).AddGas(math.MaxUint64)
	return core.ApplyMessage(blockCtx, b.blockchain.Config(), msg, gp, statedb)
}
