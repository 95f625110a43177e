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

package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/tosdb"
)

var errGenesisNoConfig = errors.New("genesis has no chain configuration")

// Genesis specifies the header fields, state of a genesis block. It also defines
// the chain configuration.
type Genesis struct {
	Config    *params.ChainConfig `json:"config"`
	Timestamp uint64              `json:"timestamp"`
	GasLimit  uint64              `json:"gasLimit"`
	Coinbase  common.Address      `json:"coinbase"`
	Alloc     GenesisAlloc        `json:"alloc"`
}

// GenesisAlloc specifies the initial state that is part of the genesis block.
type GenesisAlloc map[common.Address]GenesisAccount

// GenesisAccount is an account in the state of the genesis block.
type GenesisAccount struct {
	Code    []byte                      `json:"code,omitempty"`
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
	Balance *big.Int                    `json:"balance"`
	Nonce   uint64                      `json:"nonce,omitempty"`
}

// GenesisMismatchError is raised when trying to overwrite an existing
// genesis block with an incompatible one.
type GenesisMismatchError struct {
	Stored, New common.Hash
}

func (e *GenesisMismatchError) Error() string {
	return fmt.Sprintf("database contains incompatible genesis (have %x, new %x)", e.Stored, e.New)
}

// SetupGenesisBlock writes or updates the genesis block in db.
// The block that will be used is:
//
//	                     genesis == nil       genesis != nil
//	                  +------------------------------------------
//	db has no genesis |  dev genesis         |  genesis
//	db has genesis    |  from DB             |  genesis (if compatible)
//
// The stored chain configuration will be updated if it is compatible (i.e. does not
// specify a fork block below the local head block). In case of a conflict, the
// error is a *params.ConfigCompatError and the new, unwritten config is returned.
func SetupGenesisBlock(db tosdb.Database, genesis *Genesis) (*params.ChainConfig, common.Hash, error) {
	if genesis != nil && genesis.Config == nil {
		return params.DevChainConfig, common.Hash{}, errGenesisNoConfig
	}
	// Just commit the new block if there is no stored genesis block.
	stored := rawdb.ReadCanonicalHash(db, 0)
	if (stored == common.Hash{}) {
		if genesis == nil {
			log.Info("Writing default dev genesis block")
			genesis = DefaultDevGenesisBlock()
		} else {
			log.Info("Writing custom genesis block")
		}
		block, err := genesis.Commit(db)
		if err != nil {
			return genesis.Config, common.Hash{}, err
		}
		return genesis.Config, block.Hash(), nil
	}
	// Check whether the genesis block is already written.
	if genesis != nil {
		hash := genesis.ToBlock().Hash()
		if hash != stored {
			return genesis.Config, hash, &GenesisMismatchError{stored, hash}
		}
	}
	// Get the existing chain configuration.
	newcfg := genesis.configOrDefault()
	storedcfg := rawdb.ReadChainConfig(db, stored)
	if storedcfg == nil {
		log.Warn("Found genesis block without chain config")
		rawdb.WriteChainConfig(db, stored, newcfg)
		return newcfg, stored, nil
	}
	// Special case: if no new genesis is given, keep the stored config.
	if genesis == nil {
		return storedcfg, stored, nil
	}
	// Check config compatibility and write the config. Compatibility errors
	// are returned to the caller unless we're already at block zero.
	var height uint64
	if number := rawdb.ReadHeaderNumber(db, rawdb.ReadHeadBlockHash(db)); number != nil {
		height = *number
	}
	if compatErr := storedcfg.CheckCompatible(newcfg, height); compatErr != nil {
		if compatErr.Fatal || height != 0 {
			return newcfg, stored, compatErr
		}
	}
	rawdb.WriteChainConfig(db, stored, newcfg)
	return newcfg, stored, nil
}

func (g *Genesis) configOrDefault() *params.ChainConfig {
	if g != nil && g.Config != nil {
		return g.Config
	}
	return params.DevChainConfig
}

// applyAlloc writes the genesis allocation into statedb.
func (g *Genesis) applyAlloc(statedb *state.StateDB) {
	for addr, account := range g.Alloc {
		if account.Balance != nil {
			statedb.AddBalance(addr, account.Balance)
		}
		if len(account.Code) > 0 {
			statedb.SetCode(addr, account.Code)
		}
		if account.Nonce != 0 {
			statedb.SetNonce(addr, account.Nonce)
		}
		for key, value := range account.Storage {
			statedb.SetState(addr, key, value)
		}
	}
}

// ToBlock returns the genesis block according to genesis specification. The
// allocation is committed to a throwaway database to derive the state root.
func (g *Genesis) ToBlock() *types.Block {
	statedb, err := state.New(common.Hash{}, state.NewDatabase(rawdb.NewMemoryDatabase()))
	if err != nil {
		panic(err)
	}
	g.applyAlloc(statedb)
	root, err := statedb.Commit()
	if err != nil {
		panic(err)
	}
	return g.block(root)
}

func (g *Genesis) block(root common.Hash) *types.Block {
	head := &types.Header{
		Number:   new(big.Int),
		Time:     g.Timestamp,
		GasLimit: g.GasLimit,
		Coinbase: g.Coinbase,
		Root:     root,
	}
	if g.GasLimit == 0 {
		head.GasLimit = params.GenesisGasLimit
	}
	return types.NewBlock(head, nil, nil)
}

// Commit writes the block and state of a genesis specification to the database.
// The block is committed as the canonical head block.
func (g *Genesis) Commit(db tosdb.Database) (*types.Block, error) {
	if rawdb.ReadStateRoot(db) != (common.Hash{}) {
		return nil, errors.New("can't commit genesis block over existing state")
	}
	statedb, err := state.New(common.Hash{}, state.NewDatabase(db))
	if err != nil {
		return nil, err
	}
	g.applyAlloc(statedb)
	root, err := statedb.Commit()
	if err != nil {
		return nil, err
	}
	block := g.block(root)

	config := g.configOrDefault()
	rawdb.WriteBlock(db, block)
	rawdb.WriteReceipts(db, block.Hash(), block.NumberU64(), nil)
	rawdb.WriteCanonicalHash(db, block.Hash(), block.NumberU64())
	rawdb.WriteHeadBlockHash(db, block.Hash())
	rawdb.WriteChainConfig(db, block.Hash(), config)
	return block, nil
}

// MustCommit writes the genesis block and state to db, panicking on error.
// The block is committed as the canonical head block.
func (g *Genesis) MustCommit(db tosdb.Database) *types.Block {
	block, err := g.Commit(db)
	if err != nil {
		panic(err)
	}
	return block
}

// DefaultDevGenesisBlock returns the genesis of the single node development
// network, without any allocation.
func DefaultDevGenesisBlock() *Genesis {
	return &Genesis{
		Config:   params.DevChainConfig,
		GasLimit: params.GenesisGasLimit,
		Alloc:    GenesisAlloc{},
	}
}

// DeveloperGenesisBlock returns the development genesis with faucet funded.
func DeveloperGenesisBlock(gasLimit uint64, faucet common.Address) *Genesis {
	genesis := DefaultDevGenesisBlock()
	if gasLimit != 0 {
		genesis.GasLimit = gasLimit
	}
	genesis.Alloc[faucet] = GenesisAccount{
		Balance: new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.TOS)),
	}
	return genesis
}
