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

package bind

import (
	"context"
	"errors"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
)

var (
	// ErrNoCode is returned by call and transact operations for which the
	// requested recipient contract to operate on does not exist in the state
	// db or does not have any code associated with it (i.e. self-destructed).
	ErrNoCode = errors.New("no contract code at given address")

	// ErrNotFound is returned by backends for transactions that are not yet
	// part of a block.
	ErrNotFound = errors.New("not found")
)

// CallMsg contains parameters for contract calls.
type CallMsg struct {
	From     common.Address  // the sender of the 'transaction'
	To       *common.Address // the destination contract (nil for contract creation)
	Gas      uint64          // if 0, the call executes with near-infinite gas
	GasPrice *big.Int        // wei <-> gas exchange ratio
	Value    *big.Int        // amount of wei sent along with the call
	Data     []byte          // input data, usually an encoded system action
}

// DataError is an execution failure that carries revert data. Both the
// in-process revert error and the HTTP client's decoded error implement it.
type DataError interface {
	error
	ErrorData() []byte
}

// ContractCaller defines the methods needed to allow operating with a contract
// on a read only basis.
type ContractCaller interface {
	// CodeAt returns the code of the given account. This is needed to differentiate
	// between contract internal errors and the local chain being out of sync.
	CodeAt(ctx context.Context, contract common.Address) ([]byte, error)

	// CallContract executes a read-only call against the head state. A
	// reverted call returns a DataError.
	CallContract(ctx context.Context, call CallMsg) ([]byte, error)
}

// ContractTransactor defines the methods needed to allow operating with a
// contract on a write only basis.
type ContractTransactor interface {
	// PendingNonceAt retrieves the current pending nonce associated with an account.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SuggestGasPrice retrieves the currently suggested gas price to allow a timely
	// execution of a transaction.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// EstimateGas tries to estimate the gas needed to execute a specific
	// transaction based on the current state of the backend blockchain. A
	// call that would revert returns a DataError.
	EstimateGas(ctx context.Context, call CallMsg) (gas uint64, err error)

	// SendTransaction injects the transaction into the pending pool for execution.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// ChainID returns the chain the backend signs transactions for.
	ChainID(ctx context.Context) (*big.Int, error)
}

// DeployBackend wraps the operations needed by WaitMined and WaitDeployed.
type DeployBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
}

// ContractBackend defines the methods needed to work with contracts on a
// read-write basis.
type ContractBackend interface {
	ContractCaller
	ContractTransactor
	DeployBackend
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}
