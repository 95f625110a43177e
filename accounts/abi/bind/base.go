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
	"fmt"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
)

// BoundContract is the base wrapper object that reflects a contract entry
// point on the chain. For native contracts the entry point is the system
// action address; the typed wrapper encodes the instance into the call data.
type BoundContract struct {
	address    common.Address     // Address the calls and transactions are sent to
	caller     ContractCaller     // Read interface to interact with the blockchain
	transactor ContractTransactor // Write interface to interact with the blockchain
}

// NewBoundContract creates a low level contract interface through which calls
// and transactions may be made through.
func NewBoundContract(address common.Address, caller ContractCaller, transactor ContractTransactor) *BoundContract {
	return &BoundContract{
		address:    address,
		caller:     caller,
		transactor: transactor,
	}
}

// Call invokes the entry point with the given input data as a read only call
// and returns the raw output. A revert surfaces as a DataError.
func (c *BoundContract) Call(opts *CallOpts, input []byte) ([]byte, error) {
	// Don't crash on a lazy user
	if opts == nil {
		opts = new(CallOpts)
	}
	msg := CallMsg{From: opts.From, To: &c.address, Data: input}
	return c.caller.CallContract(ensureContext(opts.Context), msg)
}

// Transact invokes the entry point with the given input data, signs the
// transaction with opts and sends it unless opts.NoSend is set.
func (c *BoundContract) Transact(opts *TransactOpts, input []byte) (*types.Transaction, error) {
	if opts == nil || opts.Signer == nil {
		return nil, errors.New("no signer to authorize the transaction with")
	}
	ctx := ensureContext(opts.Context)

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}
	var nonce uint64
	if opts.Nonce == nil {
		var err error
		if nonce, err = c.transactor.PendingNonceAt(ctx, opts.From); err != nil {
			return nil, fmt.Errorf("failed to retrieve account nonce: %w", err)
		}
	} else {
		nonce = opts.Nonce.Uint64()
	}
	gasPrice := opts.GasPrice
	if gasPrice == nil {
		var err error
		if gasPrice, err = c.transactor.SuggestGasPrice(ctx); err != nil {
			return nil, fmt.Errorf("failed to suggest gas price: %w", err)
		}
	}
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		msg := CallMsg{From: opts.From, To: &c.address, GasPrice: gasPrice, Value: value, Data: input}
		var err error
		if gasLimit, err = c.transactor.EstimateGas(ctx, msg); err != nil {
			// Keep the execution error itself so reverts stay inspectable.
			var dataErr DataError
			if errors.As(err, &dataErr) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to estimate gas needed: %w", err)
		}
	}
	rawTx := types.NewTransaction(nonce, c.address, value, gasLimit, gasPrice, input)
	signedTx, err := opts.Signer(opts.From, rawTx)
	if err != nil {
		return nil, err
	}
	if opts.NoSend {
		return signedTx, nil
	}
	if err := c.transactor.SendTransaction(ctx, signedTx); err != nil {
		return nil, err
	}
	return signedTx, nil
}

// Address returns the entry point the contract is bound to.
func (c *BoundContract) Address() common.Address { return c.address }

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
