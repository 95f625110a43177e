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
	"math"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/sysaction"
)

var emptyCodeHash = common.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

// StateTransition handles state transitions.
// There is no bytecode execution; only plain TOS transfers and system
// actions (native contracts) are allowed.
type StateTransition struct {
	gp          *GasPool
	msg         Message
	gas         uint64
	gasPrice    *big.Int
	initialGas  uint64
	value       *big.Int
	data        []byte
	state       vm.StateDB
	blockCtx    vm.BlockContext
	chainConfig *params.ChainConfig
}

// Message represents a message sent to a contract.
type Message interface {
	From() common.Address
	To() *common.Address

	GasPrice() *big.Int
	Gas() uint64
	Value() *big.Int

	Nonce() uint64
	IsFake() bool
	Data() []byte
	TxHash() common.Hash
}

// ExecutionResult includes all output after executing a given message.
type ExecutionResult struct {
	UsedGas         uint64         // Total used gas (including refunded gas)
	Err             error          // Any error encountered during execution
	ReturnData      []byte         // Returned data, or the revert payload
	ContractAddress common.Address // Contract deployed by the message, if any
}

// Unwrap returns the internal error.
func (result *ExecutionResult) Unwrap() error {
	return result.Err
}

// Failed returns true if the execution failed.
func (result *ExecutionResult) Failed() bool { return result.Err != nil }

// Return returns the data after execution if no error occurred.
func (result *ExecutionResult) Return() []byte {
	if result.Err != nil {
		return nil
	}
	return common.CopyBytes(result.ReturnData)
}

// Revert returns the revert payload if the execution was reverted.
func (result *ExecutionResult) Revert() []byte {
	if !errors.Is(result.Err, vm.ErrExecutionReverted) {
		return nil
	}
	return common.CopyBytes(result.ReturnData)
}

// IntrinsicGas computes the 'intrinsic gas' for a message with the given data.
func IntrinsicGas(data []byte) (uint64, error) {
	gas := params.TxGas
	if len(data) > 0 {
		var nz uint64
		for _, byt := range data {
			if byt != 0 {
				nz++
			}
		}
		if (math.MaxUint64-gas)/params.TxDataNonZeroGasReduced < nz {
			return 0, ErrGasUintOverflow
		}
		gas += nz * params.TxDataNonZeroGasReduced

		z := uint64(len(data)) - nz
		if (math.MaxUint64-gas)/params.TxDataZeroGas < z {
			return 0, ErrGasUintOverflow
		}
		gas += z * params.TxDataZeroGas
	}
	return gas, nil
}

// NewStateTransition initialises and returns a new state transition object.
func NewStateTransition(blockCtx vm.BlockContext, chainConfig *params.ChainConfig, msg Message, gp *GasPool, statedb vm.StateDB) *StateTransition {
	value := msg.Value()
	if value == nil {
		value = new(big.Int)
	}
	gasPrice := msg.GasPrice()
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	return &StateTransition{
		gp:          gp,
		msg:         msg,
		gasPrice:    gasPrice,
		value:       value,
		data:        msg.Data(),
		state:       statedb,
		blockCtx:    blockCtx,
		chainConfig: chainConfig,
	}
}

// ApplyMessage computes the new state by applying the given message
// against the old state within the environment.
//
// ApplyMessage returns the bytes returned by the native contract, the used
// gas and an error if it failed. An error always indicates a core error
// meaning that the message would always fail for that particular state and
// would never be accepted within a block. Execution failures, reverts
// included, are reported through ExecutionResult.Err.
func ApplyMessage(blockCtx vm.BlockContext, chainConfig *params.ChainConfig, msg Message, gp *GasPool, statedb vm.StateDB) (*ExecutionResult, error) {
	return NewStateTransition(blockCtx, chainConfig, msg, gp, statedb).TransitionDb()
}

// to returns the recipient of the message.
func (st *StateTransition) to() common.Address {
	if st.msg == nil || st.msg.To() == nil {
		return common.Address{}
	}
	return *st.msg.To()
}

func (st *StateTransition) buyGas() error {
	mgval := new(big.Int).SetUint64(st.msg.Gas())
	mgval = mgval.Mul(mgval, st.gasPrice)
	balanceCheck := new(big.Int).Add(mgval, st.value)
	if have, want := st.state.GetBalance(st.msg.From()), balanceCheck; have.Cmp(want) < 0 {
		return fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFunds, st.msg.From().Hex(), have, want)
	}
	if err := st.gp.SubGas(st.msg.Gas()); err != nil {
		return err
	}
	st.gas += st.msg.Gas()
	st.initialGas = st.msg.Gas()
	st.state.SubBalance(st.msg.From(), mgval)
	return nil
}

func (st *StateTransition) preCheck() error {
	if !st.msg.IsFake() {
		stNonce := st.state.GetNonce(st.msg.From())
		if msgNonce := st.msg.Nonce(); stNonce < msgNonce {
			return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooHigh,
				st.msg.From().Hex(), msgNonce, stNonce)
		} else if stNonce > msgNonce {
			return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrNonceTooLow,
				st.msg.From().Hex(), msgNonce, stNonce)
		} else if stNonce+1 < stNonce {
			return fmt.Errorf("%w: address %v, nonce: %d", ErrNonceMax,
				st.msg.From().Hex(), stNonce)
		}
		// Contracts never sign transactions.
		if codeHash := st.state.GetCodeHash(st.msg.From()); codeHash != emptyCodeHash && codeHash != (common.Hash{}) {
			return fmt.Errorf("%w: address %v, codehash: %s", ErrSenderNoEOA,
				st.msg.From().Hex(), codeHash)
		}
	}
	return st.buyGas()
}

// TransitionDb transitions the state by applying the current message.
//
// Transaction rules:
//  1. System action address (params.SystemActionAddress): execute via sysaction.Execute.
//     A failing action is rolled back and reported in the result.
//  2. Plain TOS transfer (To != nil, empty data): transfer value.
//  3. Anything else (contract creation, data to another address): failed.
func (st *StateTransition) TransitionDb() (*ExecutionResult, error) {
	if err := st.preCheck(); err != nil {
		return nil, err
	}
	msg := st.msg

	// Increment nonce for all real transactions.
	st.state.SetNonce(msg.From(), st.state.GetNonce(msg.From())+1)

	// Subtract intrinsic gas
	gas, err := IntrinsicGas(st.data)
	if err != nil {
		return nil, err
	}
	if st.gas < gas {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, st.gas, gas)
	}
	st.gas -= gas

	var (
		vmerr    error
		ret      []byte
		contract common.Address
	)
	switch {
	case msg.To() == nil:
		vmerr = ErrContractNotSupported
	case st.to() == params.SystemActionAddress:
		ret, contract, vmerr = st.applySysAction(msg)
	case len(st.data) > 0:
		vmerr = ErrContractNotSupported
	default:
		if st.value.Sign() > 0 {
			if !st.blockCtx.CanTransfer(st.state, msg.From(), st.value) {
				return nil, fmt.Errorf("%w: address %v", ErrInsufficientFundsForTransfer, msg.From().Hex())
			}
			st.blockCtx.Transfer(st.state, msg.From(), st.to(), st.value)
		}
	}

	st.refundGas()

	// Pay miner fee by fixed gasPrice
	fee := new(big.Int).SetUint64(st.gasUsed())
	fee.Mul(fee, st.gasPrice)
	st.state.AddBalance(st.blockCtx.Coinbase, fee)

	return &ExecutionResult{
		UsedGas:         st.gasUsed(),
		Err:             vmerr,
		ReturnData:      ret,
		ContractAddress: contract,
	}, nil
}

// applySysAction runs a system action on a state snapshot. The handler moves
// the message value itself; on failure every change, value and logs
// included, is reverted and only the gas is kept.
func (st *StateTransition) applySysAction(msg Message) ([]byte, common.Address, error) {
	if !st.blockCtx.CanTransfer(st.state, msg.From(), st.value) {
		return nil, common.Address{}, fmt.Errorf("%w: address %v", ErrInsufficientFundsForTransfer, msg.From().Hex())
	}
	snapshot := st.state.Snapshot()
	ctx, err := sysaction.Execute(msg, st.state, st.blockCtx, st.chainConfig, st.gas)
	st.gas -= ctx.Gas.Used()
	if err != nil {
		st.state.RevertToSnapshot(snapshot)
		var revert *vm.RevertError
		if errors.As(err, &revert) {
			return revert.ErrorData(), common.Address{}, err
		}
		return nil, common.Address{}, err
	}
	return ctx.ReturnData, ctx.CreatedAddress, nil
}

// refundGas returns the unused gas to the sender and the block gas pool.
func (st *StateTransition) refundGas() {
	remaining := new(big.Int).Mul(new(big.Int).SetUint64(st.gas), st.gasPrice)
	st.state.AddBalance(st.msg.From(), remaining)

	st.gp.AddGas(st.gas)
}

// gasUsed returns the amount of gas used up by the state transition.
func (st *StateTransition) gasUsed() uint64 {
	return st.initialGas - st.gas
}
