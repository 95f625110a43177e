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

package vm

import (
	"errors"
	"fmt"

	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/common/hexutil"
)

// List of execution errors
var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrGasUintOverflow          = errors.New("gas uint64 overflow")
	ErrNoContract               = errors.New("no contract code at given address")
)

// RevertError is an execution error that carries the revert payload of a
// native contract. The payload is empty for a bare revert, an Error(string)
// encoding for a revert with reason, or a custom error encoding.
type RevertError struct {
	reason string
	data   []byte
}

// NewRevertError wraps a revert payload. Error(string) payloads are decoded
// so that the reason shows up in the error message.
func NewRevertError(data []byte) *RevertError {
	err := &RevertError{data: data}
	if reason, errUnpack := abi.UnpackRevert(data); errUnpack == nil {
		err.reason = reason
	}
	return err
}

// Revert returns a revert error without payload.
func Revert() *RevertError {
	return &RevertError{}
}

// RevertWithReason returns a revert error carrying an Error(string) payload.
func RevertWithReason(reason string) *RevertError {
	return &RevertError{reason: reason, data: abi.PackRevert(reason)}
}

// RevertWithCustomError returns a revert error carrying a custom error payload.
func RevertWithCustomError(e abi.Error, args ...interface{}) *RevertError {
	return &RevertError{data: e.Pack(args...)}
}

// Error implements error.
func (e *RevertError) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("%s: %s", ErrExecutionReverted, e.reason)
	}
	if len(e.data) > 0 {
		return fmt.Sprintf("%s: %s", ErrExecutionReverted, hexutil.Encode(e.data))
	}
	return ErrExecutionReverted.Error()
}

// Unwrap allows errors.Is(err, ErrExecutionReverted).
func (e *RevertError) Unwrap() error { return ErrExecutionReverted }

// Reason returns the decoded Error(string) reason, or "" if the payload is
// not a reason string.
func (e *RevertError) Reason() string { return e.reason }

// ErrorData returns the raw revert payload.
func (e *RevertError) ErrorData() []byte { return e.data }
