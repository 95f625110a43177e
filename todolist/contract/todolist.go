// Package contract provides a typed Go binding of the native TodoList
// contract. It works against any bind.ContractBackend: the simulated backend
// in tests or the HTTP client against a running node.
package contract

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/sysaction"
	"github.com/tos-network/todochain/todolist"
)

var (
	errNegativeIndex = errors.New("todo index must not be negative")

	// ErrInvalidText is returned for a todo definition that is not valid
	// UTF-8. The action envelope is JSON, which would silently replace the
	// invalid bytes.
	ErrInvalidText = errors.New("todo definition is not valid UTF-8")
)

// TodoList is a binding of a deployed TodoList instance.
type TodoList struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewTodoList creates a new instance of TodoList, bound to a specific deployed contract.
func NewTodoList(address common.Address, backend bind.ContractBackend) (*TodoList, error) {
	return &TodoList{
		address:  address,
		contract: bind.NewBoundContract(params.SystemActionAddress, backend, backend),
	}, nil
}

// DeployTodoList deploys a new TodoList instance owned by opts.From. A nil fee
// uses the chain's default creation fee. The returned address is derived
// from the sender and the transaction nonce and is valid once the
// transaction is mined successfully.
func DeployTodoList(opts *bind.TransactOpts, backend bind.ContractBackend, fee *big.Int) (common.Address, *types.Transaction, *TodoList, error) {
	var payload interface{}
	if fee != nil {
		payload = &sysaction.TodoDeployPayload{Fee: (*hexutil.Big)(fee)}
	}
	input, err := sysaction.MakeSysAction(sysaction.ActionTodoDeploy, payload)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	contract := bind.NewBoundContract(params.SystemActionAddress, backend, backend)
	tx, err := contract.Transact(opts, input)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	address := crypto.CreateAddress(opts.From, tx.Nonce())
	return address, tx, &TodoList{address: address, contract: contract}, nil
}

// Address returns the address of the bound instance.
func (t *TodoList) Address() common.Address { return t.address }

func (t *TodoList) call(opts *bind.CallOpts, kind sysaction.ActionKind, payload interface{}, out ...abi.Type) ([]interface{}, error) {
	input, err := sysaction.MakeSysAction(kind, payload)
	if err != nil {
		return nil, err
	}
	ret, err := t.contract.Call(opts, input)
	if err != nil {
		return nil, err
	}
	return abi.Unpack(out, ret)
}

func (t *TodoList) transact(opts *bind.TransactOpts, kind sysaction.ActionKind, payload interface{}) (*types.Transaction, error) {
	input, err := sysaction.MakeSysAction(kind, payload)
	if err != nil {
		return nil, err
	}
	return t.contract.Transact(opts, input)
}

// toIndex converts a uint256 index to the 64-bit index of the action payload.
// The list length is a uint64, so every index beyond 64 bits is saturated to
// the largest one, which is always out of range and reverts on chain.
func toIndex(index *big.Int) (hexutil.Uint64, error) {
	if index == nil || index.Sign() < 0 {
		return 0, fmt.Errorf("%w: %v", errNegativeIndex, index)
	}
	if !index.IsUint64() {
		return hexutil.Uint64(math.MaxUint64), nil
	}
	return hexutil.Uint64(index.Uint64()), nil
}

func checkText(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: %q", ErrInvalidText, text)
	}
	return nil
}

// FEE is a free data retrieval call returning the creation fee.
func (t *TodoList) FEE(opts *bind.CallOpts) (*big.Int, error) {
	out, err := t.call(opts, sysaction.ActionTodoFee, &sysaction.TodoContractPayload{Contract: t.address}, abi.Uint256Ty)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// Owner is a free data retrieval call returning the current owner.
func (t *TodoList) Owner(opts *bind.CallOpts) (common.Address, error) {
	out, err := t.call(opts, sysaction.ActionTodoOwner, &sysaction.TodoContractPayload{Contract: t.address}, abi.AddressTy)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// GetNumOfTodos is a free data retrieval call returning the length of the
// todo list, deleted slots included.
func (t *TodoList) GetNumOfTodos(opts *bind.CallOpts) (*big.Int, error) {
	out, err := t.call(opts, sysaction.ActionTodoCount, &sysaction.TodoContractPayload{Contract: t.address}, abi.Uint256Ty)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// TodoList is a free data retrieval call returning the todo at index. It
// reverts without a reason for an index out of range or a deleted slot.
func (t *TodoList) TodoList(opts *bind.CallOpts, index *big.Int) (todolist.Todo, error) {
	i, err := toIndex(index)
	if err != nil {
		return todolist.Todo{}, err
	}
	out, err := t.call(opts, sysaction.ActionTodoGet, &sysaction.TodoIndexPayload{Contract: t.address, Index: i}, abi.StringTy, abi.Uint8Ty)
	if err != nil {
		return todolist.Todo{}, err
	}
	return todolist.Todo{Definition: out[0].(string), Status: todolist.Status(out[1].(uint8))}, nil
}

// CreateTodo is a paid mutator transaction; opts.Value must equal the fee.
func (t *TodoList) CreateTodo(opts *bind.TransactOpts, todoDefinition string) (*types.Transaction, error) {
	if err := checkText(todoDefinition); err != nil {
		return nil, err
	}
	return t.transact(opts, sysaction.ActionTodoCreate, &sysaction.TodoCreatePayload{Contract: t.address, Text: todoDefinition})
}

// UpdateTodo is a mutator transaction overwriting the todo at index.
func (t *TodoList) UpdateTodo(opts *bind.TransactOpts, index *big.Int, status uint8, todoDefinition string) (*types.Transaction, error) {
	if err := checkText(todoDefinition); err != nil {
		return nil, err
	}
	i, err := toIndex(index)
	if err != nil {
		return nil, err
	}
	return t.transact(opts, sysaction.ActionTodoUpdate, &sysaction.TodoUpdatePayload{Contract: t.address, Index: i, Status: status, Text: todoDefinition})
}

// DeleteTodo is a mutator transaction clearing the todo at index.
func (t *TodoList) DeleteTodo(opts *bind.TransactOpts, index *big.Int) (*types.Transaction, error) {
	i, err := toIndex(index)
	if err != nil {
		return nil, err
	}
	return t.transact(opts, sysaction.ActionTodoDelete, &sysaction.TodoIndexPayload{Contract: t.address, Index: i})
}

// TransferOwnership is a mutator transaction handing the contract to newOwner.
func (t *TodoList) TransferOwnership(opts *bind.TransactOpts, newOwner common.Address) (*types.Transaction, error) {
	return t.transact(opts, sysaction.ActionTodoTransferOwnership, &sysaction.TodoTransferOwnershipPayload{Contract: t.address, NewOwner: newOwner})
}

// RenounceOwnership is a mutator transaction leaving the contract without owner.
func (t *TodoList) RenounceOwnership(opts *bind.TransactOpts) (*types.Transaction, error) {
	return t.transact(opts, sysaction.ActionTodoRenounceOwnership, &sysaction.TodoContractPayload{Contract: t.address})
}

// Withdraw is a mutator transaction moving the collected fees to the owner.
func (t *TodoList) Withdraw(opts *bind.TransactOpts) (*types.Transaction, error) {
	return t.transact(opts, sysaction.ActionTodoWithdraw, &sysaction.TodoContractPayload{Contract: t.address})
}
