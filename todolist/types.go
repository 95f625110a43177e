// Package todolist implements the TodoList native contract: an owner-gated,
// fee-gated list of todo items stored in the contract account's storage.
package todolist

import (
	"errors"
	"strconv"

	"github.com/tos-network/todochain/accounts/abi"
)

// Status is the lifecycle status of a todo item. Any uint8 value can be
// stored; only the first two are named.
type Status uint8

const (
	// StatusTodo is the status of a freshly created item.
	StatusTodo Status = 0
	// StatusDone marks a completed item.
	StatusDone Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusTodo:
		return "TODO"
	case StatusDone:
		return "DONE"
	}
	return "STATUS(" + strconv.Itoa(int(s)) + ")"
}

// Todo is a single list entry.
type Todo struct {
	Definition string `json:"todoDefinition"`
	Status     Status `json:"status"`
}

// Code is the code stored at every TodoList contract address. It marks the
// account as a TodoList instance; there is no bytecode to interpret.
var Code = []byte("todochain.todolist.v1")

// Custom errors of the contract, encoded into revert data.
var (
	OwnableUnauthorizedAccount = abi.NewError("OwnableUnauthorizedAccount", abi.AddressTy)
	OwnableInvalidOwner        = abi.NewError("OwnableInvalidOwner", abi.AddressTy)
)

// Events emitted by the contract.
var (
	CreateTodoEvent = abi.NewEvent("CreateTodo",
		abi.Argument{Name: "index", Type: abi.Uint256Ty, Indexed: true},
		abi.Argument{Name: "todoDefinition", Type: abi.StringTy},
	)
	UpdateTodoEvent = abi.NewEvent("UpdateTodo",
		abi.Argument{Name: "index", Type: abi.Uint256Ty, Indexed: true},
		abi.Argument{Name: "status", Type: abi.Uint8Ty},
		abi.Argument{Name: "todoDefinition", Type: abi.StringTy},
	)
	DeleteTodoEvent = abi.NewEvent("DeleteTodo",
		abi.Argument{Name: "index", Type: abi.Uint256Ty, Indexed: true},
	)
	OwnershipTransferredEvent = abi.NewEvent("OwnershipTransferred",
		abi.Argument{Name: "previousOwner", Type: abi.AddressTy, Indexed: true},
		abi.Argument{Name: "newOwner", Type: abi.AddressTy, Indexed: true},
	)
	WithdrawEvent = abi.NewEvent("Withdraw",
		abi.Argument{Name: "to", Type: abi.AddressTy, Indexed: true},
		abi.Argument{Name: "amount", Type: abi.Uint256Ty},
	)
)

// Sentinel errors returned by the handler for malformed actions. They fail
// the transaction like a revert but carry no revert data.
var (
	ErrNotTodoList     = errors.New("todolist: no TodoList contract at address")
	ErrInvalidFee      = errors.New("todolist: fee must not be negative")
	ErrFeeOverflow     = errors.New("todolist: fee exceeds 256 bits")
	ErrIndexOutOfRange = errors.New("todolist: index out of range")
)
