package contract

import (
	"math/big"

	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/todolist"
)

// TodoListCreateTodo represents a CreateTodo event raised by the TodoList contract.
type TodoListCreateTodo struct {
	Index          *big.Int
	TodoDefinition string
	Raw            types.Log // Blockchain specific contextual infos
}

// TodoListUpdateTodo represents an UpdateTodo event raised by the TodoList contract.
type TodoListUpdateTodo struct {
	Index          *big.Int
	Status         uint8
	TodoDefinition string
	Raw            types.Log
}

// TodoListDeleteTodo represents a DeleteTodo event raised by the TodoList contract.
type TodoListDeleteTodo struct {
	Index *big.Int
	Raw   types.Log
}

// TodoListOwnershipTransferred represents an OwnershipTransferred event raised
// by the TodoList contract.
type TodoListOwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
	Raw           types.Log
}

// TodoListWithdraw represents a Withdraw event raised by the TodoList contract.
type TodoListWithdraw struct {
	To     common.Address
	Amount *big.Int
	Raw    types.Log
}

func unpackLog(ev abi.Event, log types.Log) ([]interface{}, error) {
	return ev.Unpack(log.Topics, log.Data)
}

// ParseCreateTodo decodes a CreateTodo log.
func ParseCreateTodo(log types.Log) (*TodoListCreateTodo, error) {
	out, err := unpackLog(todolist.CreateTodoEvent, log)
	if err != nil {
		return nil, err
	}
	return &TodoListCreateTodo{Index: out[0].(*big.Int), TodoDefinition: out[1].(string), Raw: log}, nil
}

// ParseUpdateTodo decodes an UpdateTodo log.
func ParseUpdateTodo(log types.Log) (*TodoListUpdateTodo, error) {
	out, err := unpackLog(todolist.UpdateTodoEvent, log)
	if err != nil {
		return nil, err
	}
	return &TodoListUpdateTodo{Index: out[0].(*big.Int), Status: out[1].(uint8), TodoDefinition: out[2].(string), Raw: log}, nil
}

// ParseDeleteTodo decodes a DeleteTodo log.
func ParseDeleteTodo(log types.Log) (*TodoListDeleteTodo, error) {
	out, err := unpackLog(todolist.DeleteTodoEvent, log)
	if err != nil {
		return nil, err
	}
	return &TodoListDeleteTodo{Index: out[0].(*big.Int), Raw: log}, nil
}

// ParseOwnershipTransferred decodes an OwnershipTransferred log.
func ParseOwnershipTransferred(log types.Log) (*TodoListOwnershipTransferred, error) {
	out, err := unpackLog(todolist.OwnershipTransferredEvent, log)
	if err != nil {
		return nil, err
	}
	return &TodoListOwnershipTransferred{PreviousOwner: out[0].(common.Address), NewOwner: out[1].(common.Address), Raw: log}, nil
}

// ParseWithdraw decodes a Withdraw log.
func ParseWithdraw(log types.Log) (*TodoListWithdraw, error) {
	out, err := unpackLog(todolist.WithdrawEvent, log)
	if err != nil {
		return nil, err
	}
	return &TodoListWithdraw{To: out[0].(common.Address), Amount: out[1].(*big.Int), Raw: log}, nil
}

// FilterCreateTodo returns the CreateTodo events of the bound instance found
// in receipt.
func (t *TodoList) FilterCreateTodo(receipt *types.Receipt) ([]*TodoListCreateTodo, error) {
	var events []*TodoListCreateTodo
	for _, log := range t.logs(receipt, todolist.CreateTodoEvent) {
		ev, err := ParseCreateTodo(*log)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// FilterUpdateTodo returns the UpdateTodo events of the bound instance found
// in receipt.
func (t *TodoList) FilterUpdateTodo(receipt *types.Receipt) ([]*TodoListUpdateTodo, error) {
	var events []*TodoListUpdateTodo
	for _, log := range t.logs(receipt, todolist.UpdateTodoEvent) {
		ev, err := ParseUpdateTodo(*log)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// FilterDeleteTodo returns the DeleteTodo events of the bound instance found
// in receipt.
func (t *TodoList) FilterDeleteTodo(receipt *types.Receipt) ([]*TodoListDeleteTodo, error) {
	var events []*TodoListDeleteTodo
	for _, log := range t.logs(receipt, todolist.DeleteTodoEvent) {
		ev, err := ParseDeleteTodo(*log)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (t *TodoList) logs(receipt *types.Receipt, ev abi.Event) []*types.Log {
	var logs []*types.Log
	for _, log := range receipt.Logs {
		if log.Address == t.address && len(log.Topics) > 0 && log.Topics[0] == ev.ID {
			logs = append(logs, log)
		}
	}
	return logs
}
