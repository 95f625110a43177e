// Package sysaction implements the system action protocol.
//
// System actions are special transactions sent to params.SystemActionAddress.
// Their tx.Data field is a JSON-encoded SysAction message. No bytecode is ever
// interpreted; instead the state processor calls sysaction.Execute() which
// dispatches to the appropriate native handler (e.g. todolist).
package sysaction

import (
	"encoding/json"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
)

// ActionKind identifies the type of system action.
type ActionKind string

const (
	// TodoList lifecycle
	ActionTodoDeploy            ActionKind = "TODO_DEPLOY"
	ActionTodoCreate            ActionKind = "TODO_CREATE"
	ActionTodoUpdate            ActionKind = "TODO_UPDATE"
	ActionTodoDelete            ActionKind = "TODO_DELETE"
	ActionTodoTransferOwnership ActionKind = "TODO_TRANSFER_OWNERSHIP"
	ActionTodoRenounceOwnership ActionKind = "TODO_RENOUNCE_OWNERSHIP"
	ActionTodoWithdraw          ActionKind = "TODO_WITHDRAW"

	// TodoList views. They never write state and return their result in
	// Context.ReturnData.
	ActionTodoFee   ActionKind = "TODO_FEE"
	ActionTodoOwner ActionKind = "TODO_OWNER"
	ActionTodoGet   ActionKind = "TODO_GET"
	ActionTodoCount ActionKind = "TODO_COUNT"
)

// IsView reports whether kind only reads state.
func (k ActionKind) IsView() bool {
	switch k {
	case ActionTodoFee, ActionTodoOwner, ActionTodoGet, ActionTodoCount:
		return true
	}
	return false
}

// SysAction is the top-level envelope stored in tx.Data for system action txs.
type SysAction struct {
	Action  ActionKind      `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TodoDeployPayload is the payload for TODO_DEPLOY. A nil fee deploys with
// the chain's default fee.
type TodoDeployPayload struct {
	Fee *hexutil.Big `json:"fee,omitempty"`
}

// TodoContractPayload addresses a deployed TodoList. It is the payload of
// TODO_RENOUNCE_OWNERSHIP, TODO_WITHDRAW, TODO_FEE, TODO_OWNER and TODO_COUNT.
type TodoContractPayload struct {
	Contract common.Address `json:"contract"`
}

// TodoCreatePayload is the payload for TODO_CREATE.
type TodoCreatePayload struct {
	Contract common.Address `json:"contract"`
	Text     string         `json:"text"`
}

// TodoUpdatePayload is the payload for TODO_UPDATE.
type TodoUpdatePayload struct {
	Contract common.Address `json:"contract"`
	Index    hexutil.Uint64 `json:"index"`
	Status   uint8          `json:"status"`
	Text     string         `json:"text"`
}

// TodoIndexPayload is the payload for TODO_DELETE and TODO_GET.
type TodoIndexPayload struct {
	Contract common.Address `json:"contract"`
	Index    hexutil.Uint64 `json:"index"`
}

// TodoTransferOwnershipPayload is the payload for TODO_TRANSFER_OWNERSHIP.
type TodoTransferOwnershipPayload struct {
	Contract common.Address `json:"contract"`
	NewOwner common.Address `json:"newOwner"`
}
