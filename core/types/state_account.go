package types

import (
	"math/big"

	"github.com/tos-network/todochain/common"
)

// StateAccount is the stored representation of an account. Storage slots
// live under their own keys and are not part of the account record.
type StateAccount struct {
	Nonce    uint64      `json:"nonce"`
	Balance  *big.Int    `json:"balance"`
	CodeHash common.Hash `json:"codeHash"`
}
