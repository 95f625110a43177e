// Package accounts defines the account references shared by the keystore
// and the command line tooling.
package accounts

import (
	"fmt"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/crypto"
)

// Account represents a TOS account located at a specific location defined
// by the optional URL field.
type Account struct {
	Address common.Address `json:"address"` // Account address derived from the key
	URL     URL            `json:"url"`     // Optional resource locator within a backend
}

// TextHash is a helper function that calculates a hash for the given message
// that can be safely used to calculate a signature from.
//
// The hash is calculated as
//
//	keccak256("\x19TOS Signed Message:\n"${message length}${message}).
//
// This gives context to the signed message and prevents signing of transactions.
func TextHash(data []byte) []byte {
	msg := fmt.Sprintf("\x19TOS Signed Message:\n%d%s", len(data), data)
	return crypto.Keccak256([]byte(msg))
}
