package abi

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tos-network/todochain/crypto"
)

// revertSelector is the selector of the builtin Error(string) payload.
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// Error is a custom error declaration, encoded as a 4 byte selector followed
// by the ABI encoded arguments.
type Error struct {
	Name   string
	Inputs []Type

	// Sig is the canonical signature, e.g. OwnableUnauthorizedAccount(address).
	Sig string
	// ID is the keccak256 hash of Sig; its first 4 bytes are the selector.
	ID [32]byte
}

// NewError declares a custom error.
func NewError(name string, inputs ...Type) Error {
	sig := signature(name, inputs)
	var id [32]byte
	copy(id[:], crypto.Keccak256([]byte(sig)))
	return Error{Name: name, Inputs: inputs, Sig: sig, ID: id}
}

// Selector returns the 4 byte payload prefix of the error.
func (e Error) Selector() []byte {
	return e.ID[:4]
}

// Pack encodes the error payload. It panics if args do not match the inputs,
// since error declarations are static.
func (e Error) Pack(args ...interface{}) []byte {
	enc, err := Pack(e.Inputs, args...)
	if err != nil {
		panic(fmt.Sprintf("abi: packing %s: %v", e.Sig, err))
	}
	return append(withSelector(e.Selector()), enc...)
}

// Unpack decodes the arguments of a payload produced by Pack.
func (e Error) Unpack(data []byte) ([]interface{}, error) {
	if !e.Matches(data) {
		return nil, fmt.Errorf("abi: payload is not a %s error", e.Name)
	}
	return Unpack(e.Inputs, data[4:])
}

// Matches reports whether the payload carries this error's selector.
func (e Error) Matches(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], e.Selector())
}

// PackRevert encodes reason as an Error(string) revert payload.
func PackRevert(reason string) []byte {
	enc, _ := Pack([]Type{StringTy}, reason)
	return append(withSelector(revertSelector), enc...)
}

// UnpackRevert resolves the abi-encoded revert reason. According to the solidity
// spec https://solidity.readthedocs.io/en/latest/control-structures.html#revert,
// the provided revert reason is abi-encoded as if it were a call to a function
// `Error(string)`. So it's a special tool for it.
func UnpackRevert(data []byte) (string, error) {
	if len(data) < 4 {
		return "", errors.New("invalid data for unpacking")
	}
	if !bytes.Equal(data[:4], revertSelector) {
		return "", errors.New("invalid data for unpacking")
	}
	out, err := Unpack([]Type{StringTy}, data[4:])
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func withSelector(selector []byte) []byte {
	out := make([]byte, 4, 4+64)
	copy(out, selector)
	return out
}
