// Package abi implements the contract ABI word encoding used by native
// contracts for return data, event data and revert payloads.
package abi

import (
	"fmt"
)

// Type is an ABI value type supported by native contracts.
type Type int

const (
	Uint256Ty Type = iota
	Uint8Ty
	AddressTy
	BoolTy
	Bytes32Ty
	StringTy
)

// String returns the canonical ABI name of the type.
func (t Type) String() string {
	switch t {
	case Uint256Ty:
		return "uint256"
	case Uint8Ty:
		return "uint8"
	case AddressTy:
		return "address"
	case BoolTy:
		return "bool"
	case Bytes32Ty:
		return "bytes32"
	case StringTy:
		return "string"
	default:
		return fmt.Sprintf("abi.Type(%d)", int(t))
	}
}

// dynamic reports whether values of the type are tail encoded.
func (t Type) dynamic() bool {
	return t == StringTy
}

// Argument describes a named, typed value in an event or error signature.
type Argument struct {
	Name    string
	Type    Type
	Indexed bool // indexed is only used by events
}

// Arguments is an ordered list of arguments.
type Arguments []Argument

// NonIndexed returns the arguments with the indexed arguments filtered out.
func (arguments Arguments) NonIndexed() Arguments {
	var ret []Argument
	for _, arg := range arguments {
		if !arg.Indexed {
			ret = append(ret, arg)
		}
	}
	return ret
}

// Types returns the argument types in order.
func (arguments Arguments) Types() []Type {
	types := make([]Type, len(arguments))
	for i, arg := range arguments {
		types[i] = arg.Type
	}
	return types
}

func signature(name string, types []Type) string {
	sig := name + "("
	for i, t := range types {
		if i > 0 {
			sig += ","
		}
		sig += t.String()
	}
	return sig + ")"
}
