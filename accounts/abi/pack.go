package abi

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/tos-network/todochain/common"
)

var (
	errBadBool     = errors.New("abi: improperly encoded boolean value")
	errShortData   = errors.New("abi: data too short")
	errBadOffset   = errors.New("abi: invalid offset")
	errValueRange  = errors.New("abi: value out of range")
	errBadArgCount = errors.New("abi: argument count mismatch")
)

// Pack encodes values according to types, with static values in the head and
// strings in the tail.
func Pack(types []Type, values ...interface{}) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("%w: have %d want %d", errBadArgCount, len(values), len(types))
	}
	var (
		head = make([]byte, 0, 32*len(types))
		tail []byte
	)
	for i, t := range types {
		if t.dynamic() {
			offset := uint64(32*len(types) + len(tail))
			head = append(head, packUint(new(uint256.Int).SetUint64(offset))...)
			s, ok := values[i].(string)
			if !ok {
				return nil, fmt.Errorf("abi: cannot use %T as type string as argument", values[i])
			}
			tail = append(tail, packString(s)...)
			continue
		}
		word, err := packStatic(t, values[i])
		if err != nil {
			return nil, err
		}
		head = append(head, word...)
	}
	return append(head, tail...), nil
}

// Word encodes a single static value as a 32 byte word, as used for indexed
// event topics.
func Word(t Type, value interface{}) (common.Hash, error) {
	word, err := packStatic(t, value)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(word), nil
}

func packStatic(t Type, value interface{}) ([]byte, error) {
	switch t {
	case Uint256Ty, Uint8Ty:
		v, err := toUint256(value)
		if err != nil {
			return nil, err
		}
		if t == Uint8Ty && (!v.IsUint64() || v.Uint64() > 0xff) {
			return nil, fmt.Errorf("%w: %v does not fit uint8", errValueRange, v)
		}
		return packUint(v), nil
	case AddressTy:
		addr, ok := value.(common.Address)
		if !ok {
			return nil, fmt.Errorf("abi: cannot use %T as type address as argument", value)
		}
		return common.LeftPadBytes(addr.Bytes(), 32), nil
	case BoolTy:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("abi: cannot use %T as type bool as argument", value)
		}
		word := make([]byte, 32)
		if b {
			word[31] = 1
		}
		return word, nil
	case Bytes32Ty:
		h, ok := value.(common.Hash)
		if !ok {
			return nil, fmt.Errorf("abi: cannot use %T as type bytes32 as argument", value)
		}
		return common.CopyBytes(h.Bytes()), nil
	}
	return nil, fmt.Errorf("abi: unsupported static type %v", t)
}

func toUint256(value interface{}) (*uint256.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative or nil integer", errValueRange)
		}
		u, overflow := uint256.FromBig(v)
		if overflow {
			return nil, fmt.Errorf("%w: %v overflows uint256", errValueRange, v)
		}
		return u, nil
	case *uint256.Int:
		return new(uint256.Int).Set(v), nil
	case uint8:
		return uint256.NewInt(uint64(v)), nil
	case uint64:
		return uint256.NewInt(v), nil
	case int:
		if v < 0 {
			return nil, fmt.Errorf("%w: %d is negative", errValueRange, v)
		}
		return uint256.NewInt(uint64(v)), nil
	}
	return nil, fmt.Errorf("abi: cannot use %T as type uint256 as argument", value)
}

func packUint(v *uint256.Int) []byte {
	word := v.Bytes32()
	return word[:]
}

func packString(s string) []byte {
	out := packUint(uint256.NewInt(uint64(len(s))))
	padded := make([]byte, (len(s)+31)/32*32)
	copy(padded, s)
	return append(out, padded...)
}

// Unpack decodes data according to types. Integers decode to *big.Int (or
// uint8 for Uint8Ty), addresses to common.Address, strings to string.
func Unpack(types []Type, data []byte) ([]interface{}, error) {
	if len(data) < 32*len(types) {
		return nil, fmt.Errorf("%w: have %d bytes want at least %d", errShortData, len(data), 32*len(types))
	}
	out := make([]interface{}, len(types))
	for i, t := range types {
		word := data[32*i : 32*(i+1)]
		if t.dynamic() {
			s, err := unpackString(data, word)
			if err != nil {
				return nil, err
			}
			out[i] = s
			continue
		}
		v, err := unpackStatic(t, word)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func unpackStatic(t Type, word []byte) (interface{}, error) {
	switch t {
	case Uint256Ty:
		return new(big.Int).SetBytes(word), nil
	case Uint8Ty:
		v := new(uint256.Int).SetBytes(word)
		if !v.IsUint64() || v.Uint64() > 0xff {
			return nil, fmt.Errorf("%w: uint8 word %x", errValueRange, word)
		}
		return uint8(v.Uint64()), nil
	case AddressTy:
		return common.BytesToAddress(word), nil
	case BoolTy:
		for _, b := range word[:31] {
			if b != 0 {
				return nil, errBadBool
			}
		}
		switch word[31] {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return nil, errBadBool
	case Bytes32Ty:
		return common.BytesToHash(word), nil
	}
	return nil, fmt.Errorf("abi: unsupported static type %v", t)
}

func unpackString(data, offsetWord []byte) (string, error) {
	offset := new(uint256.Int).SetBytes(offsetWord)
	if len(data) < 32 || !offset.IsUint64() || offset.Uint64() > uint64(len(data)-32) {
		return "", errBadOffset
	}
	start := offset.Uint64()
	size := new(uint256.Int).SetBytes(data[start : start+32])
	if !size.IsUint64() || size.Uint64() > uint64(len(data))-start-32 {
		return "", fmt.Errorf("%w: string length", errShortData)
	}
	return string(data[start+32 : start+32+size.Uint64()]), nil
}
