// Copyright 2018 The go-ethereum Authors
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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/tos-network/todochain/common"
)

// The fields below define the low level database schema prefixing.
var (
	// headBlockKey tracks the latest known full block's hash.
	headBlockKey = []byte("LastBlock")

	// stateRootKey tracks the root of the latest committed state.
	stateRootKey = []byte("LastStateRoot")

	// Data item prefixes (use single byte to avoid mixing data types, avoid `i`, used for indexes).
	headerPrefix       = []byte("h") // headerPrefix + num (uint64 big endian) + hash -> header
	headerHashSuffix   = []byte("n") // headerPrefix + num (uint64 big endian) + headerHashSuffix -> hash
	headerNumberPrefix = []byte("H") // headerNumberPrefix + hash -> num (uint64 big endian)

	blockBodyPrefix     = []byte("b") // blockBodyPrefix + num (uint64 big endian) + hash -> block body
	blockReceiptsPrefix = []byte("r") // blockReceiptsPrefix + num (uint64 big endian) + hash -> block receipts

	txLookupPrefix = []byte("l") // txLookupPrefix + hash -> transaction lookup metadata

	accountPrefix = []byte("a") // accountPrefix + address -> account
	storagePrefix = []byte("o") // storagePrefix + address + slot -> storage value
	CodePrefix    = []byte("c") // CodePrefix + code hash -> contract code

	configPrefix = []byte("tos-config-") // config prefix for the db
)

const (
	// AccountKeyLength is the length of an account entry key.
	AccountKeyLength = 1 + common.AddressLength

	// StorageKeyLength is the length of a storage entry key.
	StorageKeyLength = 1 + common.AddressLength + common.HashLength
)

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// makeKey concatenates the parts into a freshly allocated key.
func makeKey(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	key := make([]byte, 0, n)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

// headerKeyPrefix = headerPrefix + num (uint64 big endian)
func headerKeyPrefix(number uint64) []byte {
	return makeKey(headerPrefix, encodeBlockNumber(number))
}

// headerKey = headerPrefix + num (uint64 big endian) + hash
func headerKey(number uint64, hash common.Hash) []byte {
	return makeKey(headerPrefix, encodeBlockNumber(number), hash.Bytes())
}

// headerHashKey = headerPrefix + num (uint64 big endian) + headerHashSuffix
func headerHashKey(number uint64) []byte {
	return makeKey(headerPrefix, encodeBlockNumber(number), headerHashSuffix)
}

// headerNumberKey = headerNumberPrefix + hash
func headerNumberKey(hash common.Hash) []byte {
	return makeKey(headerNumberPrefix, hash.Bytes())
}

// blockBodyKey = blockBodyPrefix + num (uint64 big endian) + hash
func blockBodyKey(number uint64, hash common.Hash) []byte {
	return makeKey(blockBodyPrefix, encodeBlockNumber(number), hash.Bytes())
}

// blockReceiptsKey = blockReceiptsPrefix + num (uint64 big endian) + hash
func blockReceiptsKey(number uint64, hash common.Hash) []byte {
	return makeKey(blockReceiptsPrefix, encodeBlockNumber(number), hash.Bytes())
}

// txLookupKey = txLookupPrefix + hash
func txLookupKey(hash common.Hash) []byte {
	return makeKey(txLookupPrefix, hash.Bytes())
}

// accountKey = accountPrefix + address
func accountKey(addr common.Address) []byte {
	return makeKey(accountPrefix, addr.Bytes())
}

// storageKey = storagePrefix + address + slot
func storageKey(addr common.Address, slot common.Hash) []byte {
	return makeKey(storagePrefix, addr.Bytes(), slot.Bytes())
}

// storagePrefixKey = storagePrefix + address
func storagePrefixKey(addr common.Address) []byte {
	return makeKey(storagePrefix, addr.Bytes())
}

// codeKey = CodePrefix + hash
func codeKey(hash common.Hash) []byte {
	return makeKey(CodePrefix, hash.Bytes())
}

// configKey = configPrefix + hash
func configKey(hash common.Hash) []byte {
	return makeKey(configPrefix, hash.Bytes())
}
