// Copyright 2017 The go-ethereum Authors
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

package state

import (
	"errors"

	"github.com/VictoriaMetrics/fastcache"
	lru "github.com/hashicorp/golang-lru"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/tosdb"
)

const (
	// Number of codehash->code associations to keep.
	codeCacheSize = 1024

	// Size in bytes of the clean storage cache.
	storageCacheSize = 16 * 1024 * 1024
)

// errMissingCode is returned when an account references code that is not in
// the database.
var errMissingCode = errors.New("missing contract code")

// Database wraps access to the flat account, storage and code records.
type Database interface {
	// Account retrieves the stored account at addr, or nil.
	Account(addr common.Address) *types.StateAccount

	// Storage retrieves a storage slot of addr.
	Storage(addr common.Address, slot common.Hash) common.Hash

	// ContractCode retrieves a particular contract's code.
	ContractCode(codeHash common.Hash) ([]byte, error)

	// ContractCodeSize retrieves a particular contracts code's size.
	ContractCodeSize(codeHash common.Hash) (int, error)

	// Root returns the root of the latest committed state.
	Root() common.Hash

	// DiskDB returns the underlying key-value disk database.
	DiskDB() tosdb.KeyValueStore

	// commit applies a committed state to the caches after it has been
	// written to disk.
	cacheStorage(addr common.Address, slot, value common.Hash)
	cacheCode(codeHash common.Hash, code []byte)
}

// NewDatabase creates a backing store for state. The returned database is safe for
// concurrent use, but does not retain any recent states in memory.
func NewDatabase(db tosdb.KeyValueStore) Database {
	csc, _ := lru.New(codeCacheSize)
	return &cachingDB{
		disk:         db,
		codeCache:    csc,
		storageCache: fastcache.New(storageCacheSize),
	}
}

type cachingDB struct {
	disk         tosdb.KeyValueStore
	codeCache    *lru.Cache
	storageCache *fastcache.Cache
}

// Account retrieves the stored account at addr, or nil.
func (db *cachingDB) Account(addr common.Address) *types.StateAccount {
	return rawdb.ReadAccount(db.disk, addr)
}

// Storage retrieves a storage slot through the clean cache.
func (db *cachingDB) Storage(addr common.Address, slot common.Hash) common.Hash {
	key := append(addr.Bytes(), slot.Bytes()...)
	if blob, found := db.storageCache.HasGet(nil, key); found {
		storageCacheHitMeter.Mark(1)
		return common.BytesToHash(blob)
	}
	storageCacheMissMeter.Mark(1)
	value := rawdb.ReadStorage(db.disk, addr, slot)
	db.storageCache.Set(key, value.Bytes())
	return value
}

// ContractCode retrieves a particular contract's code.
func (db *cachingDB) ContractCode(codeHash common.Hash) ([]byte, error) {
	if code, ok := db.codeCache.Get(codeHash); ok {
		return code.([]byte), nil
	}
	code := rawdb.ReadCode(db.disk, codeHash)
	if len(code) > 0 {
		db.codeCache.Add(codeHash, code)
		return code, nil
	}
	return nil, errMissingCode
}

// ContractCodeSize retrieves a particular contracts code's size.
func (db *cachingDB) ContractCodeSize(codeHash common.Hash) (int, error) {
	code, err := db.ContractCode(codeHash)
	return len(code), err
}

// Root returns the root of the latest committed state.
func (db *cachingDB) Root() common.Hash {
	return rawdb.ReadStateRoot(db.disk)
}

// DiskDB returns the underlying key-value disk database.
func (db *cachingDB) DiskDB() tosdb.KeyValueStore {
	return db.disk
}

func (db *cachingDB) cacheStorage(addr common.Address, slot, value common.Hash) {
	db.storageCache.Set(append(addr.Bytes(), slot.Bytes()...), value.Bytes())
}

func (db *cachingDB) cacheCode(codeHash common.Hash, code []byte) {
	db.codeCache.Add(codeHash, code)
}
