package rawdb

import (
	"bytes"
	"encoding/json"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/tosdb"
)

// ReadStateRoot retrieves the root of the latest committed state.
func ReadStateRoot(db tosdb.KeyValueReader) common.Hash {
	data, _ := db.Get(stateRootKey)
	return common.BytesToHash(data)
}

// WriteStateRoot stores the root of the latest committed state.
func WriteStateRoot(db tosdb.KeyValueWriter, root common.Hash) {
	if err := db.Put(stateRootKey, root.Bytes()); err != nil {
		log.Crit("Failed to store state root", "err", err)
	}
}

// ReadAccount retrieves the account stored at addr, or nil if none exists.
func ReadAccount(db tosdb.KeyValueReader, addr common.Address) *types.StateAccount {
	data, _ := db.Get(accountKey(addr))
	if len(data) == 0 {
		return nil
	}
	account := new(types.StateAccount)
	if err := json.Unmarshal(data, account); err != nil {
		log.Error("Invalid account JSON", "address", addr, "err", err)
		return nil
	}
	return account
}

// WriteAccount stores an account record.
func WriteAccount(db tosdb.KeyValueWriter, addr common.Address, account *types.StateAccount) {
	data, err := json.Marshal(account)
	if err != nil {
		log.Crit("Failed to encode account", "err", err)
	}
	if err := db.Put(accountKey(addr), data); err != nil {
		log.Crit("Failed to store account", "err", err)
	}
}

// DeleteAccount removes an account record.
func DeleteAccount(db tosdb.KeyValueWriter, addr common.Address) {
	if err := db.Delete(accountKey(addr)); err != nil {
		log.Crit("Failed to delete account", "err", err)
	}
}

// ReadStorage retrieves a storage slot of an account. Missing slots read as
// the zero hash.
func ReadStorage(db tosdb.KeyValueReader, addr common.Address, slot common.Hash) common.Hash {
	data, _ := db.Get(storageKey(addr, slot))
	return common.BytesToHash(data)
}

// WriteStorage stores a storage slot. Zero values are deleted instead, so the
// absence of a key and a zero slot are indistinguishable.
func WriteStorage(db tosdb.KeyValueWriter, addr common.Address, slot, value common.Hash) {
	if value == (common.Hash{}) {
		if err := db.Delete(storageKey(addr, slot)); err != nil {
			log.Crit("Failed to delete storage slot", "err", err)
		}
		return
	}
	if err := db.Put(storageKey(addr, slot), bytes.TrimLeft(value.Bytes(), "\x00")); err != nil {
		log.Crit("Failed to store storage slot", "err", err)
	}
}

// IterateStorage calls fn for every non-zero storage slot of addr in slot
// order until fn returns false.
func IterateStorage(db tosdb.Iteratee, addr common.Address, fn func(slot, value common.Hash) bool) error {
	it := db.NewIterator(storagePrefixKey(addr), nil)
	defer it.Release()

	for it.Next() {
		key := it.Key()
		if len(key) != StorageKeyLength {
			continue
		}
		if !fn(common.BytesToHash(key[1+common.AddressLength:]), common.BytesToHash(it.Value())) {
			break
		}
	}
	return it.Error()
}

// ReadCode retrieves the contract code of the provided code hash.
func ReadCode(db tosdb.KeyValueReader, hash common.Hash) []byte {
	data, _ := db.Get(codeKey(hash))
	return data
}

// HasCode checks if the contract code corresponding to the
// provided code hash is present in the db.
func HasCode(db tosdb.KeyValueReader, hash common.Hash) bool {
	ok, _ := db.Has(codeKey(hash))
	return ok
}

// WriteCode writes the provided contract code database.
func WriteCode(db tosdb.KeyValueWriter, hash common.Hash, code []byte) {
	if err := db.Put(codeKey(hash), code); err != nil {
		log.Crit("Failed to store contract code", "err", err)
	}
}

// DeleteCode deletes the specified contract code from the database.
func DeleteCode(db tosdb.KeyValueWriter, hash common.Hash) {
	if err := db.Delete(codeKey(hash)); err != nil {
		log.Crit("Failed to delete contract code", "err", err)
	}
}
