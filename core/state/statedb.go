// Copyright 2014 The go-ethereum Authors
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

// Package state provides a caching layer atop the flat account state.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/crypto"
)

// ErrStateUnavailable is returned when a state other than the latest
// committed one is requested. State is stored flat, without history.
var ErrStateUnavailable = errors.New("state unavailable")

type revision struct {
	id           int
	journalIndex int
}

// StateDB structs within the ledger protocol are used to store anything
// within the account state. It takes care of caching and storing
// nested states. It's the general query interface to retrieve:
// * Contracts
// * Accounts
type StateDB struct {
	db   Database
	root common.Hash // root of the state this StateDB was opened at

	// This map holds 'live' objects, which will get modified while processing a state transition.
	stateObjects      map[common.Address]*stateObject
	stateObjectsDirty map[common.Address]struct{} // State objects modified in the current execution

	// DB error.
	// State objects are used by the consensus core which are unable to deal with
	// database-level errors. Any error that occurs during a database read is
	// memoized here and will eventually be returned by StateDB.Commit.
	dbErr error

	thash   common.Hash
	txIndex int
	logs    map[common.Hash][]*types.Log
	logSize uint

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

// New creates a new state from the given state root. Only the latest
// committed root (or the zero hash on an empty database) can be opened.
func New(root common.Hash, db Database) (*StateDB, error) {
	if latest := db.Root(); root != latest {
		return nil, fmt.Errorf("%w: have %x, latest %x", ErrStateUnavailable, root, latest)
	}
	return &StateDB{
		db:                db,
		root:              root,
		stateObjects:      make(map[common.Address]*stateObject),
		stateObjectsDirty: make(map[common.Address]struct{}),
		logs:              make(map[common.Hash][]*types.Log),
		journal:           newJournal(),
	}, nil
}

// setError remembers the first non-nil error it is called with.
func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the memoized database failure.
func (s *StateDB) Error() error {
	return s.dbErr
}

// Database retrieves the low level database supporting the lower level state
// operations.
func (s *StateDB) Database() Database {
	return s.db
}

// AddLog records a log emitted by the current transaction.
func (s *StateDB) AddLog(log *types.Log) {
	s.journal.append(addLogChange{txhash: s.thash})

	log.TxHash = s.thash
	log.TxIndex = uint(s.txIndex)
	log.Index = s.logSize
	s.logs[s.thash] = append(s.logs[s.thash], log)
	s.logSize++
}

// GetLogs returns the logs matching the specified transaction hash, and annotates
// them with the given blockNumber and blockHash.
func (s *StateDB) GetLogs(hash common.Hash, blockNumber uint64, blockHash common.Hash) []*types.Log {
	logs := s.logs[hash]
	for _, l := range logs {
		l.BlockNumber = blockNumber
		l.BlockHash = blockHash
	}
	return logs
}

// Logs returns every log recorded since the StateDB was opened.
func (s *StateDB) Logs() []*types.Log {
	var logs []*types.Log
	for _, lgs := range s.logs {
		logs = append(logs, lgs...)
	}
	return logs
}

// Exist reports whether the given account address exists in the state.
// Notably this also returns true for empty accounts.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty returns whether the state object is either non-existent
// or empty according to the empty definition (balance = nonce = code = 0)
func (s *StateDB) Empty(addr common.Address) bool {
	so := s.getStateObject(addr)
	return so == nil || so.empty()
}

// GetBalance retrieves the balance from the given address or 0 if object not found
func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return new(big.Int).Set(stateObject.Balance())
	}
	return new(big.Int)
}

// GetNonce retrieves the nonce from the given address or 0 if object not found.
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Nonce()
	}
	return 0
}

// TxIndex returns the current transaction index set by Prepare.
func (s *StateDB) TxIndex() int {
	return s.txIndex
}

// GetCode returns the contract code of addr.
func (s *StateDB) GetCode(addr common.Address) []byte {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Code()
	}
	return nil
}

// GetCodeSize returns the contract code size of addr.
func (s *StateDB) GetCodeSize(addr common.Address) int {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.CodeSize()
	}
	return 0
}

// GetCodeHash returns the code hash of addr, or the zero hash if the account
// does not exist.
func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject == nil {
		return common.Hash{}
	}
	return stateObject.CodeHash()
}

// GetState retrieves a value from the given account's storage.
func (s *StateDB) GetState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetState(hash)
	}
	return common.Hash{}
}

// GetCommittedState retrieves a value from the given account's committed storage.
func (s *StateDB) GetCommittedState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetCommittedState(hash)
	}
	return common.Hash{}
}

/*
 * SETTERS
 */

// AddBalance adds amount to the account associated with addr.
func (s *StateDB) AddBalance(addr common.Address, amount *big.Int) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.AddBalance(amount)
	}
}

// SubBalance subtracts amount from the account associated with addr.
func (s *StateDB) SubBalance(addr common.Address, amount *big.Int) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SubBalance(amount)
	}
}

// SetBalance overwrites the balance of addr.
func (s *StateDB) SetBalance(addr common.Address, amount *big.Int) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetBalance(amount)
	}
}

// SetNonce overwrites the nonce of addr.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetNonce(nonce)
	}
}

// SetCode stores code at addr.
func (s *StateDB) SetCode(addr common.Address, code []byte) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetCode(crypto.Keccak256Hash(code), code)
	}
}

// SetState updates a storage slot of addr.
func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	stateObject := s.GetOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetState(key, value)
	}
}

// getStateObject retrieves a state object given by the address, returning nil if
// the object is not found.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	// Prefer live objects if any is available
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	data := s.db.Account(addr)
	if data == nil {
		return nil
	}
	// Insert into the live set
	obj := newObject(s, addr, *data)
	s.stateObjects[addr] = obj
	return obj
}

// GetOrNewStateObject retrieves a state object or create a new state object if nil.
func (s *StateDB) GetOrNewStateObject(addr common.Address) *stateObject {
	stateObject := s.getStateObject(addr)
	if stateObject == nil {
		stateObject = s.createObject(addr)
	}
	return stateObject
}

// createObject creates a new state object. If there is an existing account with
// the given address, it is overwritten.
func (s *StateDB) createObject(addr common.Address) *stateObject {
	newobj := newObject(s, addr, types.StateAccount{})
	s.journal.append(createObjectChange{account: &addr})
	s.stateObjects[addr] = newobj
	return newobj
}

// CreateAccount explicitly creates a state object. If a state object with the
// address already exists the balance is carried over to the new account.
func (s *StateDB) CreateAccount(addr common.Address) {
	prev := s.getStateObject(addr)
	newObj := s.createObject(addr)
	if prev != nil {
		newObj.setBalance(new(big.Int).Set(prev.data.Balance))
	}
}

// Copy creates a deep, independent copy of the state.
// Snapshots of the copied state cannot be applied to the copy.
func (s *StateDB) Copy() *StateDB {
	state := &StateDB{
		db:                s.db,
		root:              s.root,
		stateObjects:      make(map[common.Address]*stateObject, len(s.stateObjects)),
		stateObjectsDirty: make(map[common.Address]struct{}, len(s.stateObjectsDirty)),
		logs:              make(map[common.Hash][]*types.Log, len(s.logs)),
		logSize:           s.logSize,
		thash:             s.thash,
		txIndex:           s.txIndex,
		journal:           newJournal(),
	}
	for addr, obj := range s.stateObjects {
		state.stateObjects[addr] = obj.deepCopy(state)
	}
	for addr := range s.stateObjectsDirty {
		state.stateObjectsDirty[addr] = struct{}{}
	}
	for hash, logs := range s.logs {
		cpy := make([]*types.Log, len(logs))
		for i, l := range logs {
			cpy[i] = new(types.Log)
			*cpy[i] = *l
		}
		state.logs[hash] = cpy
	}
	return state
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= revid
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// Finalise moves the journal's dirty set into the pending commit set and
// drops the revision stack. It is called at the end of every transaction.
func (s *StateDB) Finalise() {
	for addr := range s.journal.dirties {
		if _, exist := s.stateObjects[addr]; !exist {
			continue
		}
		s.stateObjectsDirty[addr] = struct{}{}
	}
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
}

// Prepare sets the current transaction hash and index which are
// used when the logs are recorded.
func (s *StateDB) Prepare(thash common.Hash, ti int) {
	s.thash = thash
	s.txIndex = ti
}

// dirtyAddresses returns the accounts changed since the last commit, in
// ascending order.
func (s *StateDB) dirtyAddresses() addresses {
	dirty := make(addresses, 0, len(s.stateObjectsDirty))
	for addr := range s.stateObjectsDirty {
		dirty = append(dirty, addr)
	}
	sort.Sort(dirty)
	return dirty
}

// computeRoot folds the previous root with every account and storage slot
// changed since the last commit, in sorted order. An unchanged state keeps
// its root.
func (s *StateDB) computeRoot(dirty addresses) (common.Hash, error) {
	if len(dirty) == 0 {
		return s.root, nil
	}
	hasher := crypto.NewKeccakState()
	hasher.Write(s.root.Bytes())
	for _, addr := range dirty {
		obj := s.stateObjects[addr]
		enc, err := json.Marshal(&obj.data)
		if err != nil {
			return common.Hash{}, err
		}
		hasher.Write(addr.Bytes())
		hasher.Write(enc)

		slots := make(hashes, 0, len(obj.dirtyStorage))
		for key := range obj.dirtyStorage {
			slots = append(slots, key)
		}
		sort.Sort(slots)
		for _, key := range slots {
			hasher.Write(key.Bytes())
			hasher.Write(obj.dirtyStorage[key].Bytes())
		}
	}
	var root common.Hash
	hasher.Read(root[:])
	return root, nil
}

// IntermediateRoot computes the root the state would have if committed now.
// It finalises pending changes but writes nothing.
func (s *StateDB) IntermediateRoot() (common.Hash, error) {
	s.Finalise()
	return s.computeRoot(s.dirtyAddresses())
}

// Commit writes the state to the underlying database and returns the new
// state root.
func (s *StateDB) Commit() (common.Hash, error) {
	if s.dbErr != nil {
		return common.Hash{}, fmt.Errorf("commit aborted due to earlier error: %v", s.dbErr)
	}
	defer commitTimer.UpdateSince(time.Now())

	s.Finalise()
	dirty := s.dirtyAddresses()
	root, err := s.computeRoot(dirty)
	if err != nil {
		return common.Hash{}, err
	}
	batch := s.db.DiskDB().NewBatch()
	for _, addr := range dirty {
		obj := s.stateObjects[addr]
		if obj.dirtyCode && len(obj.code) > 0 {
			rawdb.WriteCode(batch, obj.data.CodeHash, obj.code)
			s.db.cacheCode(obj.data.CodeHash, obj.code)
		}
		obj.dirtyCode = false
		rawdb.WriteAccount(batch, addr, &obj.data)
		accountUpdatedMeter.Mark(1)

		for key, value := range obj.dirtyStorage {
			rawdb.WriteStorage(batch, addr, key, value)
			obj.originStorage[key] = value
		}
		storageUpdatedMeter.Mark(int64(len(obj.dirtyStorage)))
	}
	rawdb.WriteStateRoot(batch, root)
	if err := batch.Write(); err != nil {
		return common.Hash{}, err
	}
	// Refresh the clean caches only after the batch hit the disk.
	for _, addr := range dirty {
		obj := s.stateObjects[addr]
		for key, value := range obj.dirtyStorage {
			s.db.cacheStorage(addr, key, value)
		}
		obj.dirtyStorage = make(Storage)
	}
	s.stateObjectsDirty = make(map[common.Address]struct{})
	s.root = root
	return root, nil
}
