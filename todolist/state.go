package todolist

import (
	"encoding/binary"
	"math/big"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/crypto"
)

const textChunkSize = 32

var (
	ownerSlot = common.BytesToHash(crypto.Keccak256([]byte("todolist\x00owner")))
	feeSlot   = common.BytesToHash(crypto.Keccak256([]byte("todolist\x00fee")))
	countSlot = common.BytesToHash(crypto.Keccak256([]byte("todolist\x00count")))
)

// itemSlot returns the base slot of the i-th item (0-based). The item fields
// live at fieldSlot(base, name).
func itemSlot(i uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], i)
	return common.BytesToHash(
		crypto.Keccak256(append([]byte("todolist\x00item\x00"), idx[:]...)))
}

func fieldSlot(base common.Hash, field string) common.Hash {
	buf := make([]byte, 0, len(base)+1+len(field))
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, field...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

func textChunkSlot(base common.Hash, index uint64) common.Hash {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], index)
	buf := make([]byte, 0, len(base)+1+len("textChunk")+8)
	buf = append(buf, base[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, "textChunk"...)
	buf = append(buf, idx[:]...)
	return common.BytesToHash(crypto.Keccak256(buf))
}

func readUint64(db vm.StateDB, contract common.Address, slot common.Hash) uint64 {
	raw := db.GetState(contract, slot)
	return binary.BigEndian.Uint64(raw[24:])
}

func writeUint64(db vm.StateDB, contract common.Address, slot common.Hash, n uint64) {
	var word common.Hash
	binary.BigEndian.PutUint64(word[24:], n)
	db.SetState(contract, slot, word)
}

func chunkCount(textLen uint64) uint64 {
	return (textLen + textChunkSize - 1) / textChunkSize
}

// IsTodoList reports whether addr holds a TodoList contract.
func IsTodoList(db vm.StateDB, addr common.Address) bool {
	return string(db.GetCode(addr)) == string(Code)
}

// ReadOwner returns the owner of the contract, the zero address once
// ownership is renounced.
func ReadOwner(db vm.StateDB, contract common.Address) common.Address {
	raw := db.GetState(contract, ownerSlot)
	return common.BytesToAddress(raw[12:])
}

func writeOwner(db vm.StateDB, contract, owner common.Address) {
	var val common.Hash
	copy(val[12:], owner.Bytes())
	db.SetState(contract, ownerSlot, val)
}

// ReadFee returns the creation fee fixed at deployment.
func ReadFee(db vm.StateDB, contract common.Address) *big.Int {
	return db.GetState(contract, feeSlot).Big()
}

func writeFee(db vm.StateDB, contract common.Address, fee *big.Int) {
	db.SetState(contract, feeSlot, common.BigToHash(fee))
}

// ReadCount returns the number of todos ever created, deleted ones included.
func ReadCount(db vm.StateDB, contract common.Address) uint64 {
	return readUint64(db, contract, countSlot)
}

// ReadTodo returns the i-th todo. ok is false when i is out of range or the
// item was deleted.
func ReadTodo(db vm.StateDB, contract common.Address, i uint64) (todo Todo, ok bool) {
	if i >= ReadCount(db, contract) {
		return Todo{}, false
	}
	base := itemSlot(i)
	if db.GetState(contract, fieldSlot(base, "live"))[31] == 0 {
		return Todo{}, false
	}
	status := db.GetState(contract, fieldSlot(base, "status"))
	return Todo{
		Definition: string(readText(db, contract, base)),
		Status:     Status(status[31]),
	}, true
}

func readText(db vm.StateDB, contract common.Address, base common.Hash) []byte {
	textLen := readUint64(db, contract, fieldSlot(base, "textLen"))
	text := make([]byte, textLen)
	for i := uint64(0); i < chunkCount(textLen); i++ {
		word := db.GetState(contract, textChunkSlot(base, i))
		start := i * textChunkSize
		end := start + textChunkSize
		if end > textLen {
			end = textLen
		}
		copy(text[start:end], word[:end-start])
	}
	return text
}

// writeItem stores todo at index i, clearing chunks left over from a longer
// previous text. It returns the number of storage words written.
func writeItem(db vm.StateDB, contract common.Address, i uint64, todo Todo) uint64 {
	var (
		base    = itemSlot(i)
		text    = []byte(todo.Definition)
		oldLen  = readUint64(db, contract, fieldSlot(base, "textLen"))
		written = uint64(3)
	)
	for c := uint64(0); c < chunkCount(uint64(len(text))); c++ {
		start := c * textChunkSize
		end := start + textChunkSize
		if end > uint64(len(text)) {
			end = uint64(len(text))
		}
		var word common.Hash
		copy(word[:], text[start:end])
		db.SetState(contract, textChunkSlot(base, c), word)
		written++
	}
	for c := chunkCount(uint64(len(text))); c < chunkCount(oldLen); c++ {
		db.SetState(contract, textChunkSlot(base, c), common.Hash{})
		written++
	}
	writeUint64(db, contract, fieldSlot(base, "textLen"), uint64(len(text)))

	var status, live common.Hash
	status[31] = byte(todo.Status)
	live[31] = 1
	db.SetState(contract, fieldSlot(base, "status"), status)
	db.SetState(contract, fieldSlot(base, "live"), live)
	return written
}

// clearItem removes every slot of item i. The index stays allocated.
func clearItem(db vm.StateDB, contract common.Address, i uint64) uint64 {
	var (
		base    = itemSlot(i)
		oldLen  = readUint64(db, contract, fieldSlot(base, "textLen"))
		written = uint64(3)
	)
	for c := uint64(0); c < chunkCount(oldLen); c++ {
		db.SetState(contract, textChunkSlot(base, c), common.Hash{})
		written++
	}
	db.SetState(contract, fieldSlot(base, "textLen"), common.Hash{})
	db.SetState(contract, fieldSlot(base, "status"), common.Hash{})
	db.SetState(contract, fieldSlot(base, "live"), common.Hash{})
	return written
}

// appendItem stores todo at the end of the list and returns its index and
// the number of storage words written.
func appendItem(db vm.StateDB, contract common.Address, todo Todo) (uint64, uint64) {
	n := ReadCount(db, contract)
	written := writeItem(db, contract, n, todo)
	writeUint64(db, contract, countSlot, n+1)
	return n, written + 1
}
