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

package rawdb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/tosdb"
)

// ReadCanonicalHash retrieves the hash assigned to a canonical block number.
func ReadCanonicalHash(db tosdb.KeyValueReader, number uint64) common.Hash {
	data, _ := db.Get(headerHashKey(number))
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteCanonicalHash stores the hash assigned to a canonical block number.
func WriteCanonicalHash(db tosdb.KeyValueWriter, hash common.Hash, number uint64) {
	if err := db.Put(headerHashKey(number), hash.Bytes()); err != nil {
		log.Crit("Failed to store number to hash mapping", "err", err)
	}
}

// DeleteCanonicalHash removes the number to hash canonical mapping.
func DeleteCanonicalHash(db tosdb.KeyValueWriter, number uint64) {
	if err := db.Delete(headerHashKey(number)); err != nil {
		log.Crit("Failed to delete number to hash mapping", "err", err)
	}
}

// ReadHeaderNumber returns the header number assigned to a hash.
func ReadHeaderNumber(db tosdb.KeyValueReader, hash common.Hash) *uint64 {
	data, _ := db.Get(headerNumberKey(hash))
	if len(data) != 8 {
		return nil
	}
	number := binary.BigEndian.Uint64(data)
	return &number
}

// ReadHeadBlockHash retrieves the hash of the current canonical head block.
func ReadHeadBlockHash(db tosdb.KeyValueReader) common.Hash {
	data, _ := db.Get(headBlockKey)
	if len(data) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(data)
}

// WriteHeadBlockHash stores the head block's hash.
func WriteHeadBlockHash(db tosdb.KeyValueWriter, hash common.Hash) {
	if err := db.Put(headBlockKey, hash.Bytes()); err != nil {
		log.Crit("Failed to store last block's hash", "err", err)
	}
}

// ReadHeader retrieves the block header corresponding to the hash.
func ReadHeader(db tosdb.KeyValueReader, hash common.Hash, number uint64) *types.Header {
	data, _ := db.Get(headerKey(number, hash))
	if len(data) == 0 {
		return nil
	}
	header := new(types.Header)
	if err := json.Unmarshal(data, header); err != nil {
		log.Error("Invalid block header JSON", "hash", hash, "err", err)
		return nil
	}
	return header
}

// WriteHeader stores a block header into the database and also stores the hash-
// to-number mapping.
func WriteHeader(db tosdb.KeyValueWriter, header *types.Header) {
	var (
		hash   = header.Hash()
		number = header.Number.Uint64()
	)
	// Write the hash -> number mapping
	if err := db.Put(headerNumberKey(hash), encodeBlockNumber(number)); err != nil {
		log.Crit("Failed to store hash to number mapping", "err", err)
	}
	// Write the encoded header
	data, err := json.Marshal(header)
	if err != nil {
		log.Crit("Failed to encode header", "err", err)
	}
	if err := db.Put(headerKey(number, hash), data); err != nil {
		log.Crit("Failed to store header", "err", err)
	}
}

// ReadBody retrieves the transactions of the block corresponding to the hash.
func ReadBody(db tosdb.KeyValueReader, hash common.Hash, number uint64) types.Transactions {
	data, _ := db.Get(blockBodyKey(number, hash))
	if len(data) == 0 {
		return nil
	}
	var txs types.Transactions
	if err := json.Unmarshal(data, &txs); err != nil {
		log.Error("Invalid block body JSON", "hash", hash, "err", err)
		return nil
	}
	return txs
}

// WriteBody stores a block body into the database.
func WriteBody(db tosdb.KeyValueWriter, hash common.Hash, number uint64, txs types.Transactions) {
	if txs == nil {
		txs = types.Transactions{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		log.Crit("Failed to encode body", "err", err)
	}
	if err := db.Put(blockBodyKey(number, hash), data); err != nil {
		log.Crit("Failed to store block body", "err", err)
	}
}

// ReadBlock retrieves an entire block corresponding to the hash, assembling it
// back from the stored header and body. If either the header or body could not
// be retrieved nil is returned.
func ReadBlock(db tosdb.KeyValueReader, hash common.Hash, number uint64) *types.Block {
	header := ReadHeader(db, hash, number)
	if header == nil {
		return nil
	}
	body := ReadBody(db, hash, number)
	if body == nil {
		return nil
	}
	return types.NewBlockWithHeader(header).WithBody(body)
}

// WriteBlock serializes a block into the database, header and body separately.
func WriteBlock(db tosdb.KeyValueWriter, block *types.Block) {
	WriteBody(db, block.Hash(), block.NumberU64(), block.Transactions())
	WriteHeader(db, block.Header())
}

// ReadReceipts retrieves all the transaction receipts belonging to a block.
// The receipts are stored with their derived fields already filled in.
func ReadReceipts(db tosdb.KeyValueReader, hash common.Hash, number uint64) types.Receipts {
	data, _ := db.Get(blockReceiptsKey(number, hash))
	if len(data) == 0 {
		return nil
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		log.Error("Invalid compressed receipt array", "hash", hash, "err", err)
		return nil
	}
	var receipts types.Receipts
	if err := json.Unmarshal(raw, &receipts); err != nil {
		log.Error("Invalid receipt array JSON", "hash", hash, "err", err)
		return nil
	}
	return receipts
}

// WriteReceipts stores all the transaction receipts belonging to a block.
func WriteReceipts(db tosdb.KeyValueWriter, hash common.Hash, number uint64, receipts types.Receipts) {
	if receipts == nil {
		receipts = types.Receipts{}
	}
	raw, err := json.Marshal(receipts)
	if err != nil {
		log.Crit("Failed to encode block receipts", "err", err)
	}
	if err := db.Put(blockReceiptsKey(number, hash), snappy.Encode(nil, raw)); err != nil {
		log.Crit("Failed to store block receipts", "err", err)
	}
}

// ReadTxLookupEntry retrieves the number of the block containing the
// transaction.
func ReadTxLookupEntry(db tosdb.KeyValueReader, hash common.Hash) *uint64 {
	data, _ := db.Get(txLookupKey(hash))
	if len(data) != 8 {
		return nil
	}
	number := binary.BigEndian.Uint64(data)
	return &number
}

// WriteTxLookupEntriesByBlock stores a positional metadata for every transaction
// from a block, enabling hash based transaction and receipt lookups.
func WriteTxLookupEntriesByBlock(db tosdb.KeyValueWriter, block *types.Block) {
	number := encodeBlockNumber(block.NumberU64())
	for _, tx := range block.Transactions() {
		if err := db.Put(txLookupKey(tx.Hash()), number); err != nil {
			log.Crit("Failed to store transaction lookup entry", "err", err)
		}
	}
}

// ReadReceipt retrieves a specific transaction receipt from the database, along
// with its added positional metadata.
func ReadReceipt(db tosdb.KeyValueReader, hash common.Hash) (*types.Receipt, common.Hash, uint64, uint64) {
	number := ReadTxLookupEntry(db, hash)
	if number == nil {
		return nil, common.Hash{}, 0, 0
	}
	blockHash := ReadCanonicalHash(db, *number)
	if blockHash == (common.Hash{}) {
		return nil, common.Hash{}, 0, 0
	}
	receipts := ReadReceipts(db, blockHash, *number)
	for receiptIndex, receipt := range receipts {
		if receipt.TxHash == hash {
			return receipt, blockHash, *number, uint64(receiptIndex)
		}
	}
	log.Error("Receipt not found", "number", *number, "hash", blockHash, "txhash", hash)
	return nil, common.Hash{}, 0, 0
}
