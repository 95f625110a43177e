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

// Package types contains data types related to the ledger.
package types

import (
	"bytes"
	"encoding/json"
	"math/big"
	"sync/atomic"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/crypto"
)

// EmptyRootHash is the known root hash of an empty list.
var EmptyRootHash = crypto.Keccak256Hash(nil)

// Header represents a block header.
type Header struct {
	ParentHash  common.Hash    `json:"parentHash"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Number      *big.Int       `json:"number"`
	GasLimit    uint64         `json:"gasLimit"`
	GasUsed     uint64         `json:"gasUsed"`
	Time        uint64         `json:"timestamp"`
}

type headerMarshaling struct {
	ParentHash  common.Hash    `json:"parentHash"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Number      *hexutil.Big   `json:"number"`
	GasLimit    hexutil.Uint64 `json:"gasLimit"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
	Time        hexutil.Uint64 `json:"timestamp"`
}

// MarshalJSON marshals as JSON.
func (h Header) MarshalJSON() ([]byte, error) {
	return json.Marshal(&headerMarshaling{
		ParentHash:  h.ParentHash,
		Coinbase:    h.Coinbase,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ReceiptHash: h.ReceiptHash,
		Number:      (*hexutil.Big)(h.Number),
		GasLimit:    hexutil.Uint64(h.GasLimit),
		GasUsed:     hexutil.Uint64(h.GasUsed),
		Time:        hexutil.Uint64(h.Time),
	})
}

// UnmarshalJSON unmarshals from JSON.
func (h *Header) UnmarshalJSON(input []byte) error {
	var dec headerMarshaling
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	h.ParentHash = dec.ParentHash
	h.Coinbase = dec.Coinbase
	h.Root = dec.Root
	h.TxHash = dec.TxHash
	h.ReceiptHash = dec.ReceiptHash
	h.Number = new(big.Int)
	if dec.Number != nil {
		h.Number = dec.Number.ToInt()
	}
	h.GasLimit = uint64(dec.GasLimit)
	h.GasUsed = uint64(dec.GasUsed)
	h.Time = uint64(dec.Time)
	return nil
}

// Hash returns the block hash of the header, which is simply the keccak256
// hash of its JSON encoding.
func (h *Header) Hash() common.Hash {
	enc, _ := json.Marshal(h)
	return crypto.Keccak256Hash(enc)
}

// CopyHeader creates a deep copy of a block header to prevent side effects from
// modifying a header variable.
func CopyHeader(h *Header) *Header {
	cpy := *h
	if cpy.Number = new(big.Int); h.Number != nil {
		cpy.Number.Set(h.Number)
	}
	return &cpy
}

// Block represents an entire block in the ledger.
type Block struct {
	header       *Header
	transactions Transactions

	// caches
	hash atomic.Value
}

// NewBlock creates a new block. The input data is copied, changes to header
// and to the field values will not affect the block.
//
// The values of TxHash, ReceiptHash and GasUsed in header are ignored and set
// to values derived from the given txs and receipts.
func NewBlock(header *Header, txs []*Transaction, receipts []*Receipt) *Block {
	b := &Block{header: CopyHeader(header)}

	if len(txs) == 0 {
		b.header.TxHash = EmptyRootHash
	} else {
		b.header.TxHash = DeriveSha(Transactions(txs))
		b.transactions = make(Transactions, len(txs))
		copy(b.transactions, txs)
	}
	if len(receipts) == 0 {
		b.header.ReceiptHash = EmptyRootHash
	} else {
		b.header.ReceiptHash = DeriveSha(Receipts(receipts))
		b.header.GasUsed = receipts[len(receipts)-1].CumulativeGasUsed
	}
	return b
}

// NewBlockWithHeader creates a block with the given header data. The
// header data is copied, changes to header and to the field values
// will not affect the block.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: CopyHeader(header)}
}

// WithBody returns a new block with the given transaction contents.
func (b *Block) WithBody(transactions []*Transaction) *Block {
	block := &Block{
		header:       CopyHeader(b.header),
		transactions: make([]*Transaction, len(transactions)),
	}
	copy(block.transactions, transactions)
	return block
}

func (b *Block) Transactions() Transactions { return b.transactions }

func (b *Block) Transaction(hash common.Hash) *Transaction {
	for _, transaction := range b.transactions {
		if transaction.Hash() == hash {
			return transaction
		}
	}
	return nil
}

func (b *Block) Number() *big.Int         { return new(big.Int).Set(b.header.Number) }
func (b *Block) GasLimit() uint64         { return b.header.GasLimit }
func (b *Block) GasUsed() uint64          { return b.header.GasUsed }
func (b *Block) Time() uint64             { return b.header.Time }
func (b *Block) NumberU64() uint64        { return b.header.Number.Uint64() }
func (b *Block) Coinbase() common.Address { return b.header.Coinbase }
func (b *Block) Root() common.Hash        { return b.header.Root }
func (b *Block) ParentHash() common.Hash  { return b.header.ParentHash }
func (b *Block) TxHash() common.Hash      { return b.header.TxHash }
func (b *Block) ReceiptHash() common.Hash { return b.header.ReceiptHash }
func (b *Block) Header() *Header          { return CopyHeader(b.header) }

// Hash returns the keccak256 hash of b's header.
// The hash is computed on the first call and cached thereafter.
func (b *Block) Hash() common.Hash {
	if hash := b.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := b.header.Hash()
	b.hash.Store(v)
	return v
}

// DerivableList is the input to DeriveSha.
// It is implemented by the 'Transactions' and 'Receipts' types.
type DerivableList interface {
	Len() int
	EncodeIndex(int, *bytes.Buffer)
}

// DeriveSha folds the consensus encodings of the list items into a single
// keccak256 commitment.
func DeriveSha(list DerivableList) common.Hash {
	var (
		hasher = crypto.NewKeccakState()
		buf    = new(bytes.Buffer)
	)
	for i := 0; i < list.Len(); i++ {
		buf.Reset()
		list.EncodeIndex(i, buf)
		hasher.Write(crypto.Keccak256(buf.Bytes()))
	}
	var h common.Hash
	hasher.Read(h[:])
	return h
}
