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

package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/crypto"
)

var (
	ErrInvalidSig         = errors.New("invalid transaction v, r, s values")
	ErrTxTypeNotSupported = errors.New("transaction type not supported")
	ErrInvalidTxEncoding  = errors.New("invalid transaction encoding")
)

// TxData is the underlying data of a transaction.
type TxData struct {
	ChainID  *big.Int        `json:"chainId"`
	Nonce    uint64          `json:"nonce"`
	To       *common.Address `json:"to"`
	Value    *big.Int        `json:"value"`
	Gas      uint64          `json:"gas"`
	GasPrice *big.Int        `json:"gasPrice"`
	Data     []byte          `json:"input"`

	// Signature values
	V *big.Int `json:"v"`
	R *big.Int `json:"r"`
	S *big.Int `json:"s"`
}

func (tx *TxData) copy() *TxData {
	cpy := &TxData{
		Nonce: tx.Nonce,
		To:    copyAddressPtr(tx.To),
		Data:  common.CopyBytes(tx.Data),
		Gas:   tx.Gas,
		// These are initialized below.
		ChainID:  new(big.Int),
		Value:    new(big.Int),
		GasPrice: new(big.Int),
		V:        new(big.Int),
		R:        new(big.Int),
		S:        new(big.Int),
	}
	if tx.ChainID != nil {
		cpy.ChainID.Set(tx.ChainID)
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	if tx.GasPrice != nil {
		cpy.GasPrice.Set(tx.GasPrice)
	}
	if tx.V != nil {
		cpy.V.Set(tx.V)
	}
	if tx.R != nil {
		cpy.R.Set(tx.R)
	}
	if tx.S != nil {
		cpy.S.Set(tx.S)
	}
	return cpy
}

// Transaction is a signed ledger transaction.
type Transaction struct {
	inner *TxData

	// caches
	hash atomic.Value
	from atomic.Value
}

// NewTx creates a new transaction.
func NewTx(inner *TxData) *Transaction {
	return &Transaction{inner: inner.copy()}
}

// NewTransaction creates an unsigned transaction.
func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return NewTx(&TxData{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
}

// ChainId returns the chain ID the transaction was signed for.
func (tx *Transaction) ChainId() *big.Int { return new(big.Int).Set(tx.inner.ChainID) }

// Data returns the input data of the transaction.
func (tx *Transaction) Data() []byte { return common.CopyBytes(tx.inner.Data) }

// Gas returns the gas limit of the transaction.
func (tx *Transaction) Gas() uint64 { return tx.inner.Gas }

// GasPrice returns the gas price of the transaction.
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.inner.GasPrice) }

// Value returns the amount transferred by the transaction.
func (tx *Transaction) Value() *big.Int { return new(big.Int).Set(tx.inner.Value) }

// Nonce returns the sender account nonce of the transaction.
func (tx *Transaction) Nonce() uint64 { return tx.inner.Nonce }

// To returns the recipient address of the transaction.
// For contract-creation transactions, To returns nil.
func (tx *Transaction) To() *common.Address { return copyAddressPtr(tx.inner.To) }

// Cost returns gas * gasPrice + value.
func (tx *Transaction) Cost() *big.Int {
	total := new(big.Int).Mul(tx.inner.GasPrice, new(big.Int).SetUint64(tx.inner.Gas))
	total.Add(total, tx.inner.Value)
	return total
}

// RawSignatureValues returns the V, R, S signature values of the transaction.
// The return values should not be modified by the caller.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.inner.V, tx.inner.R, tx.inner.S
}

// Hash returns the transaction hash.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	enc, _ := tx.MarshalBinary()
	h := crypto.Keccak256Hash(enc)
	tx.hash.Store(h)
	return h
}

// WithSignature returns a new transaction with the given signature.
// This signature needs to be in the [R || S || V] format where V is 0 or 1.
func (tx *Transaction) WithSignature(signer Signer, sig []byte) (*Transaction, error) {
	r, s, v, err := signer.SignatureValues(tx, sig)
	if err != nil {
		return nil, err
	}
	cpy := tx.inner.copy()
	cpy.ChainID = signer.ChainID()
	cpy.V, cpy.R, cpy.S = v, r, s
	return &Transaction{inner: cpy}, nil
}

type txMarshaling struct {
	ChainID  *hexutil.Big    `json:"chainId"`
	Nonce    hexutil.Uint64  `json:"nonce"`
	To       *common.Address `json:"to"`
	Value    *hexutil.Big    `json:"value"`
	Gas      hexutil.Uint64  `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Data     hexutil.Bytes   `json:"input"`
	V        *hexutil.Big    `json:"v"`
	R        *hexutil.Big    `json:"r"`
	S        *hexutil.Big    `json:"s"`
	Hash     *common.Hash    `json:"hash,omitempty"`
}

func (tx *Transaction) marshaling() txMarshaling {
	return txMarshaling{
		ChainID:  (*hexutil.Big)(tx.inner.ChainID),
		Nonce:    hexutil.Uint64(tx.inner.Nonce),
		To:       tx.inner.To,
		Value:    (*hexutil.Big)(tx.inner.Value),
		Gas:      hexutil.Uint64(tx.inner.Gas),
		GasPrice: (*hexutil.Big)(tx.inner.GasPrice),
		Data:     tx.inner.Data,
		V:        (*hexutil.Big)(tx.inner.V),
		R:        (*hexutil.Big)(tx.inner.R),
		S:        (*hexutil.Big)(tx.inner.S),
	}
}

// MarshalBinary returns the canonical encoding of the transaction. The
// encoding is a JSON object with a fixed field order, and it is the
// preimage of the transaction hash.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	enc := tx.marshaling()
	return json.Marshal(&enc)
}

// UnmarshalBinary decodes the canonical encoding of a transaction.
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	return tx.UnmarshalJSON(b)
}

// MarshalJSON marshals as JSON with the transaction hash.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	enc := tx.marshaling()
	hash := tx.Hash()
	enc.Hash = &hash
	return json.Marshal(&enc)
}

// UnmarshalJSON unmarshals from JSON.
func (tx *Transaction) UnmarshalJSON(input []byte) error {
	var dec txMarshaling
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.ChainID == nil || dec.Value == nil || dec.GasPrice == nil {
		return ErrInvalidTxEncoding
	}
	if dec.V == nil || dec.R == nil || dec.S == nil {
		return ErrInvalidSig
	}
	inner := &TxData{
		ChainID:  dec.ChainID.ToInt(),
		Nonce:    uint64(dec.Nonce),
		To:       dec.To,
		Value:    dec.Value.ToInt(),
		Gas:      uint64(dec.Gas),
		GasPrice: dec.GasPrice.ToInt(),
		Data:     dec.Data,
		V:        dec.V.ToInt(),
		R:        dec.R.ToInt(),
		S:        dec.S.ToInt(),
	}
	if dec.Hash != nil {
		*tx = Transaction{inner: inner}
		if tx.Hash() != *dec.Hash {
			return errors.New("transaction hash mismatch")
		}
		return nil
	}
	*tx = Transaction{inner: inner}
	return nil
}

// Transactions implements DerivableList for transactions.
type Transactions []*Transaction

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// EncodeIndex encodes the i'th transaction to w.
func (s Transactions) EncodeIndex(i int, w *bytes.Buffer) {
	enc, _ := s[i].MarshalBinary()
	w.Write(enc)
}

// Hashes returns the hashes of all transactions in order.
func (s Transactions) Hashes() []common.Hash {
	hashes := make([]common.Hash, len(s))
	for i, tx := range s {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// Message is a fully derived transaction and implements core.Message.
type Message struct {
	to       *common.Address
	from     common.Address
	nonce    uint64
	amount   *big.Int
	gasLimit uint64
	gasPrice *big.Int
	data     []byte
	isFake   bool
	txHash   common.Hash
}

// NewMessage builds a message outside of a transaction, used for read-only
// calls and tests.
func NewMessage(from common.Address, to *common.Address, nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte, isFake bool) Message {
	if amount == nil {
		amount = new(big.Int)
	}
	if gasPrice == nil {
		gasPrice = new(big.Int)
	}
	return Message{
		from:     from,
		to:       to,
		nonce:    nonce,
		amount:   amount,
		gasLimit: gasLimit,
		gasPrice: gasPrice,
		data:     data,
		isFake:   isFake,
	}
}

// AsMessage returns the transaction as a core.Message.
func (tx *Transaction) AsMessage(s Signer) (Message, error) {
	msg := Message{
		nonce:    tx.Nonce(),
		gasLimit: tx.Gas(),
		gasPrice: tx.GasPrice(),
		to:       tx.To(),
		amount:   tx.Value(),
		data:     tx.Data(),
		txHash:   tx.Hash(),
	}
	var err error
	msg.from, err = Sender(s, tx)
	return msg, err
}

func (m Message) From() common.Address { return m.from }
func (m Message) To() *common.Address  { return m.to }
func (m Message) GasPrice() *big.Int   { return m.gasPrice }
func (m Message) Value() *big.Int      { return m.amount }
func (m Message) Gas() uint64          { return m.gasLimit }
func (m Message) Nonce() uint64        { return m.nonce }
func (m Message) Data() []byte         { return m.data }
func (m Message) IsFake() bool         { return m.isFake }
func (m Message) TxHash() common.Hash  { return m.txHash }

// copyAddressPtr copies an address.
func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}
