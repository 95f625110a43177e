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

	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
)

const (
	// ReceiptStatusFailed is the status code of a transaction if execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of a transaction if execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the results of a transaction.
type Receipt struct {
	// Consensus fields
	Status            uint64 `json:"status"`
	CumulativeGasUsed uint64 `json:"cumulativeGasUsed"`
	Logs              []*Log `json:"logs"`

	// Implementation fields: These fields are added by the node when processing a transaction.
	TxHash          common.Hash    `json:"transactionHash"`
	ContractAddress common.Address `json:"contractAddress"`
	GasUsed         uint64         `json:"gasUsed"`

	// RevertReason carries the revert payload of a failed transaction: an
	// Error(string) encoding, a custom error encoding, or nothing.
	RevertReason []byte `json:"revertReason,omitempty"`

	// Inclusion information: These fields provide information about the inclusion of the
	// transaction corresponding to this receipt.
	BlockHash        common.Hash `json:"blockHash,omitempty"`
	BlockNumber      *big.Int    `json:"blockNumber,omitempty"`
	TransactionIndex uint        `json:"transactionIndex"`
}

type receiptMarshaling struct {
	Status            *hexutil.Uint64 `json:"status"`
	CumulativeGasUsed *hexutil.Uint64 `json:"cumulativeGasUsed"`
	Logs              []*Log          `json:"logs"`
	TxHash            common.Hash     `json:"transactionHash"`
	ContractAddress   common.Address  `json:"contractAddress"`
	GasUsed           *hexutil.Uint64 `json:"gasUsed"`
	RevertReason      hexutil.Bytes   `json:"revertReason,omitempty"`
	BlockHash         common.Hash     `json:"blockHash,omitempty"`
	BlockNumber       *hexutil.Big    `json:"blockNumber,omitempty"`
	TransactionIndex  hexutil.Uint    `json:"transactionIndex"`
}

// NewReceipt creates a barebone transaction receipt, copying the init fields.
func NewReceipt(failed bool, cumulativeGasUsed uint64) *Receipt {
	r := &Receipt{CumulativeGasUsed: cumulativeGasUsed}
	if failed {
		r.Status = ReceiptStatusFailed
	} else {
		r.Status = ReceiptStatusSuccessful
	}
	return r
}

// MarshalJSON marshals as JSON.
func (r Receipt) MarshalJSON() ([]byte, error) {
	status := hexutil.Uint64(r.Status)
	cumulative := hexutil.Uint64(r.CumulativeGasUsed)
	gasUsed := hexutil.Uint64(r.GasUsed)
	enc := receiptMarshaling{
		Status:            &status,
		CumulativeGasUsed: &cumulative,
		Logs:              r.Logs,
		TxHash:            r.TxHash,
		ContractAddress:   r.ContractAddress,
		GasUsed:           &gasUsed,
		RevertReason:      r.RevertReason,
		BlockHash:         r.BlockHash,
		BlockNumber:       (*hexutil.Big)(r.BlockNumber),
		TransactionIndex:  hexutil.Uint(r.TransactionIndex),
	}
	if enc.Logs == nil {
		enc.Logs = []*Log{}
	}
	return json.Marshal(&enc)
}

// UnmarshalJSON unmarshals from JSON.
func (r *Receipt) UnmarshalJSON(input []byte) error {
	var dec receiptMarshaling
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Status == nil {
		return errors.New("missing required field 'status' for Receipt")
	}
	if dec.CumulativeGasUsed == nil {
		return errors.New("missing required field 'cumulativeGasUsed' for Receipt")
	}
	if dec.Logs == nil {
		return errors.New("missing required field 'logs' for Receipt")
	}
	if dec.GasUsed == nil {
		return errors.New("missing required field 'gasUsed' for Receipt")
	}
	r.Status = uint64(*dec.Status)
	r.CumulativeGasUsed = uint64(*dec.CumulativeGasUsed)
	r.Logs = dec.Logs
	r.TxHash = dec.TxHash
	r.ContractAddress = dec.ContractAddress
	r.GasUsed = uint64(*dec.GasUsed)
	if len(dec.RevertReason) > 0 {
		r.RevertReason = dec.RevertReason
	}
	r.BlockHash = dec.BlockHash
	if dec.BlockNumber != nil {
		r.BlockNumber = dec.BlockNumber.ToInt()
	}
	r.TransactionIndex = uint(dec.TransactionIndex)
	return nil
}

// Receipts implements DerivableList for receipts.
type Receipts []*Receipt

// Len returns the number of receipts in this list.
func (rs Receipts) Len() int { return len(rs) }

// EncodeIndex encodes the consensus fields of the i'th receipt to w. Derived
// inclusion fields are excluded so the commitment is stable once the block
// hash is known.
func (rs Receipts) EncodeIndex(i int, w *bytes.Buffer) {
	r := rs[i]
	logs := make([]consensusLog, len(r.Logs))
	for j, l := range r.Logs {
		logs[j] = consensusLog{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	enc, _ := json.Marshal(&consensusReceipt{
		Status:            hexutil.Uint64(r.Status),
		CumulativeGasUsed: hexutil.Uint64(r.CumulativeGasUsed),
		Logs:              logs,
		RevertReason:      r.RevertReason,
	})
	w.Write(enc)
}

type consensusLog struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

type consensusReceipt struct {
	Status            hexutil.Uint64 `json:"status"`
	CumulativeGasUsed hexutil.Uint64 `json:"cumulativeGasUsed"`
	Logs              []consensusLog `json:"logs"`
	RevertReason      hexutil.Bytes  `json:"revertReason"`
}

// DeriveFields fills the receipts with their computed fields based on consensus
// data and contextual infos like containing block and transactions.
func (rs Receipts) DeriveFields(hash common.Hash, number uint64, txs Transactions) error {
	if len(txs) != len(rs) {
		return errors.New("transaction and receipt count mismatch")
	}
	logIndex := uint(0)
	for i := 0; i < len(rs); i++ {
		rs[i].TxHash = txs[i].Hash()
		rs[i].BlockHash = hash
		rs[i].BlockNumber = new(big.Int).SetUint64(number)
		rs[i].TransactionIndex = uint(i)

		// The used gas can be calculated based on previous r
		if i == 0 {
			rs[i].GasUsed = rs[i].CumulativeGasUsed
		} else {
			rs[i].GasUsed = rs[i].CumulativeGasUsed - rs[i-1].CumulativeGasUsed
		}
		for j := 0; j < len(rs[i].Logs); j++ {
			rs[i].Logs[j].BlockNumber = number
			rs[i].Logs[j].BlockHash = hash
			rs[i].Logs[j].TxHash = rs[i].TxHash
			rs[i].Logs[j].TxIndex = uint(i)
			rs[i].Logs[j].Index = logIndex
			logIndex++
		}
	}
	return nil
}
