package state

import (
	"bytes"

	"github.com/tos-network/todochain/common"
)

// hashes is a helper to implement sort.Interface.
type hashes []common.Hash

// Len is the number of elements in the collection.
func (hs hashes) Len() int { return len(hs) }

// Less reports whether the element with index i should sort before the element
// with index j.
func (hs hashes) Less(i, j int) bool { return bytes.Compare(hs[i][:], hs[j][:]) < 0 }

// Swap swaps the elements with indexes i and j.
func (hs hashes) Swap(i, j int) { hs[i], hs[j] = hs[j], hs[i] }

// addresses sorts account addresses the same way.
type addresses []common.Address

func (as addresses) Len() int           { return len(as) }
func (as addresses) Less(i, j int) bool { return bytes.Compare(as[i][:], as[j][:]) < 0 }
func (as addresses) Swap(i, j int)      { as[i], as[j] = as[j], as[i] }
