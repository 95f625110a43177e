// Package todoindex follows the log feed of a chain and keeps an in-memory
// view of every TodoList contract: its owner, fee withdrawals and live items.
package todoindex

import (
	"bytes"
	"context"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/metrics"
	"github.com/tos-network/todochain/todolist"
	"github.com/tos-network/todochain/todolist/contract"
)

// LogsChanSize is the buffer of the log channel a subscription should use.
const LogsChanSize = 64

var (
	indexedLogMeter = metrics.NewRegisteredMeter("todoindex/logs", nil)
	skippedLogMeter = metrics.NewRegisteredMeter("todoindex/skipped", nil)
	contractsGauge  = metrics.NewRegisteredGauge("todoindex/contracts", nil)
)

// LogSource is the feed the index consumes, typically a *core.BlockChain.
type LogSource interface {
	SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription
}

// Contract is the indexed view of a single TodoList instance.
type Contract struct {
	Address   common.Address
	Owner     common.Address
	Items     map[uint64]todolist.Todo // live items keyed by index
	Created   uint64                   // number of CreateTodo events seen
	Withdrawn uint64                   // number of Withdraw events seen
	LastBlock uint64
}

func (c *Contract) copy() *Contract {
	cpy := *c
	cpy.Items = make(map[uint64]todolist.Todo, len(c.Items))
	for i, item := range c.Items {
		cpy.Items[i] = item
	}
	return &cpy
}

// Index is safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	contracts map[common.Address]*Contract
	owners    map[common.Address]mapset.Set // owner -> set of contract addresses
}

// New creates an empty index.
func New() *Index {
	return &Index{
		contracts: make(map[common.Address]*Contract),
		owners:    make(map[common.Address]mapset.Set),
	}
}

// Run subscribes to src and indexes logs until ctx is cancelled or the
// subscription fails.
func (idx *Index) Run(ctx context.Context, src LogSource) error {
	logsCh := make(chan []*types.Log, LogsChanSize)
	return idx.Consume(ctx, logsCh, src.SubscribeLogsEvent(logsCh))
}

// Consume indexes the logs delivered on logsCh by an existing subscription.
// The subscription is released on return.
func (idx *Index) Consume(ctx context.Context, logsCh <-chan []*types.Log, sub event.Subscription) error {
	defer sub.Unsubscribe()

	for {
		select {
		case logs := <-logsCh:
			idx.Apply(logs)
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}

// Apply folds a batch of logs into the index. Logs of unknown shape are
// skipped.
func (idx *Index) Apply(logs []*types.Log) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, l := range logs {
		if err := idx.apply(l); err != nil {
			skippedLogMeter.Mark(1)
			log.Debug("Skipping log", "address", l.Address, "tx", l.TxHash, "err", err)
			continue
		}
		indexedLogMeter.Mark(1)
	}
	contractsGauge.Update(int64(len(idx.contracts)))
}

func (idx *Index) apply(l *types.Log) error {
	if len(l.Topics) == 0 {
		return nil
	}
	switch l.Topics[0] {
	case todolist.OwnershipTransferredEvent.ID:
		ev, err := contract.ParseOwnershipTransferred(*l)
		if err != nil {
			return err
		}
		c := idx.contract(l)
		if set, ok := idx.owners[ev.PreviousOwner]; ok && ev.PreviousOwner == c.Owner {
			set.Remove(c.Address)
			if set.Cardinality() == 0 {
				delete(idx.owners, ev.PreviousOwner)
			}
		}
		c.Owner = ev.NewOwner
		if ev.NewOwner != (common.Address{}) {
			set, ok := idx.owners[ev.NewOwner]
			if !ok {
				set = mapset.NewSet()
				idx.owners[ev.NewOwner] = set
			}
			set.Add(c.Address)
		}

	case todolist.CreateTodoEvent.ID:
		ev, err := contract.ParseCreateTodo(*l)
		if err != nil {
			return err
		}
		c := idx.contract(l)
		c.Items[ev.Index.Uint64()] = todolist.Todo{Definition: ev.TodoDefinition, Status: todolist.StatusTodo}
		c.Created++

	case todolist.UpdateTodoEvent.ID:
		ev, err := contract.ParseUpdateTodo(*l)
		if err != nil {
			return err
		}
		c := idx.contract(l)
		c.Items[ev.Index.Uint64()] = todolist.Todo{Definition: ev.TodoDefinition, Status: todolist.Status(ev.Status)}

	case todolist.DeleteTodoEvent.ID:
		ev, err := contract.ParseDeleteTodo(*l)
		if err != nil {
			return err
		}
		delete(idx.contract(l).Items, ev.Index.Uint64())

	case todolist.WithdrawEvent.ID:
		if _, err := contract.ParseWithdraw(*l); err != nil {
			return err
		}
		idx.contract(l).Withdrawn++
	}
	return nil
}

// contract returns the entry of the log's emitter, creating it on first sight.
func (idx *Index) contract(l *types.Log) *Contract {
	c, ok := idx.contracts[l.Address]
	if !ok {
		c = &Contract{Address: l.Address, Items: make(map[uint64]todolist.Todo)}
		idx.contracts[l.Address] = c
	}
	if l.BlockNumber > c.LastBlock {
		c.LastBlock = l.BlockNumber
	}
	return c
}

// Contract returns a copy of the indexed view of addr.
func (idx *Index) Contract(addr common.Address) (*Contract, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, ok := idx.contracts[addr]
	if !ok {
		return nil, false
	}
	return c.copy(), true
}

// ContractsOf returns the contracts currently owned by owner, sorted.
func (idx *Index) ContractsOf(owner common.Address) []common.Address {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	set, ok := idx.owners[owner]
	if !ok {
		return nil
	}
	addrs := make([]common.Address, 0, set.Cardinality())
	for _, a := range set.ToSlice() {
		addrs = append(addrs, a.(common.Address))
	}
	sort.Slice(addrs, func(i, j int) bool { return bytes.Compare(addrs[i][:], addrs[j][:]) < 0 })
	return addrs
}

// Len returns the number of indexed contracts.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.contracts)
}
