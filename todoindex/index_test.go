package todoindex

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/todolist"
	"github.com/tos-network/todochain/todolist/contract"
	"github.com/tos-network/todochain/todolist/todotest"
)

func TestIndexFollowsContract(t *testing.T) {
	signers := todotest.Signers(2)
	owner, other := signers[0], signers[1]
	backend := todotest.NewBackend(signers...)
	defer backend.Close()

	idx := New()
	apply := func(tx *types.Transaction, err error) {
		t.Helper()
		idx.Apply(todotest.Mined(t, backend, tx, err).Logs)
	}
	addr, tx, todoList, err := contract.DeployTodoList(owner.Opts, backend, nil)
	apply(tx, err)

	c, ok := idx.Contract(addr)
	require.True(t, ok)
	require.Equal(t, owner.Address, c.Owner)
	require.Equal(t, []common.Address{addr}, idx.ContractsOf(owner.Address))

	fee := todotest.TOS(t, "0.01")
	apply(todoList.CreateTodo(owner.Opts.WithValue(fee), "Go to the gym"))
	apply(todoList.CreateTodo(owner.Opts.WithValue(fee), "Buy milk"))
	apply(todoList.UpdateTodo(owner.Opts, big.NewInt(0), uint8(todolist.StatusDone), "Went to the gym"))
	apply(todoList.DeleteTodo(owner.Opts, big.NewInt(1)))

	c, _ = idx.Contract(addr)
	require.Equal(t, uint64(2), c.Created)
	require.Equal(t, map[uint64]todolist.Todo{
		0: {Definition: "Went to the gym", Status: todolist.StatusDone},
	}, c.Items)

	apply(todoList.TransferOwnership(owner.Opts, other.Address))
	require.Empty(t, idx.ContractsOf(owner.Address))
	require.Equal(t, []common.Address{addr}, idx.ContractsOf(other.Address))

	apply(todoList.Withdraw(other.Opts))
	c, _ = idx.Contract(addr)
	require.Equal(t, uint64(1), c.Withdrawn)
	require.Equal(t, 1, idx.Len())
}

func TestContractCopyIsDetached(t *testing.T) {
	idx := New()
	addr := common.HexToAddress("0x01")
	idx.Apply([]*types.Log{createLog(t, addr, 0, "a")})

	c, ok := idx.Contract(addr)
	require.True(t, ok)
	c.Items[7] = todolist.Todo{Definition: "mutated"}

	again, _ := idx.Contract(addr)
	require.Len(t, again.Items, 1)
}

func TestMalformedLogsAreSkipped(t *testing.T) {
	idx := New()
	addr := common.HexToAddress("0x02")
	idx.Apply([]*types.Log{
		{Address: addr, Topics: []common.Hash{todolist.CreateTodoEvent.ID}},
		{Address: addr},
		createLog(t, addr, 3, "ok"),
	})
	c, ok := idx.Contract(addr)
	require.True(t, ok)
	require.Equal(t, todolist.Todo{Definition: "ok"}, c.Items[3])
}

type feedSource struct {
	feed       event.Feed[[]*types.Log]
	subscribed chan struct{}
}

func (s *feedSource) SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription {
	sub := s.feed.Subscribe(ch)
	close(s.subscribed)
	return sub
}

func TestRunConsumesFeed(t *testing.T) {
	src := &feedSource{subscribed: make(chan struct{})}
	idx := New()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- idx.Run(ctx, src) }()

	select {
	case <-src.subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("index did not subscribe")
	}
	addr := common.HexToAddress("0x03")
	src.feed.Send([]*types.Log{createLog(t, addr, 0, "streamed")})

	require.Eventually(t, func() bool {
		c, ok := idx.Contract(addr)
		return ok && c.Items[0].Definition == "streamed"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errc)
}

func createLog(t *testing.T, addr common.Address, index int64, text string) *types.Log {
	t.Helper()
	topics, data, err := todolist.CreateTodoEvent.Pack(big.NewInt(index), text)
	require.NoError(t, err)
	return &types.Log{Address: addr, Topics: topics, Data: data}
}
