package contract_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/todolist"
	"github.com/tos-network/todochain/todolist/contract"
	"github.com/tos-network/todochain/todolist/todotest"
)

// TodoListSuite runs every test on a restored fixture: the deployed contract,
// or the deployed contract holding one todo.
type TodoListSuite struct {
	suite.Suite

	f        *todotest.Fixture
	deployed int
	withTodo int
}

func TestTodoList(t *testing.T) {
	suite.Run(t, new(TodoListSuite))
}

func (s *TodoListSuite) SetupSuite() {
	s.f = todotest.DeployFixture(s.T())
	s.deployed = s.f.Backend.Snapshot()

	tx, err := s.f.TodoList.CreateTodo(s.f.Owner.Opts.WithValue(s.f.FEE), "Go to the gym")
	todotest.Mined(s.T(), s.f.Backend, tx, err)
	s.withTodo = s.f.Backend.Snapshot()
}

func (s *TodoListSuite) loadFixture(id int) *todotest.Fixture {
	s.Require().NoError(s.f.Backend.Revert(id))
	return s.f
}

func (s *TodoListSuite) TestDeployment() {
	f := s.loadFixture(s.deployed)

	fee, err := f.TodoList.FEE(nil)
	s.Require().NoError(err)
	s.Equal(0, fee.Cmp(f.FEE), "fee %v", fee)
	s.Equal(0, fee.Cmp(todotest.TOS(s.T(), "0.01")))

	owner, err := f.TodoList.Owner(nil)
	s.Require().NoError(err)
	s.Equal(f.Owner.Address, owner)
}

func (s *TodoListSuite) TestCreateRequiresExactFee() {
	f := s.loadFixture(s.deployed)

	for _, amount := range []string{"0.002", "1", "0"} {
		_, err := f.TodoList.CreateTodo(f.Owner.Opts.WithValue(todotest.TOS(s.T(), amount)), "")
		todotest.RequireRevertedWith(s.T(), err, "Must send 0.01 TOS to create a Todo")
	}
	count, err := f.TodoList.GetNumOfTodos(nil)
	s.Require().NoError(err)
	s.Zero(count.Sign())
}

func (s *TodoListSuite) TestCreateOnlyOwner() {
	f := s.loadFixture(s.deployed)

	_, err := f.TodoList.CreateTodo(f.Other.Opts.WithValue(f.FEE), "Go to the gym")
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableUnauthorizedAccount, f.Other.Address)

	// Ownership is checked before the fee.
	_, err = f.TodoList.CreateTodo(f.Other.Opts.WithValue(big.NewInt(1)), "Go to the gym")
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableUnauthorizedAccount, f.Other.Address)
}

func (s *TodoListSuite) TestCreateTodo() {
	f := s.loadFixture(s.deployed)

	tx, err := f.TodoList.CreateTodo(f.Owner.Opts.WithValue(f.FEE), "Go to the gym")
	todotest.Mined(s.T(), f.Backend, tx, err)

	todo, err := f.TodoList.TodoList(nil, big.NewInt(0))
	s.Require().NoError(err)
	s.Equal("Go to the gym", todo.Definition)
	s.Equal(todolist.StatusTodo, todo.Status)

	balance, err := f.Backend.BalanceAt(context.Background(), f.TodoList.Address())
	s.Require().NoError(err)
	s.Equal(0, balance.Cmp(f.FEE), "contract balance %v", balance)
}

func (s *TodoListSuite) TestCreateTodoEmitsEvent() {
	f := s.loadFixture(s.deployed)

	tx, err := f.TodoList.CreateTodo(f.Owner.Opts.WithValue(f.FEE), "Go to the gym")
	receipt := todotest.Mined(s.T(), f.Backend, tx, err)
	todotest.RequireEmitted(s.T(), receipt, f.TodoList.Address(), todolist.CreateTodoEvent)

	events, err := f.TodoList.FilterCreateTodo(receipt)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Zero(events[0].Index.Sign())
	s.Equal("Go to the gym", events[0].TodoDefinition)
}

func (s *TodoListSuite) TestUpdateTodo() {
	f := s.loadFixture(s.withTodo)

	tx, err := f.TodoList.UpdateTodo(f.Owner.Opts, big.NewInt(0), uint8(todolist.StatusDone), "Go to the gym twice")
	todotest.Mined(s.T(), f.Backend, tx, err)

	todo, err := f.TodoList.TodoList(nil, big.NewInt(0))
	s.Require().NoError(err)
	s.Equal("Go to the gym twice", todo.Definition)
	s.Equal(todolist.StatusDone, todo.Status)
}

func (s *TodoListSuite) TestUpdateTodoEmitsEvent() {
	f := s.loadFixture(s.withTodo)

	tx, err := f.TodoList.UpdateTodo(f.Owner.Opts, big.NewInt(0), uint8(todolist.StatusDone), "Go to the gym trice")
	receipt := todotest.Mined(s.T(), f.Backend, tx, err)

	events, err := f.TodoList.FilterUpdateTodo(receipt)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(uint8(todolist.StatusDone), events[0].Status)
	s.Equal("Go to the gym trice", events[0].TodoDefinition)
}

func (s *TodoListSuite) TestUpdateOutOfRange() {
	f := s.loadFixture(s.withTodo)

	_, err := f.TodoList.UpdateTodo(f.Owner.Opts, big.NewInt(1), 1, "nope")
	todotest.RequireRevertedWithoutReason(s.T(), err)
}

func (s *TodoListSuite) TestDeleteTodo() {
	f := s.loadFixture(s.withTodo)

	tx, err := f.TodoList.DeleteTodo(f.Owner.Opts, big.NewInt(0))
	todotest.Mined(s.T(), f.Backend, tx, err)

	_, err = f.TodoList.TodoList(nil, big.NewInt(0))
	todotest.RequireRevertedWithoutReason(s.T(), err)

	// The slot stays counted.
	count, err := f.TodoList.GetNumOfTodos(nil)
	s.Require().NoError(err)
	s.Equal(int64(1), count.Int64())

	_, err = f.TodoList.DeleteTodo(f.Owner.Opts, big.NewInt(0))
	todotest.RequireRevertedWithoutReason(s.T(), err)
}

func (s *TodoListSuite) TestDeleteTodoEmitsEvent() {
	f := s.loadFixture(s.withTodo)

	tx, err := f.TodoList.DeleteTodo(f.Owner.Opts, big.NewInt(0))
	receipt := todotest.Mined(s.T(), f.Backend, tx, err)
	todotest.RequireEmitted(s.T(), receipt, f.TodoList.Address(), todolist.DeleteTodoEvent)
}

func (s *TodoListSuite) TestGetNumOfTodos() {
	f := s.loadFixture(s.withTodo)

	count, err := f.TodoList.GetNumOfTodos(nil)
	s.Require().NoError(err)
	s.Equal(int64(1), count.Int64())
}

func (s *TodoListSuite) TestReadOutOfRange() {
	f := s.loadFixture(s.deployed)

	_, err := f.TodoList.TodoList(nil, big.NewInt(0))
	todotest.RequireRevertedWithoutReason(s.T(), err)
}

func (s *TodoListSuite) TestIndexBeyond64Bits() {
	f := s.loadFixture(s.withTodo)
	huge := new(big.Int).Lsh(big.NewInt(1), 70)

	_, err := f.TodoList.TodoList(nil, huge)
	todotest.RequireRevertedWithoutReason(s.T(), err)
	_, err = f.TodoList.UpdateTodo(f.Owner.Opts, huge, 1, "nope")
	todotest.RequireRevertedWithoutReason(s.T(), err)
	_, err = f.TodoList.DeleteTodo(f.Owner.Opts, huge)
	todotest.RequireRevertedWithoutReason(s.T(), err)
}

func (s *TodoListSuite) TestRejectsInvalidUTF8() {
	f := s.loadFixture(s.withTodo)

	_, err := f.TodoList.CreateTodo(f.Owner.Opts.WithValue(f.FEE), "a\xffb")
	s.Require().ErrorIs(err, contract.ErrInvalidText)
	_, err = f.TodoList.UpdateTodo(f.Owner.Opts, big.NewInt(0), 1, "a\xffb")
	s.Require().ErrorIs(err, contract.ErrInvalidText)

	todo, err := f.TodoList.TodoList(nil, big.NewInt(0))
	s.Require().NoError(err)
	s.Equal("Go to the gym", todo.Definition)
	count, err := f.TodoList.GetNumOfTodos(nil)
	s.Require().NoError(err)
	s.Equal(int64(1), count.Int64())
}

func (s *TodoListSuite) TestTransferOwnership() {
	f := s.loadFixture(s.deployed)

	_, err := f.TodoList.TransferOwnership(f.Other.Opts, f.Other.Address)
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableUnauthorizedAccount, f.Other.Address)

	_, err = f.TodoList.TransferOwnership(f.Owner.Opts, common.Address{})
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableInvalidOwner, common.Address{})

	tx, err := f.TodoList.TransferOwnership(f.Owner.Opts, f.Other.Address)
	receipt := todotest.Mined(s.T(), f.Backend, tx, err)
	logs := todotest.RequireEmitted(s.T(), receipt, f.TodoList.Address(), todolist.OwnershipTransferredEvent)
	ev, err := contract.ParseOwnershipTransferred(*logs[0])
	s.Require().NoError(err)
	s.Equal(f.Owner.Address, ev.PreviousOwner)
	s.Equal(f.Other.Address, ev.NewOwner)

	// The new owner may create, the previous one no longer.
	tx, err = f.TodoList.CreateTodo(f.Other.Opts.WithValue(f.FEE), "Read a book")
	todotest.Mined(s.T(), f.Backend, tx, err)
	_, err = f.TodoList.CreateTodo(f.Owner.Opts.WithValue(f.FEE), "Read a book")
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableUnauthorizedAccount, f.Owner.Address)
}

func (s *TodoListSuite) TestRenounceOwnership() {
	f := s.loadFixture(s.deployed)

	tx, err := f.TodoList.RenounceOwnership(f.Owner.Opts)
	todotest.Mined(s.T(), f.Backend, tx, err)

	owner, err := f.TodoList.Owner(nil)
	s.Require().NoError(err)
	s.Equal(common.Address{}, owner)

	_, err = f.TodoList.CreateTodo(f.Owner.Opts.WithValue(f.FEE), "Go to the gym")
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableUnauthorizedAccount, f.Owner.Address)
}

func (s *TodoListSuite) TestWithdraw() {
	f := s.loadFixture(s.withTodo)
	ctx := context.Background()

	_, err := f.TodoList.Withdraw(f.Other.Opts)
	todotest.RequireRevertedWithCustomError(s.T(), err, todolist.OwnableUnauthorizedAccount, f.Other.Address)

	before, err := f.Backend.BalanceAt(ctx, f.Owner.Address)
	s.Require().NoError(err)
	tx, err := f.TodoList.Withdraw(f.Owner.Opts)
	receipt := todotest.Mined(s.T(), f.Backend, tx, err)

	logs := todotest.RequireEmitted(s.T(), receipt, f.TodoList.Address(), todolist.WithdrawEvent)
	ev, err := contract.ParseWithdraw(*logs[0])
	s.Require().NoError(err)
	s.Equal(0, ev.Amount.Cmp(f.FEE))

	after, err := f.Backend.BalanceAt(ctx, f.Owner.Address)
	s.Require().NoError(err)
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), tx.GasPrice())
	want := new(big.Int).Sub(new(big.Int).Add(before, f.FEE), gasCost)
	s.Equal(0, after.Cmp(want), "owner balance %v, want %v", after, want)

	contractBalance, err := f.Backend.BalanceAt(ctx, f.TodoList.Address())
	s.Require().NoError(err)
	s.Zero(contractBalance.Sign())
}

func TestDeployCustomFee(t *testing.T) {
	signers := todotest.Signers(1)
	backend := todotest.NewBackend(signers...)
	defer backend.Close()

	fee := todotest.TOS(t, "0.5")
	_, tx, todoList, err := contract.DeployTodoList(signers[0].Opts, backend, fee)
	todotest.Mined(t, backend, tx, err)

	got, err := todoList.FEE(nil)
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(fee))

	_, err = todoList.CreateTodo(signers[0].Opts.WithValue(todotest.TOS(t, "0.01")), "x")
	todotest.RequireRevertedWith(t, err, "Must send 0.5 TOS to create a Todo")
}

func TestNoSendDoesNotMine(t *testing.T) {
	f := todotest.DeployFixture(t)
	opts := *f.Owner.Opts
	opts.NoSend = true
	opts.Value = f.FEE

	tx, err := f.TodoList.CreateTodo(&opts, "not sent")
	require.NoError(t, err)
	_, err = f.Backend.TransactionReceipt(context.Background(), tx.Hash())
	require.Error(t, err)
}

func TestCreateTodoFixture(t *testing.T) {
	f := todotest.CreateTodoFixture(t)

	count, err := f.TodoList.GetNumOfTodos(nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), count.Int64())

	todo, err := f.TodoList.TodoList(nil, big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, todolist.Todo{Definition: "Go to the gym", Status: todolist.StatusTodo}, todo)

	balance, err := f.Backend.BalanceAt(context.Background(), f.TodoList.Address())
	require.NoError(t, err)
	require.Equal(t, 0, balance.Cmp(f.FEE))
}
