package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/cmd/utils"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/internal/todoapi"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/todoclient"
	"github.com/tos-network/todochain/todolist"
	"github.com/tos-network/todochain/todolist/contract"
	"github.com/urfave/cli/v2"
)

const receiptTimeout = time.Minute

var (
	clientFlags = []cli.Flag{
		utils.EndpointFlag,
		utils.ContractFlag,
	}
	signerFlags = []cli.Flag{
		utils.FromFlag,
		utils.PasswordFileFlag,
		utils.DataDirFlag,
		utils.KeyStoreDirFlag,
	}

	feeFlag = &cli.StringFlag{
		Name:  "fee",
		Usage: "Creation fee in TOS (default = the chain's default fee)",
	}
)

var (
	deployCommand = &cli.Command{
		Action: deploy,
		Name:   "deploy",
		Usage:  "Deploy a new TodoList owned by the sending account",
		Flags:  append(append([]cli.Flag{feeFlag}, clientFlags...), signerFlags...),
	}
	createCommand = &cli.Command{
		Action:    create,
		Name:      "create",
		Usage:     "Create a todo, paying the contract's fee",
		ArgsUsage: "<todoDefinition>",
		Flags:     append(clientFlags, signerFlags...),
	}
	updateCommand = &cli.Command{
		Action:    update,
		Name:      "update",
		Usage:     "Overwrite the status and definition of a todo",
		ArgsUsage: "<index> <todo|done|status> <todoDefinition>",
		Flags:     append(clientFlags, signerFlags...),
	}
	deleteCommand = &cli.Command{
		Action:    deleteTodo,
		Name:      "delete",
		Usage:     "Delete a todo",
		ArgsUsage: "<index>",
		Flags:     append(clientFlags, signerFlags...),
	}
	getCommand = &cli.Command{
		Action:    get,
		Name:      "get",
		Usage:     "Print a single todo",
		ArgsUsage: "<index>",
		Flags:     clientFlags,
	}
	listCommand = &cli.Command{
		Action: list,
		Name:   "list",
		Usage:  "Print every live todo",
		Flags:  clientFlags,
	}
	countCommand = &cli.Command{
		Action: count,
		Name:   "count",
		Usage:  "Print the number of todos ever created",
		Flags:  clientFlags,
	}
	feeCommand = &cli.Command{
		Action: fee,
		Name:   "fee",
		Usage:  "Print the creation fee",
		Flags:  clientFlags,
	}
	ownerCommand = &cli.Command{
		Action: owner,
		Name:   "owner",
		Usage:  "Print the owner of the contract",
		Flags:  clientFlags,
	}
	transferOwnershipCommand = &cli.Command{
		Action:    transferOwnership,
		Name:      "transfer-ownership",
		Usage:     "Hand the contract over to a new owner",
		ArgsUsage: "<newOwner>",
		Flags:     append(clientFlags, signerFlags...),
	}
	renounceOwnershipCommand = &cli.Command{
		Action: renounceOwnership,
		Name:   "renounce-ownership",
		Usage:  "Leave the contract without an owner",
		Flags:  append(clientFlags, signerFlags...),
	}
	withdrawCommand = &cli.Command{
		Action: withdraw,
		Name:   "withdraw",
		Usage:  "Send the collected fees to the owner",
		Flags:  append(clientFlags, signerFlags...),
	}
)

// session bundles what the contract commands need to talk to a node.
type session struct {
	cfg      todoConfig
	client   *todoclient.Client
	todoList *contract.TodoList
}

func newSession(ctx *cli.Context, needContract bool) *session {
	cfg := makeConfig(ctx)
	client, err := todoclient.Dial(cfg.Client.Endpoint)
	if err != nil {
		utils.Fatalf("Failed to connect to %s: %v", cfg.Client.Endpoint, err)
	}
	s := &session{cfg: cfg, client: client}
	if needContract {
		addr := cfg.Client.Contract
		if !common.IsHexAddress(addr) {
			utils.Fatalf("No valid TodoList address, set --%s", utils.ContractFlag.Name)
		}
		s.todoList, _ = contract.NewTodoList(common.HexToAddress(addr), client)
	}
	return s
}

// transactor unlocks the sending account and binds it to the node's chain id.
func (s *session) transactor(ctx *cli.Context) *bind.TransactOpts {
	ks := utils.MakeKeyStore(ctx, &s.cfg.Node)
	account, err := utils.MakeAddress(ks, ctx.String(utils.FromFlag.Name))
	if err != nil {
		utils.Fatalf("Could not find sending account: %v", err)
	}
	password := utils.GetPassPhraseWithList(fmt.Sprintf("Unlocking account %s", account.Address.Hex()), false, 0, utils.MakePasswordList(ctx))
	if err := ks.Unlock(account, password); err != nil {
		utils.Fatalf("Failed to unlock account %s: %v", account.Address.Hex(), err)
	}
	chainID, err := s.client.ChainID(ctx.Context)
	if err != nil {
		utils.Fatalf("Failed to retrieve chain id: %v", err)
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(ks, account, chainID)
	if err != nil {
		utils.Fatalf("Failed to create transactor: %v", err)
	}
	opts.Context = ctx.Context
	return opts
}

// mined waits for tx and fails unless it executed successfully.
func (s *session) mined(ctx *cli.Context, tx *types.Transaction, err error) *types.Receipt {
	if err != nil {
		utils.Fatalf("Transaction rejected: %v", describeRevert(err))
	}
	log.Debug("Submitted transaction", "hash", tx.Hash())
	waitCtx, cancel := context.WithTimeout(ctx.Context, receiptTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, s.client, tx)
	if err != nil {
		utils.Fatalf("Failed waiting for transaction %s: %v", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		utils.Fatalf("Transaction %s failed: %s", tx.Hash().Hex(), revertString(receipt.RevertReason))
	}
	fmt.Printf("Transaction %s mined, gas used %d\n", tx.Hash().Hex(), receipt.GasUsed)
	return receipt
}

// describeRevert decodes the revert payload carried by err, if any.
func describeRevert(err error) error {
	var dataErr bind.DataError
	if !errors.As(err, &dataErr) {
		return err
	}
	return fmt.Errorf("execution reverted: %s", revertString(dataErr.ErrorData()))
}

func revertString(data []byte) string {
	if len(data) == 0 {
		return "no reason"
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return strconv.Quote(reason)
	}
	for _, e := range []abi.Error{todolist.OwnableUnauthorizedAccount, todolist.OwnableInvalidOwner} {
		if !e.Matches(data) {
			continue
		}
		args, err := e.Unpack(data)
		if err != nil {
			break
		}
		strs := make([]string, len(args))
		for i, arg := range args {
			strs[i] = fmt.Sprint(arg)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(strs, ", "))
	}
	return fmt.Sprintf("%#x", data)
}

func parseIndex(s string) *big.Int {
	index, ok := new(big.Int).SetString(s, 10)
	if !ok || index.Sign() < 0 {
		utils.Fatalf("Invalid todo index %q", s)
	}
	return index
}

func parseStatus(s string) uint8 {
	switch strings.ToLower(s) {
	case "todo":
		return uint8(todolist.StatusTodo)
	case "done":
		return uint8(todolist.StatusDone)
	}
	status, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		utils.Fatalf("Invalid status %q, want todo, done or a number up to 255", s)
	}
	return uint8(status)
}

func requireArgs(ctx *cli.Context, n int) {
	if ctx.Args().Len() != n {
		utils.Fatalf("This command requires %d argument(s), see --help", n)
	}
}

func deploy(ctx *cli.Context) error {
	s := newSession(ctx, false)
	var fee *big.Int
	if ctx.IsSet(feeFlag.Name) {
		var err error
		if fee, err = utils.ParseAmount(ctx.String(feeFlag.Name)); err != nil {
			utils.Fatalf("%v", err)
		}
	}
	addr, tx, _, err := contract.DeployTodoList(s.transactor(ctx), s.client, fee)
	s.mined(ctx, tx, err)
	fmt.Printf("TodoList deployed at %s\n", addr.Hex())
	return nil
}

func create(ctx *cli.Context) error {
	requireArgs(ctx, 1)
	s := newSession(ctx, true)
	fee, err := s.todoList.FEE(&bind.CallOpts{Context: ctx.Context})
	if err != nil {
		utils.Fatalf("Failed to read the fee: %v", describeRevert(err))
	}
	tx, err := s.todoList.CreateTodo(s.transactor(ctx).WithValue(fee), ctx.Args().First())
	receipt := s.mined(ctx, tx, err)
	if events, err := s.todoList.FilterCreateTodo(receipt); err == nil && len(events) > 0 {
		fmt.Printf("Created todo %v\n", events[0].Index)
	}
	return nil
}

func update(ctx *cli.Context) error {
	requireArgs(ctx, 3)
	s := newSession(ctx, true)
	index := parseIndex(ctx.Args().Get(0))
	status := parseStatus(ctx.Args().Get(1))
	tx, err := s.todoList.UpdateTodo(s.transactor(ctx), index, status, ctx.Args().Get(2))
	s.mined(ctx, tx, err)
	return nil
}

func deleteTodo(ctx *cli.Context) error {
	requireArgs(ctx, 1)
	s := newSession(ctx, true)
	tx, err := s.todoList.DeleteTodo(s.transactor(ctx), parseIndex(ctx.Args().First()))
	s.mined(ctx, tx, err)
	return nil
}

func get(ctx *cli.Context) error {
	requireArgs(ctx, 1)
	s := newSession(ctx, true)
	index := parseIndex(ctx.Args().First())
	item, err := s.todoList.TodoList(&bind.CallOpts{Context: ctx.Context}, index)
	if err != nil {
		utils.Fatalf("Failed to read todo %v: %v", index, describeRevert(err))
	}
	fmt.Printf("#%v [%s] %s\n", index, statusString(item.Status), item.Definition)
	return nil
}

func list(ctx *cli.Context) error {
	s := newSession(ctx, true)
	items, err := s.client.Todos(ctx.Context, s.todoList.Address())
	if err != nil {
		utils.Fatalf("Failed to list todos: %v", err)
	}
	if len(items) == 0 {
		fmt.Println("No todos")
		return nil
	}
	renderTodos(os.Stdout, items)
	return nil
}

func renderTodos(w io.Writer, items []*todoapi.TodoResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Index", "Status", "Todo"})
	table.SetAutoWrapText(false)
	for _, item := range items {
		table.Append([]string{strconv.FormatUint(uint64(item.Index), 10), statusString(item.Status), item.Definition})
	}
	table.Render()
}

func statusString(s todolist.Status) string {
	switch s {
	case todolist.StatusDone:
		return color.GreenString(s.String())
	case todolist.StatusTodo:
		return color.YellowString(s.String())
	}
	return s.String()
}

func count(ctx *cli.Context) error {
	s := newSession(ctx, true)
	n, err := s.todoList.GetNumOfTodos(&bind.CallOpts{Context: ctx.Context})
	if err != nil {
		utils.Fatalf("Failed to read the count: %v", describeRevert(err))
	}
	fmt.Println(n)
	return nil
}

func fee(ctx *cli.Context) error {
	s := newSession(ctx, true)
	amount, err := s.todoList.FEE(&bind.CallOpts{Context: ctx.Context})
	if err != nil {
		utils.Fatalf("Failed to read the fee: %v", describeRevert(err))
	}
	fmt.Printf("%s TOS\n", params.FormatTOS(amount))
	return nil
}

func owner(ctx *cli.Context) error {
	s := newSession(ctx, true)
	addr, err := s.todoList.Owner(&bind.CallOpts{Context: ctx.Context})
	if err != nil {
		utils.Fatalf("Failed to read the owner: %v", describeRevert(err))
	}
	fmt.Println(addr.Hex())
	return nil
}

func transferOwnership(ctx *cli.Context) error {
	requireArgs(ctx, 1)
	newOwner := ctx.Args().First()
	if !common.IsHexAddress(newOwner) {
		utils.Fatalf("Invalid owner address %q", newOwner)
	}
	s := newSession(ctx, true)
	tx, err := s.todoList.TransferOwnership(s.transactor(ctx), common.HexToAddress(newOwner))
	s.mined(ctx, tx, err)
	return nil
}

func renounceOwnership(ctx *cli.Context) error {
	s := newSession(ctx, true)
	tx, err := s.todoList.RenounceOwnership(s.transactor(ctx))
	s.mined(ctx, tx, err)
	return nil
}

func withdraw(ctx *cli.Context) error {
	s := newSession(ctx, true)
	tx, err := s.todoList.Withdraw(s.transactor(ctx))
	s.mined(ctx, tx, err)
	return nil
}
