package todoapi_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/tos-network/todochain/accounts/abi"
	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/rawdb"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/internal/todoapi"
	"github.com/tos-network/todochain/miner"
	"github.com/tos-network/todochain/params"
	"github.com/tos-network/todochain/sysaction"
	"github.com/tos-network/todochain/todoclient"
	"github.com/tos-network/todochain/todolist"
	"github.com/tos-network/todochain/todolist/contract"
	"github.com/tos-network/todochain/todolist/todotest"
)

// sealingBackend seals a block for every accepted transaction.
type sealingBackend struct {
	chain *core.BlockChain
	miner *miner.Miner
}

func (b *sealingBackend) ChainConfig() *params.ChainConfig   { return b.chain.Config() }
func (b *sealingBackend) ChainContext() core.ChainContext    { return b.chain }
func (b *sealingBackend) CurrentHeader() *types.Header       { return b.chain.CurrentHeader() }
func (b *sealingBackend) HeadState() (*state.StateDB, error) { return b.chain.State() }
func (b *sealingBackend) SuggestGasPrice() *big.Int          { return big.NewInt(1) }
func (b *sealingBackend) GetReceipt(h common.Hash) *types.Receipt {
	return b.chain.GetTransactionReceipt(h)
}
func (b *sealingBackend) PendingNonce(a common.Address) (uint64, error) {
	return b.miner.PendingNonce(a)
}

func (b *sealingBackend) PendingState() (*types.Header, *state.StateDB, error) {
	return b.miner.PendingState()
}

func (b *sealingBackend) SendTx(tx *types.Transaction) error {
	if err := b.miner.AddTx(tx); err != nil {
		return err
	}
	_, err := b.miner.Seal()
	return err
}

func (b *sealingBackend) SubscribeLogsEvent(ch chan<- []*types.Log) event.Subscription {
	return b.chain.SubscribeLogsEvent(ch)
}

type testEnv struct {
	srv     *httptest.Server
	client  *todoclient.Client
	signers []*todotest.Signer
	chain   *core.BlockChain
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	signers := todotest.Signers(2)
	alloc := core.GenesisAlloc{}
	for _, s := range signers {
		alloc[s.Address] = core.GenesisAccount{Balance: new(big.Int).Set(todotest.SignerBalance)}
	}
	db := rawdb.NewMemoryDatabase()
	genesis := &core.Genesis{Config: params.TestChainConfig, GasLimit: params.GenesisGasLimit, Alloc: alloc}
	genesis.MustCommit(db)
	chain, err := core.NewBlockChain(db, nil)
	require.NoError(t, err)

	backend := &sealingBackend{chain: chain, miner: miner.New(chain, miner.DefaultConfig)}
	api := todoapi.New(backend, todoapi.DefaultConfig)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		api.Close()
		srv.Close()
		chain.Stop()
	})
	client, err := todoclient.Dial(srv.URL)
	require.NoError(t, err)
	return &testEnv{srv: srv, client: client, signers: signers, chain: chain}
}

func (e *testEnv) get(t *testing.T, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) post(t *testing.T, path string, in, out interface{}) int {
	t.Helper()
	body, err := json.Marshal(in)
	require.NoError(t, err)
	resp, err := http.Post(e.srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) deploy(t *testing.T) (common.Address, *contract.TodoList) {
	t.Helper()
	addr, tx, todoList, err := contract.DeployTodoList(e.signers[0].Opts, e.client, nil)
	todotest.Mined(t, e.client, tx, err)
	return addr, todoList
}

func TestTodoListViews(t *testing.T) {
	env := newTestEnv(t)
	addr, todoList := env.deploy(t)
	owner := env.signers[0]

	fee := params.DefaultTodoFee
	for _, text := range []string{"Go to the gym", "Buy milk", "Call mom"} {
		tx, err := todoList.CreateTodo(owner.Opts.WithValue(fee), text)
		todotest.Mined(t, env.client, tx, err)
	}
	tx, err := todoList.DeleteTodo(owner.Opts, big.NewInt(1))
	todotest.Mined(t, env.client, tx, err)

	base := "/todolist/" + addr.Hex()

	var feeRes struct{ Fee *hexutil.Big }
	require.Equal(t, http.StatusOK, env.get(t, base+"/fee", &feeRes))
	require.Equal(t, fee, feeRes.Fee.ToInt())

	var ownerRes struct{ Owner common.Address }
	require.Equal(t, http.StatusOK, env.get(t, base+"/owner", &ownerRes))
	require.Equal(t, owner.Address, ownerRes.Owner)

	var countRes struct{ Count hexutil.Uint64 }
	require.Equal(t, http.StatusOK, env.get(t, base+"/count", &countRes))
	require.Equal(t, hexutil.Uint64(3), countRes.Count)

	var item todoapi.TodoResult
	require.Equal(t, http.StatusOK, env.get(t, base+"/todos/2", &item))
	require.Equal(t, "Call mom", item.Definition)
	require.Equal(t, todolist.StatusTodo, item.Status)

	var items []*todoapi.TodoResult
	require.Equal(t, http.StatusOK, env.get(t, base+"/todos", &items))
	require.Len(t, items, 2)
	require.Equal(t, hexutil.Uint64(0), items[0].Index)
	require.Equal(t, hexutil.Uint64(2), items[1].Index)

	var errRes todoapi.ErrorResponse
	require.Equal(t, http.StatusNotFound, env.get(t, base+"/todos/1", &errRes))
	require.Equal(t, http.StatusNotFound, env.get(t, base+"/todos/9", &errRes))
	require.Equal(t, http.StatusBadRequest, env.get(t, base+"/todos/x", &errRes))
	require.Equal(t, http.StatusNotFound, env.get(t, "/todolist/"+owner.Address.Hex()+"/fee", &errRes))
	require.Equal(t, http.StatusBadRequest, env.get(t, "/todolist/0x1234/fee", &errRes))
}

func TestAccountAndChain(t *testing.T) {
	env := newTestEnv(t)
	addr, _ := env.deploy(t)
	owner := env.signers[0].Address

	var acc todoapi.AccountResult
	require.Equal(t, http.StatusOK, env.get(t, "/account/"+addr.Hex(), &acc))
	require.Equal(t, hexutil.Bytes(todolist.Code), acc.Code)

	require.Equal(t, http.StatusOK, env.get(t, "/account/"+owner.Hex(), &acc))
	require.Equal(t, hexutil.Uint64(1), acc.Nonce)
	require.Equal(t, hexutil.Uint64(1), acc.PendingNonce)

	var info todoapi.ChainInfo
	require.Equal(t, http.StatusOK, env.get(t, "/chain", &info))
	require.Equal(t, params.TestChainConfig.ChainID, info.ChainID.ToInt())
	require.Equal(t, hexutil.Uint64(1), info.Number)
	require.Equal(t, env.chain.CurrentBlock().Hash(), info.Head)
}

func TestRevertErrorBody(t *testing.T) {
	env := newTestEnv(t)
	addr, _ := env.deploy(t)
	owner := env.signers[0].Address

	input, err := sysaction.MakeSysAction(sysaction.ActionTodoCreate, &sysaction.TodoCreatePayload{Contract: addr, Text: "cheap"})
	require.NoError(t, err)
	data := hexutil.Bytes(input)
	args := todoapi.CallArgs{From: &owner, To: &params.SystemActionAddress, Data: &data}

	var res todoapi.ErrorResponse
	require.Equal(t, http.StatusBadRequest, env.post(t, "/estimate", args, &res))
	require.Equal(t, todoapi.CodeReverted, res.Error.Code)
	reason, err := abi.UnpackRevert(res.Error.Data)
	require.NoError(t, err)
	require.Equal(t, "Must send 0.01 TOS to create a Todo", reason)

	var plain todoapi.ErrorResponse
	require.Equal(t, http.StatusBadRequest, env.post(t, "/call", todoapi.CallArgs{From: &owner}, &plain))
	require.NotEqual(t, todoapi.CodeReverted, plain.Error.Code)
	require.NotEmpty(t, plain.Error.Message)
}

func TestReceiptLookup(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.client.TransactionReceipt(t.Context(), common.HexToHash("0xdead"))
	require.ErrorIs(t, err, bind.ErrNotFound)

	var res todoapi.ErrorResponse
	require.Equal(t, http.StatusBadRequest, env.get(t, "/receipt/0x12", &res))

	addr, tx, _, err := contract.DeployTodoList(env.signers[0].Opts, env.client, nil)
	require.NoError(t, err)
	receipt, err := env.client.TransactionReceipt(t.Context(), tx.Hash())
	require.NoError(t, err)
	require.Equal(t, addr, receipt.ContractAddress)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestSendTxRejectsBadNonce(t *testing.T) {
	env := newTestEnv(t)
	signer := env.signers[0]
	tx := types.NewTransaction(5, common.Address{0x01}, big.NewInt(1), 21000, big.NewInt(1), nil)
	signed, err := types.SignTx(tx, types.MakeSigner(params.TestChainConfig), signer.Key)
	require.NoError(t, err)

	var res todoapi.ErrorResponse
	require.Equal(t, http.StatusBadRequest, env.post(t, "/tx", signed, &res))
	require.Contains(t, res.Error.Message, core.ErrNonceTooHigh.Error())
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/chain", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLogStreamFiltersByAddress(t *testing.T) {
	env := newTestEnv(t)
	addr, todoList := env.deploy(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws/logs?address=" + addr.Hex()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// A plain transfer emits nothing and must not reach the stream.
	other := env.signers[1]
	tx := types.NewTransaction(0, env.signers[0].Address, big.NewInt(1), params.TxGas, big.NewInt(1), nil)
	signed, err := types.SignTx(tx, types.MakeSigner(params.TestChainConfig), other.Key)
	require.NoError(t, err)
	require.NoError(t, env.client.SendTransaction(t.Context(), signed))

	// The upgrade returns before the subscription is registered, retry the
	// create until the stream delivers it.
	var logs []*types.Log
	for i := 0; i < 50 && logs == nil; i++ {
		text := fmt.Sprintf("item %d", i)
		tx, err := todoList.CreateTodo(env.signers[0].Opts.WithValue(params.DefaultTodoFee), text)
		todotest.Mined(t, env.client, tx, err)

		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		if err := conn.ReadJSON(&logs); err != nil {
			if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
				logs = nil
				continue
			}
			require.NoError(t, err)
		}
	}
	require.NotEmpty(t, logs)
	require.Equal(t, addr, logs[0].Address)
	require.Equal(t, todolist.CreateTodoEvent.ID, logs[0].Topics[0])
}
