// Package todoclient provides a client for the todochain HTTP API. The client
// implements bind.ContractBackend, so contract bindings work the same against
// a node as against the simulated backend.
package todoclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tos-network/todochain/accounts/abi/bind"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/core/vm"
	"github.com/tos-network/todochain/internal/todoapi"
	"github.com/tos-network/todochain/log"
)

var _ bind.ContractBackend = (*Client)(nil)

const defaultTimeout = 30 * time.Second

// HTTPError is returned for failed requests that are not reverts.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Client defines typed wrappers for the todochain HTTP API.
type Client struct {
	endpoint string
	hc       *http.Client
}

// Dial creates a client for the node listening at endpoint, e.g.
// "http://127.0.0.1:8645".
func Dial(endpoint string) (*Client, error) {
	return NewClient(endpoint, &http.Client{Timeout: defaultTimeout})
}

// NewClient creates a client that uses hc for its requests.
func NewClient(endpoint string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/"), hc: hc}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		enc, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(enc)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// decodeError turns an error body back into a typed error. Reverts become
// *vm.RevertError so that their payload is reachable through ErrorData.
func decodeError(status int, raw []byte) error {
	var res todoapi.ErrorResponse
	if err := json.Unmarshal(raw, &res); err != nil || res.Error.Message == "" {
		return &HTTPError{StatusCode: status, Message: strings.TrimSpace(string(raw))}
	}
	if res.Error.Code == todoapi.CodeReverted {
		return vm.NewRevertError(res.Error.Data)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", bind.ErrNotFound, res.Error.Message)
	}
	return &HTTPError{StatusCode: status, Message: res.Error.Message}
}

// Chain returns the chain id, suggested gas price and head of the node.
func (c *Client) Chain(ctx context.Context) (*todoapi.ChainInfo, error) {
	var info todoapi.ChainInfo
	if err := c.do(ctx, http.MethodGet, "/chain", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ChainID retrieves the chain id used for transaction replay protection.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	info, err := c.Chain(ctx)
	if err != nil {
		return nil, err
	}
	return info.ChainID.ToInt(), nil
}

// SuggestGasPrice retrieves the gas price the node accepts.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	info, err := c.Chain(ctx)
	if err != nil {
		return nil, err
	}
	return info.GasPrice.ToInt(), nil
}

// Account returns the head state of an account.
func (c *Client) Account(ctx context.Context, account common.Address) (*todoapi.AccountResult, error) {
	var res todoapi.AccountResult
	if err := c.do(ctx, http.MethodGet, "/account/"+account.Hex(), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// BalanceAt returns the wei balance of the given account.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	res, err := c.Account(ctx, account)
	if err != nil {
		return nil, err
	}
	return res.Balance.ToInt(), nil
}

// CodeAt returns the code of the given account.
func (c *Client) CodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	res, err := c.Account(ctx, account)
	if err != nil {
		return nil, err
	}
	return res.Code, nil
}

// PendingNonceAt returns the account nonce including queued transactions.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	res, err := c.Account(ctx, account)
	if err != nil {
		return 0, err
	}
	return uint64(res.PendingNonce), nil
}

func toCallArgs(msg bind.CallMsg) todoapi.CallArgs {
	args := todoapi.CallArgs{From: &msg.From, To: msg.To}
	if msg.Gas != 0 {
		gas := hexutil.Uint64(msg.Gas)
		args.Gas = &gas
	}
	if msg.GasPrice != nil {
		args.GasPrice = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.Value != nil {
		args.Value = (*hexutil.Big)(msg.Value)
	}
	if msg.Data != nil {
		data := hexutil.Bytes(msg.Data)
		args.Data = &data
	}
	return args
}

// CallContract executes a message call against the head state.
func (c *Client) CallContract(ctx context.Context, msg bind.CallMsg) ([]byte, error) {
	var res todoapi.CallResult
	if err := c.do(ctx, http.MethodPost, "/call", toCallArgs(msg), &res); err != nil {
		return nil, err
	}
	return res.Return, nil
}

// EstimateGas returns the gas msg needs on top of the pending state.
func (c *Client) EstimateGas(ctx context.Context, msg bind.CallMsg) (uint64, error) {
	var res todoapi.EstimateResult
	if err := c.do(ctx, http.MethodPost, "/estimate", toCallArgs(msg), &res); err != nil {
		return 0, err
	}
	return uint64(res.Gas), nil
}

// SendTransaction injects a signed transaction into the node's pending set.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	var res todoapi.SendResult
	if err := c.do(ctx, http.MethodPost, "/tx", tx, &res); err != nil {
		return err
	}
	if res.Hash != tx.Hash() {
		return fmt.Errorf("node acknowledged %x, sent %x", res.Hash, tx.Hash())
	}
	return nil
}

// TransactionReceipt returns the receipt of a mined transaction, or
// bind.ErrNotFound while it is pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt types.Receipt
	if err := c.do(ctx, http.MethodGet, "/receipt/"+txHash.Hex(), nil, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Todos lists the live items of a TodoList contract.
func (c *Client) Todos(ctx context.Context, contract common.Address) ([]*todoapi.TodoResult, error) {
	var items []*todoapi.TodoResult
	if err := c.do(ctx, http.MethodGet, "/todolist/"+contract.Hex()+"/todos", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SubscribeLogs streams the logs of sealed blocks into ch until ctx is
// cancelled or the connection fails. An empty filter streams every log.
func (c *Client) SubscribeLogs(ctx context.Context, filter []common.Address, ch chan<- []*types.Log) error {
	u, err := url.Parse(c.endpoint + "/ws/logs")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	for _, a := range filter {
		q.Add("address", a.Hex())
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	for {
		var logs []*types.Log
		if err := conn.ReadJSON(&logs); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		log.Trace("Received logs", "count", len(logs))
		select {
		case ch <- logs:
		case <-ctx.Done():
			return nil
		}
	}
}

// IsNotFound reports whether err signals a missing receipt or object.
func IsNotFound(err error) bool {
	return errors.Is(err, bind.ErrNotFound)
}
