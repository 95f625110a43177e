package todoapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/common/hexutil"
	"github.com/tos-network/todochain/core/state"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/metrics"
	"github.com/tos-network/todochain/todolist"
)

// maxRequestSize bounds the body of POST requests.
const maxRequestSize = 1024 * 1024

var (
	requestMeter = metrics.NewRegisteredMeter("api/requests", nil)
	errorMeter   = metrics.NewRegisteredMeter("api/errors", nil)
	requestTimer = metrics.NewRegisteredTimer("api/duration", nil)
)

var (
	errInvalidAddress = errors.New("invalid address")
	errInvalidHash    = errors.New("invalid hash")
	errInvalidIndex   = errors.New("invalid todo index")
	errNotFound       = errors.New("not found")
)

// Config holds the settings of the API server.
type Config struct {
	CorsAllowedOrigins []string `toml:",omitempty"`
	// GasCap bounds the gas of calls and estimations; zero means the block
	// gas limit.
	GasCap uint64 `toml:",omitempty"`
}

// DefaultConfig is the API configuration of a local development node.
var DefaultConfig = Config{
	CorsAllowedOrigins: []string{"*"},
}

// API serves the node endpoints.
type API struct {
	b      Backend
	config Config
	router *httprouter.Router
	logs   *logStream
}

// New creates the API on top of backend.
func New(b Backend, config Config) *API {
	api := &API{
		b:      b,
		config: config,
		router: httprouter.New(),
		logs:   newLogStream(b),
	}
	r := api.router
	r.GET("/chain", api.instrument(api.chain))
	r.GET("/account/:address", api.instrument(api.account))
	r.POST("/call", api.instrument(api.call))
	r.POST("/estimate", api.instrument(api.estimate))
	r.POST("/tx", api.instrument(api.sendTx))
	r.GET("/receipt/:hash", api.instrument(api.receipt))
	r.GET("/todolist/:contract/fee", api.instrument(api.todoFee))
	r.GET("/todolist/:contract/owner", api.instrument(api.todoOwner))
	r.GET("/todolist/:contract/count", api.instrument(api.todoCount))
	r.GET("/todolist/:contract/todos", api.instrument(api.todos))
	r.GET("/todolist/:contract/todos/:index", api.instrument(api.todo))
	r.GET("/ws/logs", api.logs.serve)
	return api
}

// Handler returns the http handler of the API, wrapped in the CORS policy.
func (api *API) Handler() http.Handler {
	if len(api.config.CorsAllowedOrigins) == 0 {
		return api.router
	}
	c := cors.New(cors.Options{
		AllowedOrigins: api.config.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(api.router)
}

// Close terminates the open log streams.
func (api *API) Close() {
	api.logs.close()
}

// handlerFunc is an endpoint returning either a JSON result or an error.
type handlerFunc func(r *http.Request, ps httprouter.Params) (interface{}, error)

func (api *API) instrument(h handlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		requestMeter.Mark(1)
		defer requestTimer.UpdateSince(start)

		res, err := h(r, ps)
		if err != nil {
			errorMeter.Mark(1)
			log.Debug("API request failed", "method", r.Method, "path", r.URL.Path, "err", err)
			writeError(w, err)
			return
		}
		log.Trace("Served API request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
		writeJSON(w, http.StatusOK, res)
	}
}

// ErrorResponse is the body of a failed request. Reverted executions carry
// CodeReverted and the revert payload in Data.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    int           `json:"code,omitempty"`
	Message string        `json:"message"`
	Data    hexutil.Bytes `json:"data,omitempty"`
}

// CodeReverted marks an error body describing a reverted execution.
const CodeReverted = 3

// requestError marks errors caused by the caller's input.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...interface{}) error {
	return &requestError{fmt.Errorf(format, args...)}
}

type dataError interface {
	ErrorData() []byte
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := ErrorBody{Message: err.Error()}

	var (
		reqErr *requestError
		revert dataError
	)
	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
	case errors.As(err, &revert):
		status = http.StatusBadRequest
		body.Code = CodeReverted
		body.Data = revert.ErrorData()
	case errors.As(err, &reqErr):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ErrorResponse{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Failed to write API response", "err", err)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func addressParam(ps httprouter.Params, name string) (common.Address, error) {
	s := ps.ByName(name)
	if !common.IsHexAddress(s) {
		return common.Address{}, &requestError{fmt.Errorf("%w: %q", errInvalidAddress, s)}
	}
	return common.HexToAddress(s), nil
}

// ChainInfo describes the served chain.
type ChainInfo struct {
	ChainID  *hexutil.Big   `json:"chainId"`
	GasPrice *hexutil.Big   `json:"gasPrice"`
	Number   hexutil.Uint64 `json:"number"`
	Head     common.Hash    `json:"head"`
}

func (api *API) chain(r *http.Request, ps httprouter.Params) (interface{}, error) {
	head := api.b.CurrentHeader()
	return &ChainInfo{
		ChainID:  (*hexutil.Big)(api.b.ChainConfig().ChainID),
		GasPrice: (*hexutil.Big)(api.b.SuggestGasPrice()),
		Number:   hexutil.Uint64(head.Number.Uint64()),
		Head:     head.Hash(),
	}, nil
}

// AccountResult is the head state of an account.
type AccountResult struct {
	Address      common.Address `json:"address"`
	Balance      *hexutil.Big   `json:"balance"`
	Nonce        hexutil.Uint64 `json:"nonce"`
	PendingNonce hexutil.Uint64 `json:"pendingNonce"`
	Code         hexutil.Bytes  `json:"code"`
}

func (api *API) account(r *http.Request, ps httprouter.Params) (interface{}, error) {
	addr, err := addressParam(ps, "address")
	if err != nil {
		return nil, err
	}
	statedb, err := api.b.HeadState()
	if err != nil {
		return nil, err
	}
	pending, err := api.b.PendingNonce(addr)
	if err != nil {
		return nil, err
	}
	return &AccountResult{
		Address:      addr,
		Balance:      (*hexutil.Big)(statedb.GetBalance(addr)),
		Nonce:        hexutil.Uint64(statedb.GetNonce(addr)),
		PendingNonce: hexutil.Uint64(pending),
		Code:         statedb.GetCode(addr),
	}, nil
}

// CallResult is the output of a successful call.
type CallResult struct {
	Return  hexutil.Bytes  `json:"return"`
	UsedGas hexutil.Uint64 `json:"usedGas"`
}

func (api *API) call(r *http.Request, ps httprouter.Params) (interface{}, error) {
	var args CallArgs
	if err := decodeBody(r, &args); err != nil {
		return nil, err
	}
	statedb, err := api.b.HeadState()
	if err != nil {
		return nil, err
	}
	res, err := DoCall(api.b, args, api.b.CurrentHeader(), statedb, api.config.GasCap)
	if err != nil {
		return nil, &requestError{err}
	}
	if res.Failed() {
		var revert dataError
		if errors.As(res.Err, &revert) {
			return nil, res.Err
		}
		return nil, &requestError{res.Err}
	}
	return &CallResult{Return: res.Return(), UsedGas: hexutil.Uint64(res.UsedGas)}, nil
}

// EstimateResult is the gas needed by a transaction.
type EstimateResult struct {
	Gas hexutil.Uint64 `json:"gas"`
}

func (api *API) estimate(r *http.Request, ps httprouter.Params) (interface{}, error) {
	var args CallArgs
	if err := decodeBody(r, &args); err != nil {
		return nil, err
	}
	gas, err := DoEstimateGas(api.b, args, api.config.GasCap)
	if err != nil {
		var revert dataError
		if errors.As(err, &revert) {
			return nil, err
		}
		return nil, &requestError{err}
	}
	return &EstimateResult{Gas: gas}, nil
}

// SendResult acknowledges a queued transaction.
type SendResult struct {
	Hash common.Hash `json:"hash"`
}

func (api *API) sendTx(r *http.Request, ps httprouter.Params) (interface{}, error) {
	tx := new(types.Transaction)
	if err := decodeBody(r, tx); err != nil {
		return nil, err
	}
	if err := api.b.SendTx(tx); err != nil {
		return nil, &requestError{err}
	}
	log.Info("Submitted transaction", "hash", tx.Hash(), "nonce", tx.Nonce(), "to", tx.To())
	return &SendResult{Hash: tx.Hash()}, nil
}

func (api *API) receipt(r *http.Request, ps httprouter.Params) (interface{}, error) {
	var hash common.Hash
	if err := hash.UnmarshalText([]byte(ps.ByName("hash"))); err != nil {
		return nil, &requestError{fmt.Errorf("%w: %v", errInvalidHash, err)}
	}
	receipt := api.b.GetReceipt(hash)
	if receipt == nil {
		return nil, fmt.Errorf("receipt %x: %w", hash, errNotFound)
	}
	return receipt, nil
}

// contractState resolves the contract parameter and the head state, failing
// when no TodoList lives at the address.
func (api *API) contractState(ps httprouter.Params) (common.Address, *state.StateDB, error) {
	addr, err := addressParam(ps, "contract")
	if err != nil {
		return common.Address{}, nil, err
	}
	statedb, err := api.b.HeadState()
	if err != nil {
		return common.Address{}, nil, err
	}
	if !todolist.IsTodoList(statedb, addr) {
		return common.Address{}, nil, fmt.Errorf("todolist %v: %w", addr, errNotFound)
	}
	return addr, statedb, nil
}

func (api *API) todoFee(r *http.Request, ps httprouter.Params) (interface{}, error) {
	addr, db, err := api.contractState(ps)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"fee": (*hexutil.Big)(todolist.ReadFee(db, addr))}, nil
}

func (api *API) todoOwner(r *http.Request, ps httprouter.Params) (interface{}, error) {
	addr, db, err := api.contractState(ps)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"owner": todolist.ReadOwner(db, addr)}, nil
}

func (api *API) todoCount(r *http.Request, ps httprouter.Params) (interface{}, error) {
	addr, db, err := api.contractState(ps)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": hexutil.Uint64(todolist.ReadCount(db, addr))}, nil
}

// TodoResult is a single live todo item.
type TodoResult struct {
	Index      hexutil.Uint64  `json:"index"`
	Definition string          `json:"todoDefinition"`
	Status     todolist.Status `json:"status"`
}

func (api *API) todo(r *http.Request, ps httprouter.Params) (interface{}, error) {
	addr, db, err := api.contractState(ps)
	if err != nil {
		return nil, err
	}
	index, err := strconv.ParseUint(ps.ByName("index"), 10, 64)
	if err != nil {
		return nil, &requestError{fmt.Errorf("%w: %v", errInvalidIndex, err)}
	}
	item, ok := todolist.ReadTodo(db, addr, index)
	if !ok {
		return nil, fmt.Errorf("todo %d: %w", index, errNotFound)
	}
	return &TodoResult{Index: hexutil.Uint64(index), Definition: item.Definition, Status: item.Status}, nil
}

// todos lists every live item; deleted slots are skipped.
func (api *API) todos(r *http.Request, ps httprouter.Params) (interface{}, error) {
	addr, db, err := api.contractState(ps)
	if err != nil {
		return nil, err
	}
	count := todolist.ReadCount(db, addr)
	items := make([]*TodoResult, 0, count)
	for i := uint64(0); i < count; i++ {
		if item, ok := todolist.ReadTodo(db, addr, i); ok {
			items = append(items, &TodoResult{Index: hexutil.Uint64(i), Definition: item.Definition, Status: item.Status})
		}
	}
	return items, nil
}
