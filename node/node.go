// Package node assembles a single-node todochain: the chain database, the
// instant sealing miner, the log indexer and the HTTP API.
package node

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/event"
	"github.com/tos-network/todochain/internal/todoapi"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/metrics"
	"github.com/tos-network/todochain/miner"
	"github.com/tos-network/todochain/todoindex"
	_ "github.com/tos-network/todochain/todolist" // registers TODO_* handlers via init()
	"github.com/tos-network/todochain/tosdb"
	"github.com/tos-network/todochain/tosdb/leveldb"
	"github.com/tos-network/todochain/tosdb/memorydb"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var (
	ErrNodeRunning = errors.New("node already running")
	ErrNodeStopped = errors.New("node not started")
)

// Node is a container of the chain services and their HTTP surfaces.
type Node struct {
	config *Config
	log    log.Logger

	db    tosdb.Database
	chain *core.BlockChain
	miner *miner.Miner
	index *todoindex.Index
	api   *todoapi.API

	lock            sync.Mutex
	httpListener    net.Listener
	metricsListener net.Listener
	indexLogs       chan []*types.Log
	indexSub        event.Subscription
	running         bool
}

// New opens the chain database and creates the services. Nothing is served
// until Start and Run.
func New(conf *Config) (*Node, error) {
	confCopy := *conf
	conf = &confCopy

	logger := log.New()
	var (
		db  tosdb.Database
		err error
	)
	if dir := conf.ChainDir(); dir != "" {
		db, err = leveldb.New(dir, conf.DatabaseCache, conf.DatabaseHandles, "todochain/db/chaindata/", false)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warn("Running on an ephemeral in-memory database")
		db = memorydb.New()
	}
	chain, err := core.NewBlockChain(db, conf.Genesis)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Initialised chain configuration", "config", chain.Config())

	n := &Node{
		config: conf,
		log:    logger,
		db:     db,
		chain:  chain,
		miner:  miner.New(chain, conf.Miner),
		index:  todoindex.New(),
	}
	n.api = todoapi.New(&APIBackend{n}, conf.API)
	return n, nil
}

// Config returns the configuration of node.
func (n *Node) Config() *Config { return n.config }

// Chain returns the canonical chain.
func (n *Node) Chain() *core.BlockChain { return n.chain }

// Miner returns the sealer of the node.
func (n *Node) Miner() *miner.Miner { return n.miner }

// Index returns the TodoList log index.
func (n *Node) Index() *todoindex.Index { return n.index }

// Handler returns the HTTP handler of the API.
func (n *Node) Handler() http.Handler { return n.api.Handler() }

// Start opens the listeners of the HTTP API and the metrics exporter.
func (n *Node) Start() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.running {
		return ErrNodeRunning
	}
	if endpoint := n.config.HTTPEndpoint(); endpoint != "" {
		l, err := net.Listen("tcp", endpoint)
		if err != nil {
			return err
		}
		n.httpListener = l
		n.log.Info("HTTP server started", "endpoint", "http://"+l.Addr().String())
	}
	if n.config.Metrics.Enabled {
		l, err := net.Listen("tcp", n.config.MetricsEndpoint())
		if err != nil {
			n.closeListeners()
			return err
		}
		n.metricsListener = l
		n.log.Info("Starting metrics server", "addr", "http://"+l.Addr().String()+"/metrics")
	}
	// Subscribe the index before anything can be sealed, so it sees every
	// block produced while the node runs.
	n.indexLogs = make(chan []*types.Log, todoindex.LogsChanSize)
	n.indexSub = n.chain.SubscribeLogsEvent(n.indexLogs)
	n.running = true
	return nil
}

// HTTPEndpoint returns the URL of the started API server, or "" if the API
// is disabled or the node is not started.
func (n *Node) HTTPEndpoint() string {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.httpListener == nil {
		return ""
	}
	return "http://" + n.httpListener.Addr().String()
}

// Run serves the started node until ctx is cancelled or a service fails.
func (n *Node) Run(ctx context.Context) error {
	n.lock.Lock()
	if !n.running {
		n.lock.Unlock()
		return ErrNodeStopped
	}
	httpL, metricsL := n.httpListener, n.metricsListener
	logsCh, sub := n.indexLogs, n.indexSub
	n.lock.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.miner.Loop(ctx) })
	g.Go(func() error { return n.index.Consume(ctx, logsCh, sub) })

	var servers []*http.Server
	if httpL != nil {
		srv := &http.Server{Handler: n.api.Handler(), ReadHeaderTimeout: 10 * time.Second}
		servers = append(servers, srv)
		g.Go(func() error { return serve(srv, httpL) })
	}
	if metricsL != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		servers = append(servers, srv)
		g.Go(func() error { return serve(srv, metricsL) })
	}
	g.Go(func() error {
		<-ctx.Done()
		n.api.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				n.log.Warn("HTTP server shutdown failed", "err", err)
			}
		}
		return nil
	})
	err := g.Wait()

	n.lock.Lock()
	n.running = false
	n.httpListener, n.metricsListener = nil, nil
	n.indexLogs, n.indexSub = nil, nil
	n.lock.Unlock()
	return err
}

func serve(srv *http.Server, l net.Listener) error {
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (n *Node) closeListeners() {
	for _, l := range []net.Listener{n.httpListener, n.metricsListener} {
		if l != nil {
			l.Close()
		}
	}
	n.httpListener, n.metricsListener = nil, nil
}

// Close stops the chain and releases the database. It must not be called
// while Run is active.
func (n *Node) Close() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.closeListeners()
	if n.indexSub != nil {
		n.indexSub.Unsubscribe()
		n.indexSub = nil
	}
	n.running = false
	n.chain.Stop()
	return n.db.Close()
}
