package todoapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/tos-network/todochain/common"
	"github.com/tos-network/todochain/core/types"
	"github.com/tos-network/todochain/log"
	"github.com/tos-network/todochain/metrics"
)

const (
	logsChanSize = 16
	wsWriteWait  = 10 * time.Second
)

var wsClientGauge = metrics.NewRegisteredGauge("api/ws/clients", nil)

// logStream pushes the logs of every sealed block to websocket clients.
// Clients may restrict the stream with one or more ?address= parameters.
type logStream struct {
	b        Backend
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

func newLogStream(b Backend) *logStream {
	return &logStream{
		b: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS policy of the HTTP API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (s *logStream) serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var filter []common.Address
	for _, a := range r.URL.Query()["address"] {
		if !common.IsHexAddress(a) {
			http.Error(w, errInvalidAddress.Error()+": "+a, http.StatusBadRequest)
			return
		}
		filter = append(filter, common.HexToAddress(a))
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("WebSocket upgrade failed", "err", err)
		return
	}
	if !s.add(conn) {
		conn.Close()
		return
	}
	defer s.remove(conn)

	logsCh := make(chan []*types.Log, logsChanSize)
	sub := s.b.SubscribeLogsEvent(logsCh)
	defer sub.Unsubscribe()

	// The read loop only detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("WebSocket read error", "err", err)
				}
				return
			}
		}
	}()
	log.Debug("Log stream opened", "remote", r.RemoteAddr, "filter", len(filter))

	for {
		select {
		case logs := <-logsCh:
			logs = filterLogs(logs, filter)
			if len(logs) == 0 {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(logs); err != nil {
				log.Debug("Log stream write failed", "remote", r.RemoteAddr, "err", err)
				return
			}
		case <-sub.Err():
			return
		case <-done:
			return
		}
	}
}

func (s *logStream) add(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.clients[conn] = struct{}{}
	wsClientGauge.Update(int64(len(s.clients)))
	return true
}

func (s *logStream) remove(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	wsClientGauge.Update(int64(len(s.clients)))
}

// close disconnects every client and refuses new ones.
func (s *logStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for conn := range s.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "node stopping"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(s.clients, conn)
	}
	wsClientGauge.Update(0)
}

func filterLogs(logs []*types.Log, addresses []common.Address) []*types.Log {
	if len(addresses) == 0 {
		return logs
	}
	var out []*types.Log
	for _, l := range logs {
		for _, a := range addresses {
			if l.Address == a {
				out = append(out, l)
				break
			}
		}
	}
	return out
}
