// Package monitor streams tree tick events from the event bus to websocket
// clients.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/btree/internal/core/bt"
	"github.com/zeusync/btree/internal/core/events/bus"
	"github.com/zeusync/btree/internal/core/observability/log"
)

const sendBuffer = 64

var ErrClosed = errors.New("monitor is closed")

// Message is the JSON frame written to clients for every bus event.
type Message struct {
	Type   string    `json:"type"`
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Data   any       `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	// tree restricts delivery to one tree ID when set.
	tree string
}

// Metrics is the JSON document served on /metrics.
type Metrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribers_active"`
	Topics            uint64 `json:"topics"`
	Clients           int    `json:"clients"`
	DroppedFrames     uint64 `json:"dropped_frames"`
	MaxDeliveryMicros int64  `json:"max_delivery_micros"`
}

type Server struct {
	logger   log.Log
	upgrader websocket.Upgrader
	events   bus.EventBus
	sub      bus.Subscription

	dropped     atomic.Uint64
	maxDelivery atomic.Int64

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	srv     *http.Server
}

// New subscribes to tick events of topic on events and registers the server
// as a bus observer so delivery metrics are collected.
func New(events bus.EventBus, topic string, logger log.Log) (*Server, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		logger: logger.With(log.String("component", "monitor")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		events:  events,
		clients: make(map[*client]struct{}),
	}
	sub, err := events.SubscribeTopic(topic, bt.EventTick, s.broadcast)
	if err != nil {
		return nil, err
	}
	s.sub = sub
	events.AddObserver(s)
	return s, nil
}

func (s *Server) OnPublish(string, string, bus.Event) {}

func (s *Server) OnDelivered(_, _ string, _ int, _ error, durationMicros int64) {
	for {
		cur := s.maxDelivery.Load()
		if durationMicros <= cur || s.maxDelivery.CompareAndSwap(cur, durationMicros) {
			return
		}
	}
}

// Metrics snapshots the bus counters together with the feed's own.
func (s *Server) Metrics() Metrics {
	bm := s.events.GetMetrics()
	return Metrics{
		Published:         bm.Published,
		DeliveredHandlers: bm.DeliveredHandlers,
		Errors:            bm.Errors,
		SubscribersActive: bm.SubscribersActive,
		Topics:            bm.Topics,
		Clients:           s.Clients(),
		DroppedFrames:     s.dropped.Load(),
		MaxDeliveryMicros: s.maxDelivery.Load(),
	}
}

// Handler serves the websocket feed on /ws, delivery counters on /metrics and
// a liveness check on /healthz. The optional "tree" query parameter filters
// the feed to one tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// Start listens on addr in the background.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("monitor listener failed", log.Error(err), log.String("addr", addr))
		}
	}()
	s.logger.Info("monitor listening", log.String("addr", addr))
	return nil
}

// Stop unsubscribes from the bus, disconnects all clients and shuts the
// listener down if one was started.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.srv
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	s.events.RemoveObserver(s)
	err := s.sub.Cancel()
	if srv != nil {
		err = errors.Join(err, srv.Shutdown(ctx))
	}
	return err
}

// Clients reports the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Metrics()); err != nil {
		s.logger.Warn("write metrics failed", log.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), tree: r.URL.Query().Get("tree")}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("client connected", log.String("remote", conn.RemoteAddr().String()), log.String("tree", c.tree))

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client frames and unregisters the client when the
// connection drops.
func (s *Server) readLoop(c *client) {
	defer s.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

// broadcast runs on the ticking goroutine, so slow clients drop frames rather
// than stall the tree.
func (s *Server) broadcast(ev bus.Event) error {
	msg, err := json.Marshal(Message{Type: ev.Type(), Source: ev.Source(), Time: ev.Timestamp(), Data: ev.Data()})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if c.tree != "" && c.tree != ev.Source() {
			continue
		}
		select {
		case c.send <- msg:
		default:
			s.dropped.Add(1)
			s.logger.Warn("dropping frame for slow client", log.String("remote", c.conn.RemoteAddr().String()))
		}
	}
	return nil
}
