// Package ingest runs the WebSocket endpoint the game-client bridge streams
// events into, and the subscriber endpoint HUD frontends read calculated
// stats from.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/pokerhud/internal/engine"
	"github.com/lox/pokerhud/internal/pipeline"
	"github.com/lox/pokerhud/internal/realtime"
)

// Push is one server-to-subscriber frame. Exactly one payload is set.
type Push struct {
	Type    string               `json:"type"` // "stats" or "odds"
	HeroID  int64                `json:"hero_id,omitempty"`
	Players []engine.PlayerStats `json:"players,omitempty"`
	Odds    *realtime.Snapshot   `json:"odds,omitempty"`
}

// subscriber is one HUD frontend connection.
type subscriber struct {
	conn *websocket.Conn
	send chan *Push
}

// Server bridges WebSocket traffic to a pipeline.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	pipeline    *pipeline.Pipeline
	logger      *log.Logger
	subscribers map[*subscriber]bool
	register    chan *subscriber
	unregister  chan *subscriber
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates a server feeding the given pipeline. Start must be
// called before any traffic flows.
func NewServer(addr string, p *pipeline.Pipeline, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The bridge and the HUD run on localhost.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pipeline:    p,
		logger:      logger.WithPrefix("ingest"),
		subscribers: make(map[*subscriber]bool),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		ctx:         ctx,
		cancel:      cancel,
	}

	p.OnStats(func(players []engine.PlayerStats) {
		s.broadcast(&Push{Type: "stats", HeroID: p.HeroID(), Players: players})
	})
	p.OnOdds(func(snap *realtime.Snapshot) {
		s.broadcast(&Push{Type: "odds", Odds: snap})
	})
	return s
}

// Start runs the HTTP listener. Blocks until the listener fails.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)
	mux.HandleFunc("/hud", s.handleHUD)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("starting ingest server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop closes all subscriber connections and halts the lifecycle loop.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for sub := range s.subscribers {
		_ = sub.conn.Close()
	}
	s.mu.Unlock()
	return nil
}

func (s *Server) run() {
	for {
		select {
		case sub := <-s.register:
			s.mu.Lock()
			s.subscribers[sub] = true
			total := len(s.subscribers)
			s.mu.Unlock()
			s.logger.Info("hud subscriber connected", "total", total)

		case sub := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.subscribers[sub]; ok {
				delete(s.subscribers, sub)
				close(sub.send)
				_ = sub.conn.Close()
			}
			total := len(s.subscribers)
			s.mu.Unlock()
			s.logger.Info("hud subscriber disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleFeed is the bridge's event stream. One reader goroutine per
// connection keeps arrival order intact.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("feed upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	s.logger.Info("feed connected", "remote", conn.RemoteAddr())
	s.pipeline.ResetSession()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("feed read failed", "err", err)
			} else {
				s.logger.Info("feed disconnected", "remote", conn.RemoteAddr())
			}
			return
		}
		if err := s.pipeline.HandleRaw(s.ctx, data); err != nil {
			s.logger.Error("feed frame rejected", "err", err)
		}
	}
}

// handleHUD registers a stats subscriber and pumps pushes until it drops.
func (s *Server) handleHUD(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("hud upgrade failed", "err", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan *Push, 16)}
	s.register <- sub

	go func() {
		for push := range sub.send {
			if err := conn.WriteJSON(push); err != nil {
				s.logger.Debug("hud write failed", "err", err)
				s.unregister <- sub
				return
			}
		}
	}()

	// Subscribers send nothing; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.unregister <- sub
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// broadcast queues a push to every subscriber, dropping frames for slow
// consumers rather than blocking the pipeline.
func (s *Server) broadcast(push *Push) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for sub := range s.subscribers {
		select {
		case sub.send <- push:
		default:
			s.logger.Debug("dropping push for slow subscriber")
		}
	}
}
