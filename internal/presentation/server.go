package presentation

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/metrics"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StateSource returns the current engine state.
type StateSource interface {
	Snapshot() types.Snapshot
}

// Server serves /metrics, /api/state, /api/stats and the /ws snapshot stream.
type Server struct {
	hub      *Hub
	source   StateSource
	upgrader websocket.Upgrader
	log      *logger.Logger

	httpServer *http.Server
	listener   net.Listener
	hubCancel  context.CancelFunc
	wg         sync.WaitGroup
}

// NewServer creates a server reading state from source and streaming hub messages.
func NewServer(hub *Hub, source StateSource, log *logger.Logger) *Server {
	return &Server{
		hub:    hub,
		source: source,
		upgrader: websocket.Upgrader{ //nolint:exhaustruct // defaults
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		log:        log,
		httpServer: nil,
		listener:   nil,
		hubCancel:  nil,
		wg:         sync.WaitGroup{},
	}
}

// Handler returns the router with every endpoint.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebSocket)

	return router
}

// Start listens on address and serves in the background. The hub loop runs until Stop.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener

	hubCtx, cancel := context.WithCancel(context.Background())
	s.hubCancel = cancel

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.hub.Run(hubCtx)
	}()

	s.httpServer = &http.Server{ //nolint:exhaustruct // defaults
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Presentation server stopped", zap.Error(err))
		}
	}()

	s.log.Info("Presentation server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the listening address, empty before Start.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and closes every websocket client.
func (s *Server) Stop(ctx context.Context) error {
	if s.hubCancel != nil {
		s.hubCancel()
	}

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.wg.Wait()

	return err
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.source.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	data, ok := s.hub.Latest(MessageStats)
	if !ok {
		http.Error(w, "no statistics yet", http.StatusNotFound)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]bool{"connected": s.source.Snapshot().Connected})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", zap.Error(err))

		return
	}

	c := &client{send: make(chan []byte, clientBuffer)}
	if !s.hub.add(c) {
		_ = conn.Close()

		return
	}

	go s.writePump(conn, c)
	s.readPump(conn, c)
}

// readPump discards client frames and unregisters the client when the connection ends.
func (s *Server) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		s.hub.remove(c)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
