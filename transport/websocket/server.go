package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

type controller interface {
	OnConnect(id entity.Identity) error
	OnDisconnect(id entity.Identity) error
	Dispatch(id entity.Identity, action string, payload json.RawMessage) error
}

type recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	OutboundDropped()
}

type Options struct {
	SendBuffer     int
	ReadLimit      int64
	AllowedOrigins []string
}

// Server - the realtime channel. It issues identities, keeps the open
// connections, and delivers outbound events on behalf of the controller.
type Server struct {
	logger   *slog.Logger
	metrics  recorder
	opts     Options
	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[entity.Identity]*client
	order            []entity.Identity
}

func New(logger *slog.Logger, metrics recorder, opts Options) *Server {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}

	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 4096
	}

	server := &Server{
		logger:  logger.With("component", "websocket"),
		metrics: metrics,
		opts:    opts,

		connections: make(map[entity.Identity]*client),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string, ctrl controller) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that.Handler(ctrl))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		// Shutdown leaves hijacked connections alone.
		that.closeAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - upgrades requests and feeds their events to the controller.
func (that *Server) Handler(ctrl controller) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		that.serveConnection(ctrl, writer, req)
	})
}

func (that *Server) serveConnection(ctrl controller, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(entity.Identity(uuid.NewString()), conn, that.opts.SendBuffer)
	log = log.With("identity", c.id)

	that.register(c)
	that.metrics.ConnectionOpened()
	log.Info("WebSocket connection established")

	go that.writePump(c)

	if err = ctrl.OnConnect(c.id); err != nil {
		log.Info("connection not seated", "error", err)
	}

	that.readPump(ctrl, c)

	that.unregister(c)
	that.metrics.ConnectionClosed()

	if err = ctrl.OnDisconnect(c.id); err != nil {
		log.Error("failed to handle disconnect", "error", err)
	}

	log.Info("WebSocket connection closed")
}

// SendTo delivers one event to one connection. Unknown identities are ignored.
func (that *Server) SendTo(id entity.Identity, action string, payload any) {
	data, err := encode(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "action", action, "error", err)
		return
	}

	that.connectionsMutex.RLock()
	c, ok := that.connections[id]
	that.connectionsMutex.RUnlock()

	if !ok {
		return
	}

	that.deliver(c, action, data)
}

// Broadcast delivers one event to every open connection.
func (that *Server) Broadcast(action string, payload any) {
	data, err := encode(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "action", action, "error", err)
		return
	}

	that.connectionsMutex.RLock()
	clients := make([]*client, 0, len(that.order))
	for _, id := range that.order {
		clients = append(clients, that.connections[id])
	}
	that.connectionsMutex.RUnlock()

	for _, c := range clients {
		that.deliver(c, action, data)
	}
}

// Connections lists open connections in arrival order.
func (that *Server) Connections() []entity.Identity {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	return slices.Clone(that.order)
}

func (that *Server) deliver(c *client, action string, data []byte) {
	if !c.enqueue(data) {
		that.metrics.OutboundDropped()
		that.logger.Warn("outbound message dropped", "identity", c.id, "action", action)
	}
}

func (that *Server) register(c *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.connections[c.id] = c
	that.order = append(that.order, c.id)
}

func (that *Server) unregister(c *client) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if _, ok := that.connections[c.id]; !ok {
		return
	}

	delete(that.connections, c.id)
	that.order = slices.DeleteFunc(that.order, func(id entity.Identity) bool {
		return id == c.id
	})
	c.close()
}

// closeAll drops every connection from the set and ends its pumps. The
// write pump sends a close frame, which unblocks the read pump.
func (that *Server) closeAll() {
	that.connectionsMutex.Lock()
	clients := make([]*client, 0, len(that.connections))
	for _, c := range that.connections {
		clients = append(clients, c)
	}
	that.connections = make(map[entity.Identity]*client)
	that.order = nil
	that.connectionsMutex.Unlock()

	for _, c := range clients {
		c.close()
	}

	that.logger.Info("closed open connections", "count", len(clients))
}

func (that *Server) checkOrigin(req *http.Request) bool {
	if len(that.opts.AllowedOrigins) == 0 {
		return true
	}

	return slices.Contains(that.opts.AllowedOrigins, req.Header.Get("Origin"))
}
