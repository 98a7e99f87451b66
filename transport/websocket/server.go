package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
	"github.com/rocketscienceinc/seafight-backend/internal/config"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
	"github.com/rocketscienceinc/seafight-backend/internal/pkg"
	"github.com/rocketscienceinc/seafight-backend/internal/service"
)

const internalErrorMessage = "internal server error"

type gameManager interface {
	CreateRoom(handle service.SeatHandle) (string, error)
	CreateBotRoom(handle service.SeatHandle) (string, error)
	JoinRoom(code string, handle service.SeatHandle) (game.Seat, error)
	Fire(code string, handle service.SeatHandle, x, y int) error
	Disconnect(code string, handle service.SeatHandle)
	IsSeated(code string, handle service.SeatHandle) bool
}

type Server struct {
	logger   *slog.Logger
	manager  gameManager
	conf     config.Gateway
	upgrader websocket.Upgrader

	handlers map[string]func(client *client, message *Message) error

	mu      sync.Mutex
	clients map[string]*client
}

func New(logger *slog.Logger, manager gameManager, conf config.Gateway) *Server {
	if conf.MessageRate <= 0 {
		conf.MessageRate = 5
	}

	if conf.MessageBurst <= 0 {
		conf.MessageBurst = 10
	}

	if conf.SendBuffer <= 0 {
		conf.SendBuffer = 256
	}

	server := &Server{
		logger:  logger.With("component", "websocket"),
		manager: manager,
		conf:    conf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(*client, *Message) error),
		clients:  make(map[string]*client),
	}

	server.handlers[ActionCreateRoom] = server.handleCreateRoom
	server.handlers[ActionCreateBotRoom] = server.handleCreateBotRoom
	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionFire] = server.handleFire

	return server
}

// Handler serves the WebSocket endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}

		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(that, conn, pkg.GenerateNewSessionID())
	that.register(c)

	log.Info("WebSocket connection established", "connectionID", c.player.ID)

	go c.writePump()
	go c.readPump()
}

// dispatch decodes one inbound message and runs its handler.
func (that *Server) dispatch(c *client, data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		c.logger.Warn("failed to unmarshal message", "error", err)
		c.Send(errorEvent("invalid message"))

		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		c.Send(errorEvent("unknown action: " + message.Action))
		return
	}

	if err := handler(c, &message); err != nil {
		that.reportError(c, message.Action, err)
	}
}

// reportError tells the client what went wrong with its request.
func (that *Server) reportError(c *client, action string, err error) {
	switch {
	case apperror.IsProtocol(err):
		c.sendError(err)
	case errors.Is(err, apperror.ErrInvariantViolation):
		// the room already told both seats the match was aborted
		c.logger.Error("match aborted", "action", action, "error", err)
	default:
		c.logger.Error("failed to process message", "action", action, "error", err)
		c.Send(errorEvent(internalErrorMessage))
	}
}

func (that *Server) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c.player.ID] = c
}

func (that *Server) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.clients, c.player.ID)
}

func (that *Server) closeAll() {
	that.mu.Lock()
	clients := make([]*client, 0, len(that.clients))
	for _, c := range that.clients {
		clients = append(clients, c)
	}
	that.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}
