package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// client is one WebSocket connection. It is the seat handle rooms send events to.
type client struct {
	server  *Server
	conn    *websocket.Conn
	limiter *rate.Limiter
	logger  *slog.Logger

	// player is only touched by the read pump
	player entity.Player

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(server *Server, conn *websocket.Conn, id string) *client {
	return &client{
		server:  server,
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(server.conf.MessageRate), server.conf.MessageBurst),
		logger:  server.logger.With("connectionID", id),
		player:  entity.Player{ID: id},
		send:    make(chan []byte, server.conf.SendBuffer),
	}
}

// Send queues the event for the write pump. A full queue drops the event.
func (that *client) Send(event entity.Event) {
	data, err := encodeEvent(event)
	if err != nil {
		that.logger.Error("failed to encode event", "event", event.Name, "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	select {
	case that.send <- data:
	default:
		that.logger.Warn("send buffer is full, dropping event", "event", event.Name)
	}
}

func (that *client) closeSend() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

func (that *client) readPump() {
	defer func() {
		that.leaveRoom()
		that.closeSend()
		that.server.unregister(that)
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(maxMessageSize)

	if err := that.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		that.logger.Error("failed to set read deadline", "error", err)
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				that.logger.Error("unexpected close", "error", err)
			}

			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if !that.limiter.Allow() {
			that.sendError(apperror.ErrTooManyRequests)
			continue
		}

		that.server.dispatch(that, data)
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				that.logger.Error("failed to set write deadline", "error", err)
			}

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Error("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				that.logger.Error("failed to set write deadline", "error", err)
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// leaveRoom gives up the seat the connection holds. Leaving a running match forfeits it.
func (that *client) leaveRoom() {
	if !that.player.InRoom() {
		return
	}

	that.server.manager.Disconnect(that.player.RoomCode, that)
	that.player.Leave()
}

func (that *client) sendError(err error) {
	that.Send(entity.NewErrorEvent(err.Error()))
}
