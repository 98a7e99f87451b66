package websocket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/seafight-backend/internal/apperror"
	"github.com/rocketscienceinc/seafight-backend/internal/entity"
	"github.com/rocketscienceinc/seafight-backend/internal/game"
)

func (that *Server) handleCreateRoom(c *client, _ *Message) error {
	if err := that.ensureNotSeated(c); err != nil {
		return err
	}

	code, err := that.manager.CreateRoom(c)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	c.player.Sit(code, int(game.SeatCreator))
	c.logger.Info("room created", "roomCode", code)

	return nil
}

func (that *Server) handleCreateBotRoom(c *client, _ *Message) error {
	if err := that.ensureNotSeated(c); err != nil {
		return err
	}

	code, err := that.manager.CreateBotRoom(c)
	if err != nil {
		return fmt.Errorf("failed to create bot room: %w", err)
	}

	c.player.Sit(code, int(game.SeatCreator))
	c.logger.Info("bot room created", "roomCode", code)

	return nil
}

func (that *Server) handleJoinRoom(c *client, msg *Message) error {
	var payload JoinRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrInvalidRoomCode, err)
	}

	if err := that.ensureNotSeated(c); err != nil {
		return err
	}

	code := strings.TrimSpace(payload.RoomCode)

	seat, err := that.manager.JoinRoom(code, c)
	if err != nil {
		return err
	}

	c.player.Sit(code, int(seat))
	c.logger.Info("joined room", "roomCode", code, "seat", int(seat))

	return nil
}

func (that *Server) handleFire(c *client, msg *Message) error {
	var payload FirePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrInvalidCoordinates, err)
	}

	if payload.X == nil || payload.Y == nil {
		return fmt.Errorf("%w: x and y are required", apperror.ErrInvalidCoordinates)
	}

	if !c.player.InRoom() {
		return apperror.ErrNotInRoom
	}

	return that.manager.Fire(c.player.RoomCode, c, *payload.X, *payload.Y)
}

// ensureNotSeated rejects a second room while the connection still holds a seat in a live one.
func (that *Server) ensureNotSeated(c *client) error {
	if !c.player.InRoom() {
		return nil
	}

	if that.manager.IsSeated(c.player.RoomCode, c) {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, c.player.RoomCode)
	}

	c.player.Leave()

	return nil
}

func errorEvent(message string) entity.Event {
	return entity.NewErrorEvent(message)
}
