package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/rocketscienceinc/seafight-backend/internal/entity"
)

const DefaultSubject = "seafight.match.finished"

var ErrEmptyURL = errors.New("nats url is empty")

// Publisher announces finished matches on a NATS subject.
type Publisher struct {
	logger  *slog.Logger
	conn    *nats.Conn
	subject string
}

func NewPublisher(logger *slog.Logger, url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	if subject == "" {
		subject = DefaultSubject
	}

	log := logger.With("component", "nats_publisher")

	conn, err := nats.Connect(
		url,
		nats.Name("seafight-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("disconnected from nats", "error", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info("reconnected to nats", "url", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &Publisher{
		logger:  log,
		conn:    conn,
		subject: subject,
	}, nil
}

func (that *Publisher) Publish(ctx context.Context, record *entity.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match record: %w", err)
	}

	msg := nats.NewMsg(that.subject)
	msg.Header.Set("Room-Code", record.RoomCode)
	msg.Data = data

	if err = that.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish match record: %w", err)
	}

	return nil
}

func (that *Publisher) Subject() string {
	return that.subject
}

// Close flushes pending messages and closes the connection.
func (that *Publisher) Close() {
	if err := that.conn.Drain(); err != nil {
		that.logger.Error("failed to drain nats connection", "error", err)
	}
}
