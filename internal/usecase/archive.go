package usecase

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/seafight-backend/internal/entity"
)

const DefaultArchiveQueueSize = 256

type matchSaver interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
}

type recordPublisher interface {
	Publish(ctx context.Context, record *entity.MatchRecord) error
}

// Archive stores and announces finished matches off the room goroutines.
type Archive struct {
	logger    *slog.Logger
	saver     matchSaver
	publisher recordPublisher

	queue chan *entity.MatchRecord
}

// NewArchive creates the archive. publisher may be nil.
func NewArchive(logger *slog.Logger, saver matchSaver, publisher recordPublisher, queueSize int) *Archive {
	if queueSize <= 0 {
		queueSize = DefaultArchiveQueueSize
	}

	return &Archive{
		logger:    logger.With("component", "archive"),
		saver:     saver,
		publisher: publisher,

		queue: make(chan *entity.MatchRecord, queueSize),
	}
}

// Enqueue hands a record to the worker. It never blocks and reports false when the queue is full.
func (that *Archive) Enqueue(record *entity.MatchRecord) bool {
	select {
	case that.queue <- record:
		return true
	default:
		that.logger.Warn("archive queue is full", "roomCode", record.RoomCode)
		return false
	}
}

// Run drains the queue until ctx is canceled.
func (that *Archive) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case record := <-that.queue:
			that.store(ctx, record)
		}
	}
}

func (that *Archive) store(ctx context.Context, record *entity.MatchRecord) {
	log := that.logger.With("method", "store", "roomCode", record.RoomCode)

	if err := that.saver.Save(ctx, record); err != nil {
		log.Error("failed to save match record", "error", err)
	}

	if that.publisher == nil {
		return
	}

	if err := that.publisher.Publish(ctx, record); err != nil {
		log.Error("failed to publish match record", "error", err)
	}
}

// Flush stores whatever is still queued. Call it after Run has returned.
func (that *Archive) Flush(ctx context.Context) {
	for {
		select {
		case record := <-that.queue:
			that.store(ctx, record)
		default:
			return
		}
	}
}
