package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/seafight-backend/internal/entity"
)

const (
	DefaultRecordTTL = 24 * time.Hour

	matchKeyPrefix = "match:"
	recentKey      = "matches:recent"

	// recentLimit bounds the recent index; older entries are trimmed on save.
	recentLimit = 1000
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	GetByCode(ctx context.Context, code string) (*entity.MatchRecord, error)
	Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
	DeleteByCode(ctx context.Context, code string) error
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMatchRepository(client *redis.Client, ttl time.Duration) MatchRepository {
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}

	return &dbMatch{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbMatch) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match record: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKeyPrefix+record.RoomCode, recordJSON, that.ttl)
		pipe.ZAdd(ctx, recentKey, redis.Z{
			Score:  float64(record.EndedAt.UnixMilli()),
			Member: record.RoomCode,
		})
		pipe.ZRemRangeByRank(ctx, recentKey, 0, -recentLimit-1)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match record: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByCode(ctx context.Context, code string) (*entity.MatchRecord, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match record %s: %w", code, err)
	}

	var record entity.MatchRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match record: %w", err)
	}

	return &record, nil
}

// Recent returns up to limit records, newest first. Records whose key expired are skipped.
func (that *dbMatch) Recent(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	if limit <= 0 {
		return []*entity.MatchRecord{}, nil
	}

	codes, err := that.client.ZRevRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent matches: %w", err)
	}

	records := make([]*entity.MatchRecord, 0, len(codes))
	if len(codes) == 0 {
		return records, nil
	}

	keys := make([]string, len(codes))
	for i, code := range codes {
		keys[i] = matchKeyPrefix + code
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load recent matches: %w", err)
	}

	var expired []any

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			expired = append(expired, codes[i])
			continue
		}

		var record entity.MatchRecord
		if err = json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match record %s: %w", codes[i], err)
		}

		records = append(records, &record)
	}

	if len(expired) > 0 {
		// expired keys leave stale entries in the index
		_ = that.client.ZRem(ctx, recentKey, expired...).Err()
	}

	return records, nil
}

func (that *dbMatch) DeleteByCode(ctx context.Context, code string) error {
	var deleted *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, matchKeyPrefix+code)
		pipe.ZRem(ctx, recentKey, code)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete match record %s: %w", code, err)
	}

	if deleted.Val() == 0 {
		return ErrMatchNotFound
	}

	return nil
}
