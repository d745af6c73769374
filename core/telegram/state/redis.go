package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTxAttempts = 5

// RedisStore keeps conversations as JSON documents under conversation:<userID>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. ttl=0 keeps entries forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("state: redis ping: %w", err)
	}
	return nil
}

func redisKey(userID int64) string {
	return fmt.Sprintf("conversation:%d", userID)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadRedis(ctx context.Context, g stringGetter, userID int64) (Conversation, bool, error) {
	raw, err := g.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewConversation(userID), false, nil
	}
	if err != nil {
		return Conversation{}, false, fmt.Errorf("state: redis get: %w", err)
	}
	var conv Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return Conversation{}, false, fmt.Errorf("state: decode conversation %d: %w", userID, err)
	}
	conv.UserID = userID
	return conv.clone(), true, nil
}

// Get loads the user's conversation.
func (s *RedisStore) Get(ctx context.Context, userID int64) (Conversation, bool, error) {
	return loadRedis(ctx, s.client, userID)
}

// SetState rewrites the tag inside an optimistic transaction.
func (s *RedisStore) SetState(ctx context.Context, userID int64, tag Tag) error {
	return s.update(ctx, userID, func(c *Conversation) { c.Tag = tag })
}

// UpdateScratch merges one scratch value inside an optimistic transaction.
func (s *RedisStore) UpdateScratch(ctx context.Context, userID int64, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.update(ctx, userID, func(c *Conversation) { c.Scratch[key] = value })
}

// Clear deletes the stored document.
func (s *RedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) update(ctx context.Context, userID int64, mutate func(*Conversation)) error {
	key := redisKey(userID)
	txf := func(tx *redis.Tx) error {
		conv, _, err := loadRedis(ctx, tx, userID)
		if err != nil {
			return err
		}
		mutate(&conv)
		data, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("state: encode conversation %d: %w", userID, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("state: redis update: %w", err)
		}
	}
	return fmt.Errorf("state: redis update %d: %w", userID, redis.TxFailedErr)
}
