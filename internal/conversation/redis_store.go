package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisMessagesKeyPrefix = "conv_messages:"
	redisCreatedKeyPrefix  = "conv_created:"
)

// RedisStore keeps conversation history in redis lists with a TTL, so
// abandoned conversations expire instead of growing without bound.
type RedisStore struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisStore{
		redis:       redisClient,
		tracer:      otel.Tracer("leadchat.internal.conversation.redis_store"),
		ttl:         ttl,
		maxMessages: 250,
	}
}

func messagesKey(conversationID string) string {
	return redisMessagesKeyPrefix + conversationID
}

func createdKey(conversationID string) string {
	return redisCreatedKeyPrefix + conversationID
}

func (s *RedisStore) Append(ctx context.Context, conversationID string, msg Message) error {
	if conversationID == "" {
		return ErrConversationIDRequired
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("conversation: marshal message: %w", err)
	}

	ctx, span := s.tracer.Start(ctx, "conversation.redis_store.append")
	defer span.End()

	pipe := s.redis.TxPipeline()
	pipe.SetNX(ctx, createdKey(conversationID), time.Now().UTC().Format(time.RFC3339Nano), s.ttl)
	pipe.Expire(ctx, createdKey(conversationID), s.ttl)
	pipe.RPush(ctx, messagesKey(conversationID), data)
	pipe.Expire(ctx, messagesKey(conversationID), s.ttl)
	if s.maxMessages > 0 {
		pipe.LTrim(ctx, messagesKey(conversationID), -s.maxMessages, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append message: %w", err)
	}
	return nil
}

func (s *RedisStore) Record(ctx context.Context, conversationID string) (*Record, error) {
	if conversationID == "" {
		return nil, ErrConversationIDRequired
	}

	ctx, span := s.tracer.Start(ctx, "conversation.redis_store.record")
	defer span.End()

	createdRaw, err := s.redis.Get(ctx, createdKey(conversationID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: read created_at: %w", err)
	}

	rec := &Record{}
	if ts, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
		rec.CreatedAt = ts
	}

	items, err := s.redis.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: read messages: %w", err)
	}
	for _, item := range items {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		rec.Messages = append(rec.Messages, msg)
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return ErrConversationIDRequired
	}

	ctx, span := s.tracer.Start(ctx, "conversation.redis_store.delete")
	defer span.End()

	if err := s.redis.Del(ctx, messagesKey(conversationID), createdKey(conversationID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: delete: %w", err)
	}
	return nil
}

func (s *RedisStore) IDs(ctx context.Context) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.redis_store.ids")
	defer span.End()

	var ids []string
	iter := s.redis.Scan(ctx, 0, redisCreatedKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), redisCreatedKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: scan ids: %w", err)
	}
	return ids, nil
}
