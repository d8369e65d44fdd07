package deadletter

import (
	"context"

	crerr "github.com/cockroachdb/errors"

	sonic "github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/deadletter"
)

// RedisStore appends dead letters to a named durable list, newest first.
// Operator tooling consumes it out-of-band.
type RedisStore struct {
	client *redis.Client
	list   string
}

func NewRedisStore(client *redis.Client, list string) *RedisStore {
	if list == "" {
		list = "events:dead_letter"
	}
	return &RedisStore{client: client, list: list}
}

func (s *RedisStore) Append(ctx context.Context, entry deadletter.Entry) error {
	encoded, err := sonic.Marshal(entry)
	if err != nil {
		return crerr.Wrap(err, "marshal dead letter")
	}
	if err := s.client.LPush(ctx, s.list, encoded).Err(); err != nil {
		return crerr.Wrap(err, "append dead letter")
	}
	return nil
}

func (s *RedisStore) Depth(ctx context.Context) (int64, error) {
	depth, err := s.client.LLen(ctx, s.list).Result()
	if err != nil {
		return 0, crerr.Wrap(err, "dead letter depth")
	}
	return depth, nil
}

func (s *RedisStore) Peek(ctx context.Context, n int64) ([]deadletter.Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.list, 0, n-1).Result()
	if err != nil {
		return nil, crerr.Wrap(err, "peek dead letters")
	}

	out := make([]deadletter.Entry, 0, len(raw))
	for _, item := range raw {
		var entry deadletter.Entry
		if err := sonic.Unmarshal([]byte(item), &entry); err != nil {
			return nil, crerr.Wrap(err, "unmarshal dead letter")
		}
		out = append(out, entry)
	}
	return out, nil
}
