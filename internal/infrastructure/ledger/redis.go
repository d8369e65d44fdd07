package ledger

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	sonic "github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/ledger"
)

const keyPrefix = "ledger:event:"

type RedisConfig struct {
	// ProcessingTTL bounds how long a processing mark can block concurrent
	// deliveries if the owner dies mid-flight.
	ProcessingTTL time.Duration
	// Retention keeps processed marks long enough that realistic
	// redeliveries are caught; an older redelivery is treated as new.
	Retention time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		ProcessingTTL: 5 * time.Minute,
		Retention:     30 * 24 * time.Hour,
	}
}

// RedisLedger implements the idempotency ledger on a Redis keyspace, one
// JSON record per processing key.
type RedisLedger struct {
	client *redis.Client
	cfg    RedisConfig
}

func NewRedisLedger(client *redis.Client, cfg RedisConfig) *RedisLedger {
	defaults := DefaultRedisConfig()
	if cfg.ProcessingTTL <= 0 {
		cfg.ProcessingTTL = defaults.ProcessingTTL
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaults.Retention
	}
	return &RedisLedger{client: client, cfg: cfg}
}

// Begin claims the key with a single SET NX round trip, the atomic
// test-and-set that keeps two concurrent deliveries from both proceeding.
func (l *RedisLedger) Begin(ctx context.Context, eventID string) (ledger.BeginState, error) {
	record := ledger.Record{
		EventID:    eventID,
		State:      ledger.StateProcessing,
		RecordedAt: time.Now().UTC(),
	}
	encoded, err := sonic.Marshal(record)
	if err != nil {
		return "", crerr.Wrap(err, "marshal processing record")
	}

	set, err := l.client.SetNX(ctx, keyPrefix+eventID, encoded, l.cfg.ProcessingTTL).Result()
	if err != nil {
		return "", crerr.Wrap(err, "ledger begin")
	}
	if set {
		return ledger.BeginNew, nil
	}

	existing, err := l.get(ctx, eventID)
	if err != nil {
		return "", err
	}
	if existing == nil {
		// The competing record expired between SETNX and GET; claim again.
		return l.Begin(ctx, eventID)
	}
	if existing.State == ledger.StateProcessed {
		return ledger.BeginAlreadyProcessed, nil
	}
	return ledger.BeginAlreadyProcessing, nil
}

func (l *RedisLedger) Commit(ctx context.Context, eventID, summary string) error {
	record := ledger.Record{
		EventID:    eventID,
		State:      ledger.StateProcessed,
		Summary:    summary,
		RecordedAt: time.Now().UTC(),
	}
	encoded, err := sonic.Marshal(record)
	if err != nil {
		return crerr.Wrap(err, "marshal processed record")
	}

	if err := l.client.Set(ctx, keyPrefix+eventID, encoded, l.cfg.Retention).Err(); err != nil {
		return crerr.Wrap(err, "ledger commit")
	}
	return nil
}

func (l *RedisLedger) Release(ctx context.Context, eventID string) error {
	existing, err := l.get(ctx, eventID)
	if err != nil {
		return err
	}
	if existing == nil || existing.State != ledger.StateProcessing {
		return nil
	}
	if err := l.client.Del(ctx, keyPrefix+eventID).Err(); err != nil {
		return crerr.Wrap(err, "ledger release")
	}
	return nil
}

func (l *RedisLedger) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	record, err := l.get(ctx, eventID)
	if err != nil {
		return false, err
	}
	return record != nil && record.State == ledger.StateProcessed, nil
}

func (l *RedisLedger) get(ctx context.Context, eventID string) (*ledger.Record, error) {
	raw, err := l.client.Get(ctx, keyPrefix+eventID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, crerr.Wrap(err, "ledger get")
	}

	var record ledger.Record
	if err := sonic.Unmarshal([]byte(raw), &record); err != nil {
		return nil, crerr.Wrap(err, "unmarshal ledger record")
	}
	return &record, nil
}
