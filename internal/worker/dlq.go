package worker

// dlq.go: dead letter queue
// Jobs that exhaust their retries end up here. With Redis configured they are
// pushed to dlq:{queue} for manual inspection; otherwise they are only logged.

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // RFC 3339
	Attempts      int             `json:"attempts"`
}

type DeadLetter interface {
	Send(ctx context.Context, e DLQEntry)
}

// LogDeadLetter writes the entry, payload included, to the error log.
type LogDeadLetter struct{}

func (LogDeadLetter) Send(_ context.Context, e DLQEntry) {
	log.Error().
		Str("queue", e.OriginalQueue).
		Str("job_type", e.JobType).
		Str("reason", e.Reason).
		Int("attempts", e.Attempts).
		RawJSON("payload", nonEmptyJSON(e.Payload)).
		Msg("dlq: job dropped")
}

func nonEmptyJSON(b json.RawMessage) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return b
}

// RedisDeadLetter keeps dead jobs in a Redis list, falling back to the log.
type RedisDeadLetter struct {
	rdb redis.UniversalClient
}

func NewRedisDeadLetter(rdb redis.UniversalClient) *RedisDeadLetter {
	return &RedisDeadLetter{rdb: rdb}
}

func (d *RedisDeadLetter) Send(ctx context.Context, e DLQEntry) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("queue", e.OriginalQueue).Msg("dlq: failed to marshal entry")
		LogDeadLetter{}.Send(ctx, e)
		return
	}
	key := DLQPrefix + e.OriginalQueue
	if err := d.rdb.LPush(ctx, key, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: failed to push to DLQ")
		LogDeadLetter{}.Send(ctx, e)
		return
	}
	log.Warn().
		Str("queue", e.OriginalQueue).
		Str("job_type", e.JobType).
		Str("reason", e.Reason).
		Int("attempts", e.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

// Length reports the DLQ size for /health.
func (d *RedisDeadLetter) Length(ctx context.Context, queue string) (int64, error) {
	return d.rdb.LLen(ctx, DLQPrefix+queue).Result()
}
