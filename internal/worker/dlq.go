package worker

// Stock jobs that keep failing end up in dlq:jobs:estoque. Each entry names
// the book whose low-stock state may now be out of date, so an operator can
// re-enqueue it or fix the alert set by hand.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry is one parked job. LivroID is zero when the payload could not be
// decoded.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	LivroID       uint            `json:"livro_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

func novaEntradaDLQ(queue string, job Job, reason string, now time.Time) DLQEntry {
	payload := job.Payload
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(payload))
	}
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      now.UTC().Format(time.RFC3339),
		Attempts:      job.Attempts,
	}
	if job.Type == JobEstoque {
		var p EstoqueJobPayload
		if json.Unmarshal(job.Payload, &p) == nil && p.LivroID != 0 {
			entry.LivroID = p.LivroID
			entry.Reason = fmt.Sprintf("livro %d: alerta de estoque não reavaliado: %s", p.LivroID, reason)
		}
	}
	return entry
}

// SendToDLQ parks job in the dead letter list of queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := novaEntradaDLQ(queue, job, reason, time.Now())

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Uint("livro_id", entry.LivroID).Msg("dlq: failed to push")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", entry.JobType).
		Uint("livro_id", entry.LivroID).
		Str("reason", entry.Reason).
		Int("attempts", entry.Attempts).
		Msg("dlq: stock job parked")
}

// DLQLength returns the number of entries in a DLQ, reported by /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
