package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEstoque = "jobs:estoque"

	JobEstoque = "estoque"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Processor handles the payload of one job type. A returned error makes the
// pool re-enqueue the job until maxAttempts, then move it to the DLQ.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

// NewDispatcher returns a Dispatcher. With a nil client every enqueue is a
// no-op, which is how the service runs without Redis.
func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEstoque asks the pool to re-check the stock of each book.
func (d *Dispatcher) EnqueueEstoque(ctx context.Context, livroIDs ...uint) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	vistos := make(map[uint]bool, len(livroIDs))
	var errs []error
	for _, id := range livroIDs {
		if id == 0 || vistos[id] {
			continue
		}
		vistos[id] = true
		if err := d.enqueue(ctx, QueueEstoque, JobEstoque, EstoqueJobPayload{LivroID: id}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers maps job types to their processors.
type Handlers struct {
	Estoque Processor
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP, so idle workers cost nothing. The returned
// WaitGroup is done once every worker has seen ctx cancelled.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, h *Handlers, numWorkers int) *sync.WaitGroup {
	var wg sync.WaitGroup
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(ctx, rdb, h, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	return &wg
}

func runWorker(ctx context.Context, rdb *redis.Client, h *Handlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueEstoque).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("brpop failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, h, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, h *Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, Job{Type: "desconhecido", Payload: json.RawMessage(raw)}, "payload inválido")
		return
	}

	var p Processor
	switch job.Type {
	case JobEstoque:
		p = h.Estoque
	}
	if p == nil {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		return
	}

	err := p.Process(ctx, job.Payload)
	if err == nil {
		return
	}
	job.Attempts++
	if job.Attempts >= maxAttempts {
		SendToDLQ(ctx, rdb, queue, job, err.Error())
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempts", job.Attempts).Msg("job failed, re-enqueued")
	if err := push(ctx, rdb, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to re-enqueue job")
	}
}
