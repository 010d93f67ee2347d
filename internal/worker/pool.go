package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail   = "jobs:email"
	QueueReceipt = "jobs:receipt"

	JobEmail   = "email"
	JobReceipt = "receipt"

	// MaxAttempts is how many times a job runs before it is parked.
	MaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEmail pushes a plain email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

// EnqueueReceipt pushes a sale receipt job.
func (d *Dispatcher) EnqueueReceipt(ctx context.Context, payload ReceiptJobPayload) error {
	return d.enqueue(ctx, QueueReceipt, JobReceipt, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return pushJob(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func pushJob(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool runs a fixed number of goroutines consuming every queue.
type Pool struct {
	rdb      *redis.Client
	size     int
	handlers map[string]Handler

	requeue func(ctx context.Context, queue string, job Job) error
	store   func(ctx context.Context, failed FailedJob) error
}

func NewPool(rdb *redis.Client, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{rdb: rdb, size: size, handlers: make(map[string]Handler)}
	p.requeue = func(ctx context.Context, queue string, job Job) error {
		return pushJob(ctx, p.rdb, queue, job)
	}
	p.store = func(ctx context.Context, failed FailedJob) error {
		return parkJob(ctx, p.rdb, failed)
	}
	return p
}

// Register binds a job type to its handler. Call before Start.
func (p *Pool) Register(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// Start launches the workers. Each goroutine blocks on BRPOP, zero CPU when
// idle, and exits when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", p.size).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	queues := []string{QueueReceipt, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		// Kept as a JSON string: raw itself is not valid JSON.
		quoted, _ := json.Marshal(raw)
		p.park(ctx, queue, Job{Payload: quoted}, "malformed job")
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		p.park(ctx, queue, job, fmt.Sprintf("no handler for job type %q", job.Type))
		return
	}

	job.Attempts++
	err := p.safeProcess(ctx, h, job)
	if err == nil {
		return
	}

	if job.Attempts >= MaxAttempts {
		p.park(ctx, queue, job, err.Error())
		return
	}
	log.Warn().Err(err).Str("queue", queue).Str("job_type", job.Type).
		Int("attempts", job.Attempts).Msg("job failed, requeueing")
	if rqErr := p.requeue(ctx, queue, job); rqErr != nil {
		log.Error().Err(rqErr).Str("queue", queue).Msg("requeue failed")
		p.park(ctx, queue, job, "requeue failed: "+rqErr.Error())
	}
}

// safeProcess keeps a panicking handler from killing the worker goroutine.
func (p *Pool) safeProcess(ctx context.Context, h Handler, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Process(ctx, job.Payload)
}
