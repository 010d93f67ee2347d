package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// FailedJob is a Job parked after it could not be processed. It keeps the
// original envelope so an operator can push it back onto Queue unchanged.
type FailedJob struct {
	Job
	Queue    string    `json:"queue"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// FailedQueue names the list holding parked jobs of queue, e.g.
// jobs:email:failed.
func FailedQueue(queue string) string { return queue + ":failed" }

// FailedCount reports how many jobs are parked for queue.
func FailedCount(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, FailedQueue(queue)).Result()
}

func parkJob(ctx context.Context, rdb *redis.Client, failed FailedJob) error {
	encoded, err := json.Marshal(failed)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, FailedQueue(failed.Queue), encoded).Err()
}

// park stores job for manual inspection. Errors are logged only: the job is
// already off its queue and nothing upstream can retry the write.
func (p *Pool) park(ctx context.Context, queue string, job Job, reason string) {
	failed := FailedJob{Job: job, Queue: queue, Reason: reason, FailedAt: time.Now().UTC()}
	if err := p.store(ctx, failed); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_type", job.Type).Msg("could not park failed job")
		return
	}
	log.Warn().Str("queue", queue).Str("job_type", job.Type).
		Int("attempts", job.Attempts).Str("reason", reason).Msg("job parked")
}
