package worker

// cron.go: ticker-driven background jobs. Each runs in its own goroutine and
// stops with ctx.

import (
	"context"
	"time"

	"tiendapos/internal/dto"

	"github.com/rs/zerolog/log"
)

// Rebuilder is satisfied by service.RecommendationService.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*dto.RebuildRecommendationsResponse, error)
}

// Expirer is satisfied by service.PaymentService.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// StartRecommendationCron rebuilds recommendation scores every interval,
// and once right away.
func StartRecommendationCron(ctx context.Context, r Rebuilder, every time.Duration) {
	startTicker(ctx, "recommendation_cron", every, true, func(ctx context.Context) {
		res, err := r.Rebuild(ctx)
		if err != nil {
			log.Error().Err(err).Msg("recommendation_cron: rebuild failed")
			return
		}
		log.Info().Int("frequent_pairs", res.FrequentPairs).Int("content_pairs", res.ContentPairs).
			Msg("recommendation_cron: rebuilt")
	})
}

// StartPaymentSweepCron marks overdue pending payments as expired.
func StartPaymentSweepCron(ctx context.Context, e Expirer, every time.Duration) {
	startTicker(ctx, "payment_sweep", every, false, func(ctx context.Context) {
		n, err := e.ExpireOverdue(ctx)
		if err != nil {
			log.Error().Err(err).Msg("payment_sweep: failed")
			return
		}
		if n > 0 {
			log.Info().Int64("expired", n).Msg("payment_sweep: expired pending payments")
		}
	})
}

func startTicker(ctx context.Context, name string, every time.Duration, runNow bool, fn func(context.Context)) {
	if every <= 0 {
		log.Warn().Str("cron", name).Msg("cron disabled: non-positive interval")
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		log.Info().Str("cron", name).Dur("every", every).Msg("cron started")

		if runNow {
			fn(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				log.Info().Str("cron", name).Msg("cron shutting down")
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}
