package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tiendapos/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// WindowCounter counts hits on key within its fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisWindowCounter shares counters across every API instance.
type RedisWindowCounter struct {
	rdb *redis.Client
}

func NewRedisWindowCounter(rdb *redis.Client) *RedisWindowCounter {
	return &RedisWindowCounter{rdb: rdb}
}

func (r *RedisWindowCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter is a fixed-window limiter per client IP. scope separates the
// counters of different limiters. When the counter store fails the request is
// let through.
func RateLimiter(counter WindowCounter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return rateLimiter(counter, scope, limit, window, "Demasiadas solicitudes. Intente nuevamente en un momento.", time.Now)
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(counter WindowCounter) gin.HandlerFunc {
	return rateLimiter(counter, "login", 20, time.Minute, "Demasiados intentos de login. Intente en 1 minuto.", time.Now)
}

func rateLimiter(counter WindowCounter, scope string, limit int, window time.Duration, msg string, now func() time.Time) gin.HandlerFunc {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return func(c *gin.Context) {
		t := now().Unix()
		slot := t / secs
		key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, c.ClientIP(), slot)

		n, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}
		if n > int64(limit) {
			retry := (slot+1)*secs - t
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Envelope{
				StatusCode: http.StatusTooManyRequests,
				Message:    msg,
				Error:      dto.ErrorBody{Code: "rate_limited"},
			})
			return
		}
		c.Next()
	}
}
