package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"storefront/internal/utils"
)

const resetThrottlePrefix = "throttle:reset:"

// ResetThrottle caps password reset calls per client IP in a fixed window
// shared by every instance through Redis. Redis errors let the request
// through; the per-email quota in the service still applies.
func ResetThrottle(client redis.UniversalClient, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := resetThrottlePrefix + clientIP(r)

			var incr *redis.IntCmd
			_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				incr = pipe.Incr(ctx, key)
				pipe.ExpireNX(ctx, key, window)
				return nil
			})
			if err != nil {
				log.Warn().Err(err).Msg("Reset throttle unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			if incr.Val() > int64(limit) {
				ttl, err := client.TTL(ctx, key).Result()
				if err != nil || ttl < 0 {
					ttl = window
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
				log.Warn().Str("ip", clientIP(r)).Int64("count", incr.Val()).Msg("Password reset throttled by IP")
				utils.SendJSONError(w, "Too many requests, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
