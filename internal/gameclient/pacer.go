package gameclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Pacer throttles calls against the remote game service during large
// fan-outs. Wait blocks until the next call is allowed or the context is
// cancelled.
type Pacer interface {
	Wait(ctx context.Context) error
}

type localPacer struct {
	limiter *rate.Limiter
}

// NewLocalPacer allows one call per interval with the given burst.
func NewLocalPacer(interval time.Duration, burst int) Pacer {
	return &localPacer{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

func (p *localPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// pacerScript is a fixed-window counter: INCR the window key, EXPIRE it on
// first hit, report whether the caller is within the limit.
var pacerScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

local count = redis.call('INCR', key)
if count == 1 then
    redis.call('EXPIRE', key, window)
end

if count > limit then
    return 0
end
return 1
`)

type redisPacer struct {
	client   *redis.Client
	key      string
	window   time.Duration
	limit    int
	fallback Pacer
}

// NewRedisPacer paces calls through a shared Redis counter so multiple
// instances pointed at the same game site share one budget. Redis failures
// fall back to local pacing rather than blocking the batch.
func NewRedisPacer(client *redis.Client, key string, window time.Duration, limit int) Pacer {
	return &redisPacer{
		client:   client,
		key:      "pacer:" + key,
		window:   window,
		limit:    limit,
		fallback: NewLocalPacer(window/time.Duration(limit), 1),
	}
}

func (p *redisPacer) Wait(ctx context.Context) error {
	for {
		allowed, err := pacerScript.Run(ctx, p.client, []string{p.key},
			int64(p.window.Seconds()), p.limit).Int64()
		if err != nil {
			log.Warn().Err(err).Msg("redis pacer unavailable, falling back to local pacing")
			return p.fallback.Wait(ctx)
		}
		if allowed == 1 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
