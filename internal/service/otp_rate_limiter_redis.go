package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cuenta pedidos en una clave con TTL igual a la ventana; la ventana es fija.
const redisResendAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisOTPRateLimiter struct {
	client redisEvaler
	logger *zap.Logger
	window time.Duration
	max    int
	prefix string
}

// NewRedisOTPRateLimiter comparte el limite entre replicas. Si Redis falla
// el pedido se deja pasar.
func NewRedisOTPRateLimiter(client *redis.Client, logger *zap.Logger, window time.Duration, max int) OTPRateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisOTPRateLimiter{
		client: client,
		logger: logger,
		window: window,
		max:    max,
		prefix: "nutritrack:resend:",
	}
}

func (l *redisOTPRateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = normalizeEmail(key)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	count, err := l.client.Eval(ctx, redisResendAllowScript, []string{l.prefix + key}, l.window.Milliseconds()).Int()
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("redis rate limiter unavailable", zap.Error(err))
		}
		return true
	}
	return count <= l.max
}
