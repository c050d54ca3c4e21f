package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"nutritrack/internal/metrics"
)

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// IPRateLimiter aplica un token bucket por IP a las rutas publicas de auth.
type IPRateLimiter struct {
	logger   *zap.Logger
	metrics  metrics.Recorder
	limit    rate.Limit
	burst    int
	interval time.Duration

	mu       sync.RWMutex
	limiters map[string]*ipLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter arranca una goroutine que descarta IPs inactivas; Stop la detiene.
func NewIPRateLimiter(logger *zap.Logger, rec metrics.Recorder, rps float64, burst int, cleanupInterval time.Duration) *IPRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop()
	}
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 20
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	rl := &IPRateLimiter{
		logger:   logger,
		metrics:  rec,
		limit:    rate.Limit(rps),
		burst:    burst,
		interval: cleanupInterval,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.get(ip).Allow() {
			retryAfter := int(math.Ceil(1.0 / float64(rl.limit)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			rl.metrics.RecordRateLimited("ip")
			rl.logger.Warn("rate limit exceeded", zap.String("client_ip", ip), zap.String("path", c.FullPath()))
			abortWithError(c, http.StatusTooManyRequests, "Demasiadas solicitudes. Intenta más tarde.")
			return
		}
		c.Next()
	}
}

func (rl *IPRateLimiter) get(ip string) *rate.Limiter {
	rl.mu.RLock()
	entry, ok := rl.limiters[ip]
	rl.mu.RUnlock()
	if ok {
		rl.mu.Lock()
		entry.lastAccess = time.Now()
		rl.mu.Unlock()
		return entry.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if entry, ok := rl.limiters[ip]; ok {
		entry.lastAccess = time.Now()
		return entry.limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup elimina IPs sin actividad durante dos intervalos.
func (rl *IPRateLimiter) cleanup(now time.Time) {
	ttl := rl.interval * 2
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *IPRateLimiter) size() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}
