package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"livraria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const purgeInterval = 5 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// purge drops buckets idle for longer than purgeInterval.
func (l *ipLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > purgeInterval {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

// RateLimiter allows perMinute requests per minute per IP, with bursts up to
// the same amount. Idle entries are purged until ctx is cancelled.
func RateLimiter(ctx context.Context, perMinute int) gin.HandlerFunc {
	if perMinute < 1 {
		perMinute = 1
	}
	l := &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}

	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := l.purge(now); n > 0 {
					log.Debug().Int("purged", n).Msg("rate limiter entries purged")
				}
			}
		}
	}()

	return func(c *gin.Context) {
		lim := l.get(c.ClientIP(), time.Now())
		r := lim.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Muitas requisições. Tente novamente em instantes."))
			return
		}
		c.Next()
	}
}
