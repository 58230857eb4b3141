package redisserver

import (
	"sync"

	"golang.org/x/time/rate"
)

// rateLimiter hands out one token bucket per client IP, shared by all of
// that IP's connections and dropped when the last one closes.
type rateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*clientLimiter
}

type clientLimiter struct {
	lim  *rate.Limiter
	refs int
}

func newRateLimiter(perSecond int) *rateLimiter {
	if perSecond <= 0 {
		return nil
	}
	return &rateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   perSecond,
		clients: make(map[string]*clientLimiter),
	}
}

// acquire returns the limiter for ip. A nil rateLimiter returns nil,
// which allows everything.
func (rl *rateLimiter) acquire(ip string) *rate.Limiter {
	if rl == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.refs++
	return c.lim
}

func (rl *rateLimiter) release(ip string) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if c, ok := rl.clients[ip]; ok {
		c.refs--
		if c.refs <= 0 {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
