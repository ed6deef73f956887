package events

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter token bucket por llave de caller (tenant). Limita la entrada que
// dispara publicaciones, independiente del circuit breaker: exceder el límite
// rechaza la llamada antes de tocar el libro o el bus.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[string]*rate.Limiter
}

// NewRateLimiter construye el limitador con tokens por minuto por llave.
// El burst es el cupo completo del minuto.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		buckets:   make(map[string]*rate.Limiter),
	}
}

// Allow consume un token del bucket de la llave. False si la llave excedió su cupo.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	lim, ok := rl.buckets[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(rl.perMinute)/60.0), rl.perMinute)
		rl.buckets[key] = lim
	}
	rl.mu.Unlock()
	return lim.Allow()
}
