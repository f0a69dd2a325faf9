package game

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/model"
)

// updateLimiter enforces a per-player minimum interval between live previews
type updateLimiter struct {
	clock clock.Clock
	limit rate.Limit

	mu       sync.Mutex
	limiters map[model.PlayerID]*rate.Limiter
}

func newUpdateLimiter(clk clock.Clock, perSecond float64) *updateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &updateLimiter{
		clock:    clk,
		limit:    limit,
		limiters: make(map[model.PlayerID]*rate.Limiter),
	}
}

func (l *updateLimiter) allow(id model.PlayerID) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[id]
	if !ok {
		limiter = rate.NewLimiter(l.limit, 1)
		l.limiters[id] = limiter
	}
	l.mu.Unlock()
	return limiter.AllowN(l.clock.Now(), 1)
}

func (l *updateLimiter) forget(id model.PlayerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, id)
}

func (l *updateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
