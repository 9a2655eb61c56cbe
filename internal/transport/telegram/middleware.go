package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

type FloodConfig struct {
	MsgsPerSec float64
	Burst      int
}

// floodLimiter drops inbound updates from users sending faster than the
// configured rate. This protects the bot loop; it is unrelated to the
// per-board posting rate limit the engine enforces.
type floodLimiter struct {
	cfg FloodConfig

	mu       sync.Mutex
	users    map[int64]*limiterEntry
	lastScan time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newFloodLimiter(cfg FloodConfig) *floodLimiter {
	if cfg.MsgsPerSec <= 0 {
		cfg.MsgsPerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	return &floodLimiter{cfg: cfg, users: make(map[int64]*limiterEntry)}
}

func (f *floodLimiter) allow(userID int64) bool {
	now := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.users[userID]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(f.cfg.MsgsPerSec), f.cfg.Burst)}
		f.users[userID] = e
	}
	e.seen = now

	// Occasionally drop limiters idle for over an hour.
	if now.Sub(f.lastScan) > 10*time.Minute {
		f.lastScan = now
		for id, entry := range f.users {
			if now.Sub(entry.seen) > time.Hour {
				delete(f.users, id)
			}
		}
	}

	return e.lim.Allow()
}

// middleware silently drops over-limit updates.
func (f *floodLimiter) middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender != nil && !f.allow(sender.ID) {
			return nil
		}
		return next(c)
	}
}
