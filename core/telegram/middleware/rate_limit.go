package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/campusbot/core/logger"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 4096
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	// Interval is the steady-state gap between two updates of one user.
	Interval time.Duration
	// Burst is how many updates may arrive back to back.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is overridable in tests.
	Now func() time.Time
}

type userLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet holds one token bucket per sender. Once it reaches
// limiterSweepSize entries it drops idle ones, at most once per
// limiterIdleTTL.
type limiterSet struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	users     map[int64]*userLimiter
	lastSweep time.Time
}

func newLimiterSet(interval time.Duration, burst int) *limiterSet {
	return &limiterSet{
		every: rate.Every(interval),
		burst: burst,
		users: make(map[int64]*userLimiter),
	}
}

func (s *limiterSet) allow(userID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) >= limiterSweepSize && now.Sub(s.lastSweep) >= limiterIdleTTL {
		s.sweep(now)
	}
	ul, ok := s.users[userID]
	if !ok {
		ul = &userLimiter{lim: rate.NewLimiter(s.every, s.burst)}
		s.users[userID] = ul
	}
	ul.seen = now
	return ul.lim.AllowN(now, 1)
}

func (s *limiterSet) sweep(now time.Time) {
	s.lastSweep = now
	for id, ul := range s.users {
		if now.Sub(ul.seen) > limiterIdleTTL {
			delete(s.users, id)
		}
	}
}

// RateLimitMiddleware returns a middleware that throttles updates per sender
// with a token bucket. Limited updates are dropped after OnLimited runs.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	limiters := newLimiterSet(opts.Interval, opts.Burst)

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if limiters.allow(user.ID, opts.Now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "tg.rate_limit",
				slog.String("outcome", logger.OutcomeRateLimited),
				slog.String("kind", updateKind(c.Update())),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}
