// Package broadcast fans an admin mailing out to every campus user.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/campusbot/core/logger"

	"golang.org/x/time/rate"
)

const component = "campus.broadcast"

// DeliverFunc sends the mailing to one chat.
type DeliverFunc func(ctx context.Context, chatID int64) error

// Observer counts delivery attempts.
type Observer interface {
	ObserveDelivery(delivered bool)
}

// Report summarises one run.
type Report struct {
	Attempted int
	Delivered int
	Failed    int
	Took      time.Duration
}

// Broadcaster paces deliveries with a token bucket.
type Broadcaster struct {
	limiter  *rate.Limiter
	observer Observer
}

// New returns a broadcaster delivering at most perSecond messages per second;
// non-positive values disable pacing.
func New(perSecond float64, obs Observer) *Broadcaster {
	lim := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &Broadcaster{limiter: lim, observer: obs}
}

// Run delivers to every recipient once, in order. A failed delivery is
// counted and logged and never stops the loop; only ctx cancellation does.
func (b *Broadcaster) Run(ctx context.Context, recipients []string, deliver DeliverFunc) (Report, error) {
	start := time.Now()
	var rep Report
	seen := make(map[int64]struct{}, len(recipients))

	for _, raw := range recipients {
		chatID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || chatID == 0 {
			rep.Attempted++
			rep.Failed++
			b.observe(false)
			logger.Warn(ctx, component, "broadcast.recipient.invalid", slog.String("payload", logger.SanitizeLimit(raw, 32)))
			continue
		}
		if _, dup := seen[chatID]; dup {
			continue
		}
		seen[chatID] = struct{}{}

		if err := b.limiter.Wait(ctx); err != nil {
			rep.Took = time.Since(start)
			return rep, fmt.Errorf("broadcast interrupted after %d of %d: %w", rep.Attempted, len(recipients), err)
		}

		rep.Attempted++
		if err := deliver(ctx, chatID); err != nil {
			rep.Failed++
			b.observe(false)
			logger.Warn(ctx, component, "broadcast.delivery",
				slog.String("status", logger.OutcomeFail),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		rep.Delivered++
		b.observe(true)
	}

	rep.Took = time.Since(start)
	logger.Info(ctx, component, "broadcast.done",
		slog.Int("recipients", rep.Attempted),
		slog.Int("delivered", rep.Delivered),
		slog.Int("failed", rep.Failed),
		slog.Duration("duration", logger.RoundMS(rep.Took)),
	)
	return rep, nil
}

func (b *Broadcaster) observe(delivered bool) {
	if b.observer != nil {
		b.observer.ObserveDelivery(delivered)
	}
}
