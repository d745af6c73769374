package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/campusbot/core/logger"
)

// Probe checks that a dependency answers.
type Probe struct {
	Name string
	Ping func(ctx context.Context) error
}

// CheckHealth runs every probe with its own timeout and logs the outcome.
// Failures never abort startup; the number of failed probes is returned.
func CheckHealth(ctx context.Context, timeout time.Duration, probes ...Probe) int {
	failed := 0
	for _, p := range probes {
		if p.Ping == nil {
			continue
		}
		pctx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		err := p.Ping(pctx)
		cancel()

		attrs := []slog.Attr{
			slog.String("dependency", p.Name),
			slog.Duration("duration", logger.Took(start)),
		}
		if err != nil {
			failed++
			logger.Warn(ctx, logger.CompApp, "health.probe", append(attrs,
				slog.String("status", logger.OutcomeFail),
				slog.String("err", err.Error()),
			)...)
			continue
		}
		logger.Info(ctx, logger.CompApp, "health.probe", append(attrs, slog.String("status", logger.OutcomeOK))...)
	}
	return failed
}
