package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/campusbot/core/telegram/teletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"
)

func TestRateLimitPerUser(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Burst:     1,
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(teletest.NewText(1, "a")))
	require.NoError(t, h(teletest.NewText(1, "b")))
	require.NoError(t, h(teletest.NewText(2, "c")))
	assert.Equal(t, 2, handled)
	assert.Equal(t, 1, limited)

	now = now.Add(time.Second)
	require.NoError(t, h(teletest.NewText(1, "d")))
	assert.Equal(t, 3, handled)
}

func TestLimiterSweepIsThrottled(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	s := newLimiterSet(time.Second, 1)
	for id := int64(1); id <= limiterSweepSize; id++ {
		s.allow(id, t0)
	}
	require.Len(t, s.users, limiterSweepSize)

	t1 := t0.Add(limiterIdleTTL + time.Second)
	assert.True(t, s.allow(5000, t1))
	assert.Len(t, s.users, 1)
	assert.Equal(t, t1, s.lastSweep)

	for id := int64(1); id < limiterSweepSize; id++ {
		s.users[id] = &userLimiter{lim: rate.NewLimiter(s.every, s.burst), seen: t0}
	}
	require.Len(t, s.users, limiterSweepSize)

	// Full map with idle entries, but the last sweep is too recent.
	s.allow(6000, t1.Add(time.Minute))
	assert.Len(t, s.users, limiterSweepSize+1)
	assert.Equal(t, t1, s.lastSweep)

	t3 := t1.Add(limiterIdleTTL)
	s.allow(7000, t3)
	assert.Len(t, s.users, 3)
	assert.Contains(t, s.users, int64(5000))
	assert.Contains(t, s.users, int64(6000))
	assert.Equal(t, t3, s.lastSweep)
}

func TestRateLimitExcludesCallbacks(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Exclude:  map[string]struct{}{"callback": {}},
		Now:      func() time.Time { return now },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	for i := 0; i < 3; i++ {
		require.NoError(t, h(teletest.NewCallback(7, 7, "menu")))
	}
	assert.Equal(t, 3, handled)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() {
		assert.NoError(t, h(teletest.NewText(1, "x")))
	})
}

func TestCountersMiddleware(t *testing.T) {
	c := teletest.NewText(1, "x")
	h := CountersMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("plain"))
		return c.Send("with kb", &tele.ReplyMarkup{})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.Replies, 2)
}

func TestCountersIgnoreFailedSends(t *testing.T) {
	c := teletest.NewText(1, "x")
	c.ReplyErr = errors.New("blocked")
	h := CountersMiddleware(func(c tele.Context) error {
		_ = c.Send("plain")
		return nil
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := teletest.NewText(42, "/help")
	h := LoggerMiddleware(func(tele.Context) error { return nil })
	require.NoError(t, h(c))

	rid, _ := c.Get("rid").(string)
	assert.NotEmpty(t, rid)
	assert.Equal(t, "menu", callbackPrefix("menu"))
	assert.Equal(t, "group_report", callbackPrefix("group_report:123"))
}
