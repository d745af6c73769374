package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/campusbot/core/telegram/state"
	"github.com/m3rciful/campusbot/core/telegram/teletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

type gateFunc func(ev *Event) Decision

func (f gateFunc) Check(_ context.Context, _ tele.Context, ev *Event) Decision { return f(ev) }

type observation struct {
	router, route, outcome string
}

type recordingObserver struct{ got []observation }

func (r *recordingObserver) ObserveEvent(router, route, outcome string, _ time.Duration) {
	r.got = append(r.got, observation{router, route, outcome})
}

func reply(text string) HandlerFunc {
	return func(c tele.Context, _ *Event) error { return c.Send(text) }
}

func TestDispatchFirstMatchWins(t *testing.T) {
	d := New(Options{Routers: []Router{
		{Name: "a", Routes: []Route{
			{Name: "help", Match: Command("help"), Handle: reply("first")},
			{Name: "help2", Match: Command("help"), Handle: reply("second")},
		}},
		{Name: "b", Routes: []Route{{Name: "any", Match: Message(), Handle: reply("third")}}},
	}})

	c := teletest.NewText(1, "/help")
	require.NoError(t, d.Handle(c))
	require.Len(t, c.Replies, 1)
	assert.Equal(t, "first", c.Last().Text())
}

func TestDispatchGateSkipFallsThrough(t *testing.T) {
	var checked int
	d := New(Options{Routers: []Router{
		{Name: "admin", Gate: gateFunc(func(*Event) Decision { checked++; return Skip }), Routes: []Route{
			{Name: "all", Match: Message(), Handle: reply("admin")},
		}},
		{Name: "fallback", Routes: []Route{{Name: "all", Match: Message(), Handle: reply("fallback")}}},
	}})

	c := teletest.NewText(1, "hello")
	require.NoError(t, d.Handle(c))
	assert.Equal(t, 1, checked)
	assert.Equal(t, "fallback", c.Last().Text())
}

func TestDispatchGateHaltRunsDenied(t *testing.T) {
	obs := &recordingObserver{}
	d := New(Options{
		Observer: obs,
		Routers: []Router{
			{Name: "student", Gate: gateFunc(func(*Event) Decision { return Halt }), Denied: reply("denied"), Routes: []Route{
				{Name: "all", Match: Message(), Handle: reply("student")},
			}},
			{Name: "fallback", Routes: []Route{{Name: "all", Match: Message(), Handle: reply("fallback")}}},
		},
	})

	c := teletest.NewText(1, "hello")
	require.NoError(t, d.Handle(c))
	require.Len(t, c.Replies, 1)
	assert.Equal(t, "denied", c.Last().Text())
	assert.Equal(t, []observation{{"student", "denied", "denied"}}, obs.got)
}

func TestDispatchGateRunsOncePerRouter(t *testing.T) {
	calls := 0
	gate := gateFunc(func(ev *Event) Decision {
		calls++
		ev.User = "resolved"
		return Allow
	})
	var seen any
	d := New(Options{Routers: []Router{
		{Name: "student", Gate: gate, Routes: []Route{
			{Name: "nope", Match: Command("nope"), Handle: reply("x")},
			{Name: "text", Match: Text(), Handle: func(_ tele.Context, ev *Event) error { seen = ev.User; return nil }},
		}},
	}})

	require.NoError(t, d.Handle(teletest.NewText(1, "hi")))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "resolved", seen)
}

func TestDispatchLoadsConversation(t *testing.T) {
	store := state.NewMemoryStore()
	require.NoError(t, store.SetState(context.Background(), 5, "awaiting"))

	d := New(Options{Store: store, Routers: []Router{{Name: "r", Routes: []Route{
		{Name: "waiting", Match: All(InState("awaiting"), Photo()), Handle: reply("got photo")},
		{Name: "photo", Match: Photo(), Handle: reply("idle photo")},
	}}}})

	c := teletest.NewPhoto(5, "")
	require.NoError(t, d.Handle(c))
	assert.Equal(t, "got photo", c.Last().Text())

	c = teletest.NewPhoto(6, "")
	require.NoError(t, d.Handle(c))
	assert.Equal(t, "idle photo", c.Last().Text())
}

func TestDispatchAnswersCallbacksBeforeHandler(t *testing.T) {
	var answeredFirst bool
	d := New(Options{Routers: []Router{{Name: "r", Routes: []Route{
		{Name: "menu", Match: Callback("menu"), Handle: func(c tele.Context, _ *Event) error {
			answeredFirst = len(c.(*teletest.Context).Responses) == 1
			return nil
		}},
	}}}})

	require.NoError(t, d.Handle(teletest.NewCallback(1, 1, "menu")))
	assert.True(t, answeredFirst)
}

func TestDispatchUnmatched(t *testing.T) {
	obs := &recordingObserver{}
	d := New(Options{
		Observer: obs,
		Unmatched: func(c tele.Context, _ *Event) error {
			return c.Respond(&tele.CallbackResponse{Text: "unsupported"})
		},
	})

	c := teletest.NewCallback(1, 1, "cowo:abc")
	require.NoError(t, d.Handle(c))
	require.Len(t, c.Responses, 1)
	assert.Equal(t, "unsupported", c.Responses[0].Text)
	assert.Equal(t, []observation{{"", "unmatched", "skip"}}, obs.got)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	obs := &recordingObserver{}
	d := New(Options{Observer: obs, Routers: []Router{{Name: "r", Routes: []Route{
		{Name: "boom", Match: Command("boom"), Handle: func(tele.Context, *Event) error { panic("kaboom") }},
		{Name: "fail", Match: Command("fail"), Handle: func(tele.Context, *Event) error { return errors.New("nope") }},
	}}}})

	assert.NotPanics(t, func() {
		assert.NoError(t, d.Handle(teletest.NewText(1, "/boom")))
	})
	assert.NoError(t, d.Handle(teletest.NewText(1, "/fail")))
	assert.Equal(t, []observation{{"r", "boom", "panic"}, {"r", "fail", "fail"}}, obs.got)
}
