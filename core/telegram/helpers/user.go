package helpers

import tele "gopkg.in/telebot.v4"

const userKey = "user"

// StoreUser attaches a resolved domain user to the telebot context.
func StoreUser(c tele.Context, user any) {
	if c == nil || user == nil {
		return
	}
	c.Set(userKey, user)
}

// CurrentUser returns the user stored by StoreUser when it has type T.
func CurrentUser[T any](c tele.Context) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	u, ok := c.Get(userKey).(T)
	if !ok {
		return zero, false
	}
	return u, true
}
