package access

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/campusbot/campus/backend"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/router"
	"github.com/m3rciful/campusbot/core/telegram/teletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type usersMock struct{ mock.Mock }

func (m *usersMock) User(ctx context.Context, tgID string) (backend.User, error) {
	args := m.Called(ctx, tgID)
	return args.Get(0).(backend.User), args.Error(1)
}

func notFound() error {
	return &backend.Error{Service: "users", Operation: "user", StatusCode: 404}
}

func check(t *testing.T, g *Gate, senderID int64) (router.Decision, *router.Event, *teletest.Context) {
	t.Helper()
	c := teletest.NewText(senderID, "hello")
	ev := router.NewEvent(c)
	return g.Check(context.Background(), c, ev), ev, c
}

func TestStudentRejectedByAdminAcceptedByStudent(t *testing.T) {
	users := &usersMock{}
	student := backend.User{TgID: "10", Role: backend.RoleStudent}
	users.On("User", mock.Anything, "10").Return(student, nil)

	admin := &Gate{Role: backend.RoleAdmin, Users: users, Unresolved: Cancel}
	d, ev, _ := check(t, admin, 10)
	assert.Equal(t, router.Skip, d)
	assert.Nil(t, ev.User)

	gate := &Gate{Role: backend.RoleStudent, Users: users, Unresolved: Deny}
	d, ev, c := check(t, gate, 10)
	assert.Equal(t, router.Allow, d)

	got, ok := UserFrom(ev)
	require.True(t, ok)
	assert.Equal(t, student, got)
	stored, ok := tghelpers.CurrentUser[backend.User](c)
	require.True(t, ok)
	assert.Equal(t, student, stored)

	users.AssertNumberOfCalls(t, "User", 2)
}

func TestAbsentUserRejectedByBoth(t *testing.T) {
	users := &usersMock{}
	users.On("User", mock.Anything, "11").Return(backend.User{}, notFound())

	d, _, _ := check(t, &Gate{Role: backend.RoleAdmin, Users: users, Unresolved: Cancel}, 11)
	assert.Equal(t, router.Skip, d)

	d, _, _ = check(t, &Gate{Role: backend.RoleStudent, Users: users, Unresolved: Deny}, 11)
	assert.Equal(t, router.Halt, d)
}

func TestResolveErrors(t *testing.T) {
	users := &usersMock{}
	users.On("User", mock.Anything, "12").Return(backend.User{}, &backend.UnavailableError{Service: "users", Operation: "user", Err: errors.New("refused")})
	users.On("User", mock.Anything, "13").Return(backend.User{TgID: "13", Role: backend.RoleUnknown}, nil)
	g := &Gate{Role: backend.RoleStudent, Users: users}

	_, err := g.Resolve(context.Background(), 12)
	assert.ErrorIs(t, err, ErrUnresolved)
	assert.True(t, backend.IsUnavailable(err))

	_, err = g.Resolve(context.Background(), 13)
	assert.ErrorIs(t, err, ErrDenied)

	_, err = g.Resolve(context.Background(), 0)
	assert.ErrorIs(t, err, ErrUnresolved)
}
