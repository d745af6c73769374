package booking

import (
	"context"
	"testing"
	"time"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/core/telegram/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type spacesMock struct{ mock.Mock }

func (m *spacesMock) Coworkings(ctx context.Context) ([]backend.Coworking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]backend.Coworking), args.Error(1)
}

func (m *spacesMock) CoworkingAvailability(ctx context.Context, id, date string) (backend.CoworkingAvailability, error) {
	args := m.Called(ctx, id, date)
	return args.Get(0).(backend.CoworkingAvailability), args.Error(1)
}

func (m *spacesMock) AddCoworkingBooking(ctx context.Context, id, slot string) (backend.BookingTime, error) {
	args := m.Called(ctx, id, slot)
	return args.Get(0).(backend.BookingTime), args.Error(1)
}

func TestNextSevenDays(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	ref := time.Date(2024, time.February, 26, 23, 30, 0, 0, loc)

	days := NextSevenDays(ref)
	require.Len(t, days, Days)
	assert.Equal(t, []string{
		"2024-02-26", "2024-02-27", "2024-02-28", "2024-02-29",
		"2024-03-01", "2024-03-02", "2024-03-03",
	}, days)

	for i := 1; i < len(days); i++ {
		prev, err := time.Parse(dateLayout, days[i-1])
		require.NoError(t, err)
		cur, err := time.Parse(dateLayout, days[i])
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, cur.Sub(prev))
	}
}

func TestNextSevenDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	ref := time.Date(2024, time.March, 29, 0, 30, 0, 0, loc)
	assert.Equal(t, []string{
		"2024-03-29", "2024-03-30", "2024-03-31", "2024-04-01",
		"2024-04-02", "2024-04-03", "2024-04-04",
	}, NextSevenDays(ref))
}

func load(t *testing.T, store state.Store, userID int64) state.Conversation {
	t.Helper()
	conv, _, err := store.Get(context.Background(), userID)
	require.NoError(t, err)
	return conv
}

func TestFullFlowSubmitsOneBooking(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	spaces := &spacesMock{}
	spaces.On("CoworkingAvailability", mock.Anything, "cw-3", "2025-01-02").
		Return(backend.CoworkingAvailability{ID: "cw-3", AvailableTimes: []string{"10:00", "11:00"}}, nil)
	spaces.On("AddCoworkingBooking", mock.Anything, "cw-3", "2025-01-02 11:00").
		Return(backend.BookingTime{Time: "2025-01-02 11:00"}, nil).Once()
	f := &Flow{Spaces: spaces, Store: store}

	require.NoError(t, f.ChooseCoworking(ctx, 1, "cw-3"))
	times, err := f.ChooseDate(ctx, load(t, store, 1), "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "11:00"}, times)

	b, err := f.ChooseTime(ctx, load(t, store, 1), "11:00")
	require.NoError(t, err)
	assert.Equal(t, Booking{CoworkingID: "cw-3", Slot: "2025-01-02 11:00"}, b)

	conv := load(t, store, 1)
	assert.True(t, conv.Is(state.Idle))
	assert.Empty(t, conv.Scratch)
	spaces.AssertExpectations(t)
}

func TestTimeWithoutCoworkingIsInconsistent(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	require.NoError(t, store.UpdateScratch(ctx, 2, KeyDate, "2025-01-02"))
	spaces := &spacesMock{}
	f := &Flow{Spaces: spaces, Store: store}

	_, err := f.ChooseTime(ctx, load(t, store, 2), "10:00")
	assert.ErrorIs(t, err, ErrStateInconsistency)
	spaces.AssertNotCalled(t, "AddCoworkingBooking", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, load(t, store, 2).Scratch)
}

func TestTimeWithoutDateIsInconsistent(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	spaces := &spacesMock{}
	f := &Flow{Spaces: spaces, Store: store}
	require.NoError(t, f.ChooseCoworking(ctx, 3, "5"))

	_, err := f.ChooseTime(ctx, load(t, store, 3), "10:00")
	assert.ErrorIs(t, err, ErrStateInconsistency)
	spaces.AssertNotCalled(t, "AddCoworkingBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestDateWithoutCoworkingIsInconsistent(t *testing.T) {
	spaces := &spacesMock{}
	f := &Flow{Spaces: spaces, Store: state.NewMemoryStore()}

	_, err := f.ChooseDate(context.Background(), state.NewConversation(4), "2025-01-02")
	assert.ErrorIs(t, err, ErrStateInconsistency)
	spaces.AssertNotCalled(t, "CoworkingAvailability", mock.Anything, mock.Anything, mock.Anything)
}

func TestEmptyCoworkingIDIsInconsistent(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	require.NoError(t, store.UpdateScratch(ctx, 7, KeyCoworkingID, ""))
	spaces := &spacesMock{}
	f := &Flow{Spaces: spaces, Store: store}

	_, err := f.ChooseDate(ctx, load(t, store, 7), "2025-01-02")
	assert.ErrorIs(t, err, ErrStateInconsistency)
	spaces.AssertNotCalled(t, "CoworkingAvailability", mock.Anything, mock.Anything, mock.Anything)
}

func TestChooseCoworkingDropsStaleDate(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	require.NoError(t, store.UpdateScratch(ctx, 5, KeyDate, "2025-01-01"))
	f := &Flow{Spaces: &spacesMock{}, Store: store}

	require.NoError(t, f.ChooseCoworking(ctx, 5, "8"))
	conv := load(t, store, 5)
	assert.Equal(t, map[string]string{KeyCoworkingID: "8"}, conv.Scratch)
}

func TestBackendFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	spaces := &spacesMock{}
	spaces.On("AddCoworkingBooking", mock.Anything, "cw-3", "2025-01-02 10:00").
		Return(backend.BookingTime{}, &backend.Error{Service: "spaces", Operation: "add_coworking_booking", StatusCode: 409})
	f := &Flow{Spaces: spaces, Store: store}
	require.NoError(t, f.ChooseCoworking(ctx, 6, "cw-3"))
	require.NoError(t, store.UpdateScratch(ctx, 6, KeyDate, "2025-01-02"))

	_, err := f.ChooseTime(ctx, load(t, store, 6), "10:00")
	assert.True(t, backend.IsRejected(err))
	_, ok := load(t, store, 6).Value(KeyCoworkingID)
	assert.True(t, ok)
}
