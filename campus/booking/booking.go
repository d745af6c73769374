// Package booking implements the coworking booking conversation:
// pick a coworking, then a date, then a time slot.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/core/logger"
	"github.com/m3rciful/campusbot/core/telegram/state"
)

const component = "campus.booking"

// Scratch keys of the flow.
const (
	KeyCoworkingID = "cowo_id"
	KeyDate        = "cowo_date"
)

// Days is the size of the date picker.
const Days = 7

const dateLayout = "2006-01-02"

// ErrStateInconsistency is returned when a step runs without the values
// stored by the previous steps.
var ErrStateInconsistency = errors.New("booking: missing previous step")

// Spaces is the part of the Spaces client the flow needs.
type Spaces interface {
	Coworkings(ctx context.Context) ([]backend.Coworking, error)
	CoworkingAvailability(ctx context.Context, id, date string) (backend.CoworkingAvailability, error)
	AddCoworkingBooking(ctx context.Context, id, slot string) (backend.BookingTime, error)
}

// Booking is a submitted reservation.
type Booking struct {
	CoworkingID string
	Slot        string
}

// Flow drives the booking steps of one user at a time.
type Flow struct {
	Spaces Spaces
	Store  state.Store
}

// NextSevenDays returns ref's date and the six following days as YYYY-MM-DD.
func NextSevenDays(ref time.Time) []string {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 12, 0, 0, 0, ref.Location())
	out := make([]string, 0, Days)
	for i := 0; i < Days; i++ {
		out = append(out, day.AddDate(0, 0, i).Format(dateLayout))
	}
	return out
}

// Slot joins a date and a time into the booking string sent to Spaces.
func Slot(date, hhmm string) string {
	return date + " " + hhmm
}

// Coworkings lists the bookable coworkings.
func (f *Flow) Coworkings(ctx context.Context) ([]backend.Coworking, error) {
	return f.Spaces.Coworkings(ctx)
}

// ChooseCoworking starts a fresh booking for userID at coworking id.
func (f *Flow) ChooseCoworking(ctx context.Context, userID int64, id string) error {
	if err := f.Store.Clear(ctx, userID); err != nil {
		return err
	}
	return f.Store.UpdateScratch(ctx, userID, KeyCoworkingID, id)
}

// ChooseDate stores date and returns the free time slots of the chosen
// coworking on that date.
func (f *Flow) ChooseDate(ctx context.Context, conv state.Conversation, date string) ([]string, error) {
	id, err := f.coworkingID(ctx, conv)
	if err != nil {
		return nil, err
	}
	if err := f.Store.UpdateScratch(ctx, conv.UserID, KeyDate, date); err != nil {
		return nil, err
	}
	av, err := f.Spaces.CoworkingAvailability(ctx, id, date)
	if err != nil {
		return nil, err
	}
	return av.AvailableTimes, nil
}

// ChooseTime submits the booking and returns the conversation to idle.
func (f *Flow) ChooseTime(ctx context.Context, conv state.Conversation, hhmm string) (Booking, error) {
	id, err := f.coworkingID(ctx, conv)
	if err != nil {
		return Booking{}, err
	}
	date, ok := conv.Value(KeyDate)
	if !ok {
		return Booking{}, f.inconsistent(ctx, conv.UserID, KeyDate)
	}

	b := Booking{CoworkingID: id, Slot: Slot(date, hhmm)}
	if _, err := f.Spaces.AddCoworkingBooking(ctx, b.CoworkingID, b.Slot); err != nil {
		return Booking{}, err
	}
	logger.Info(ctx, component, "booking.created",
		slog.String("coworking_id", b.CoworkingID),
		slog.String("slot", b.Slot),
	)
	if err := f.Store.Clear(ctx, conv.UserID); err != nil {
		logger.Warn(ctx, logger.CompState, "state.clear", slog.String("err", err.Error()))
	}
	return b, nil
}

func (f *Flow) coworkingID(ctx context.Context, conv state.Conversation) (string, error) {
	id, ok := conv.Value(KeyCoworkingID)
	if !ok || id == "" {
		return "", f.inconsistent(ctx, conv.UserID, KeyCoworkingID)
	}
	return id, nil
}

// inconsistent resets the conversation and reports the missing key.
func (f *Flow) inconsistent(ctx context.Context, userID int64, key string) error {
	if err := f.Store.Clear(ctx, userID); err != nil {
		logger.Warn(ctx, logger.CompState, "state.clear", slog.String("err", err.Error()))
	}
	return fmt.Errorf("%w: %s", ErrStateInconsistency, key)
}
