package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Room is an admin-bookable room. Space ids are opaque strings.
type Room struct {
	ID       string `json:"id"`
	IsBooked bool   `json:"is_booked"`
	BookedBy string `json:"booked_by"`
}

// Coworking is a shared workspace with its booked slots.
type Coworking struct {
	ID         string   `json:"id"`
	BookedTime []string `json:"booked_time"`
}

// CoworkingAvailability lists the free slots of a coworking on one date.
type CoworkingAvailability struct {
	ID             string   `json:"id"`
	AvailableTimes []string `json:"available_times"`
}

// BookingTime is the body and answer of AddCoworkingBooking.
type BookingTime struct {
	Time string `json:"time"`
}

// SpacesClient talks to the Spaces service.
type SpacesClient struct {
	c *client
}

// NewSpacesClient validates cfg and returns a client bound to it.
func NewSpacesClient(cfg Config) (*SpacesClient, error) {
	c, err := newClient("spaces", cfg)
	if err != nil {
		return nil, err
	}
	return &SpacesClient{c: c}, nil
}

// Ping checks service reachability.
func (s *SpacesClient) Ping(ctx context.Context) (map[string]string, error) {
	return s.c.ping(ctx)
}

// Rooms lists every room.
func (s *SpacesClient) Rooms(ctx context.Context) ([]Room, error) {
	var out []Room
	err := s.c.list(ctx, request{op: "rooms", method: http.MethodGet, path: "/rooms/"}, &out, "id", "is_booked")
	return out, err
}

// UpdateRoom writes the booking fields of room and returns the stored copy.
func (s *SpacesClient) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	var out Room
	err := s.c.object(ctx, request{op: "update_room", method: http.MethodPut, path: "/rooms/", body: room}, &out, "id", "is_booked")
	return out, err
}

// Room fetches one room.
func (s *SpacesClient) Room(ctx context.Context, id string) (Room, error) {
	var out Room
	err := s.c.object(ctx, request{op: "room", method: http.MethodGet, path: "/rooms/" + url.PathEscape(id)}, &out, "id", "is_booked")
	return out, err
}

// Coworkings lists every coworking.
func (s *SpacesClient) Coworkings(ctx context.Context) ([]Coworking, error) {
	var out []Coworking
	err := s.c.list(ctx, request{op: "coworkings", method: http.MethodGet, path: "/coworkings/"}, &out, "id")
	return out, err
}

// CoworkingAvailability returns the free slots of coworking id on date (YYYY-MM-DD).
func (s *SpacesClient) CoworkingAvailability(ctx context.Context, id, date string) (CoworkingAvailability, error) {
	var out CoworkingAvailability
	err := s.c.object(ctx, request{
		op:     "coworking_availability",
		method: http.MethodGet,
		path:   "/coworkings/" + url.PathEscape(id),
		query:  url.Values{"date": {date}},
	}, &out, "id", "available_times")
	return out, err
}

// AddCoworkingBooking books slot ("YYYY-MM-DD HH:MM") in coworking id.
func (s *SpacesClient) AddCoworkingBooking(ctx context.Context, id, slot string) (BookingTime, error) {
	var out BookingTime
	err := s.c.object(ctx, request{
		op:     "add_coworking_booking",
		method: http.MethodPost,
		path:   "/coworkings/" + url.PathEscape(id),
		body:   BookingTime{Time: slot},
	}, &out, "time")
	return out, err
}
