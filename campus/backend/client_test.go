package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	service, op string
	status      int
}

type recordingObserver struct{ got []observed }

func (r *recordingObserver) ObserveBackend(service, op string, status int, _ time.Duration) {
	r.got = append(r.got, observed{service, op, status})
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	_, err := NewUsersClient(Config{BaseURL: "users/api"})
	assert.Error(t, err)

	u, err := NewUsersClient(Config{BaseURL: "http://users:8080/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://users:8080/api", u.c.base)
	assert.Equal(t, DefaultTimeout, u.c.http.Timeout)
}

func TestUserLookup(t *testing.T) {
	obs := &recordingObserver{}
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/users/42", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `{"tgID":"42","role":"student","name":"Ann","language":"ru"}`)
	})
	u, err := NewUsersClient(Config{BaseURL: srv.URL + "/api", Observer: obs})
	require.NoError(t, err)

	user, err := u.User(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, User{TgID: "42", Role: RoleStudent, Name: "Ann", Language: "ru"}, user)
	assert.Equal(t, []observed{{"users", "user", 200}}, obs.got)
}

func TestUnknownRoleDecodesAsUnknown(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"tgID":"1","role":"superuser"}`)
	})
	u, err := NewUsersClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	user, err := u.User(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, RoleUnknown, user.Role)
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"not found", http.StatusNotFound, `{"detail":"no user"}`, func(t *testing.T, err error) {
			assert.True(t, IsNotFound(err))
			assert.True(t, IsRejected(err))
			var be *Error
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "user", be.Operation)
			assert.Contains(t, be.Body, "no user")
		}},
		{"server error", http.StatusBadGateway, `oops`, func(t *testing.T, err error) {
			assert.False(t, IsRejected(err))
			var be *Error
			require.ErrorAs(t, err, &be)
			assert.Equal(t, http.StatusBadGateway, be.StatusCode)
		}},
		{"malformed json", http.StatusOK, `{"tgID":`, func(t *testing.T, err error) {
			assert.True(t, IsDecode(err))
		}},
		{"missing field", http.StatusOK, `{"tgID":"1"}`, func(t *testing.T, err error) {
			assert.True(t, IsDecode(err))
		}},
		{"mistyped field", http.StatusOK, `{"tgID":1,"role":"admin"}`, func(t *testing.T, err error) {
			assert.True(t, IsDecode(err))
		}},
		{"null body", http.StatusOK, `null`, func(t *testing.T, err error) {
			assert.True(t, IsDecode(err))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			u, err := NewUsersClient(Config{BaseURL: srv.URL})
			require.NoError(t, err)
			_, err = u.User(context.Background(), "1")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	v, err := NewVerifyClient(Config{BaseURL: base, Observer: obs})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsRejected(err))
	assert.Equal(t, []observed{{"verify", "verify", 0}}, obs.got)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
	})
	defer close(release)

	s, err := NewSpacesClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = s.Rooms(context.Background())

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Transient)
}

func TestUsersRequests(t *testing.T) {
	var got []string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		switch {
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `[{"tgID":"1","role":"student"},{"tgID":"2","role":"admin"}]`)
		case r.Method == http.MethodPost:
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{"tgID": "7", "language": "en"}, body)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_, _ = io.WriteString(w, `{"status":"created"}`)
		default:
			_, _ = io.WriteString(w, `{"status":"ok"}`)
		}
	})
	u, err := NewUsersClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	users, err := u.Users(ctx, "")
	require.NoError(t, err)
	assert.Len(t, users, 2)
	_, err = u.Users(ctx, RoleAdmin)
	require.NoError(t, err)

	st, err := u.CreateUser(ctx, "7", "en")
	require.NoError(t, err)
	assert.Equal(t, "created", st.Status)

	_, err = u.UpdateUser(ctx, "7", UserUpdate{Role: RoleAdmin})
	require.NoError(t, err)
	_, err = u.DeleteUser(ctx, "7", "1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /users/?",
		"GET /users/?role=admin",
		"POST /users/?",
		"PUT /users/7?role=admin",
		"DELETE /users/7?fromUserID=1",
	}, got)
}

func TestSpacesRequests(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.EscapedPath() {
		case "GET /ping":
			_, _ = io.WriteString(w, `{"message":"pong"}`)
		case "GET /rooms/":
			_, _ = io.WriteString(w, `[{"id":"1","is_booked":false,"booked_by":""},{"id":"2","is_booked":true,"booked_by":"9"}]`)
		case "GET /rooms/2":
			_, _ = io.WriteString(w, `{"id":"2","is_booked":true,"booked_by":"9"}`)
		case "PUT /rooms/":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "1", body["id"])
			_ = json.NewEncoder(w).Encode(body)
		case "GET /coworkings/":
			_, _ = io.WriteString(w, `[{"id":"3","booked_time":["2025-01-02 10:00"]}]`)
		case "GET /coworkings/3":
			assert.Equal(t, "2025-01-02", r.URL.Query().Get("date"))
			_, _ = io.WriteString(w, `{"id":"3","available_times":["11:00","12:00"]}`)
		case "POST /coworkings/3":
			var bt BookingTime
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&bt))
			_ = json.NewEncoder(w).Encode(bt)
		case "GET /rooms/east%2Fwing":
			_, _ = io.WriteString(w, `{"id":"east/wing","is_booked":false,"booked_by":""}`)
		default:
			http.NotFound(w, r)
		}
	})
	s, err := NewSpacesClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	pong, err := s.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", pong["message"])

	rooms, err := s.Rooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	room, err := s.Room(ctx, "2")
	require.NoError(t, err)
	assert.True(t, room.IsBooked)

	updated, err := s.UpdateRoom(ctx, Room{ID: "1", IsBooked: true, BookedBy: "5"})
	require.NoError(t, err)
	assert.Equal(t, "5", updated.BookedBy)
	assert.Equal(t, "1", updated.ID)

	cws, err := s.Coworkings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Coworking{{ID: "3", BookedTime: []string{"2025-01-02 10:00"}}}, cws)

	av, err := s.CoworkingAvailability(ctx, "3", "2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00", "12:00"}, av.AvailableTimes)

	bt, err := s.AddCoworkingBooking(ctx, "3", "2025-01-02 11:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02 11:00", bt.Time)

	escaped, err := s.Room(ctx, "east/wing")
	require.NoError(t, err)
	assert.Equal(t, "east/wing", escaped.ID)

	_, err = s.Room(ctx, "99")
	assert.True(t, IsNotFound(err))
}

func TestSpacesDecodeStringIDs(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rooms/":
			_, _ = io.WriteString(w, `[{"id":"101","is_booked":false,"booked_by":""}]`)
		case "/coworkings/":
			_, _ = io.WriteString(w, `[{"id":"1","booked_time":[]}]`)
		default:
			http.NotFound(w, r)
		}
	})
	s, err := NewSpacesClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	rooms, err := s.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Room{{ID: "101"}}, rooms)

	cws, err := s.Coworkings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Coworking{{ID: "1", BookedTime: []string{}}}, cws)
}

func TestVerify(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/verify/valid-uuid", r.URL.Path)
		_, _ = io.WriteString(w, `{"uuid":"valid-uuid","valid":true}`)
	})
	v, err := NewVerifyClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := v.Verify(context.Background(), "valid-uuid")
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleStudent, ParseRole("student"))
	assert.Equal(t, RoleUnknown, ParseRole(""))
}
