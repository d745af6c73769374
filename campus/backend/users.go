package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Role is the access level of a campus user.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleUnknown Role = "unknown"
)

// ParseRole maps unrecognised values to RoleUnknown.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleStudent, RoleAdmin:
		return r
	}
	return RoleUnknown
}

// UnmarshalJSON decodes any unrecognised role string as RoleUnknown.
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// User is a campus user record.
type User struct {
	TgID     string `json:"tgID"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// UserUpdate carries the optional fields of UpdateUser; empty values are omitted.
type UserUpdate struct {
	Role     Role
	Language string
}

type createUserRequest struct {
	TgID     string `json:"tgID"`
	Language string `json:"language"`
}

// UsersClient talks to the Users service.
type UsersClient struct {
	c *client
}

// NewUsersClient validates cfg and returns a client bound to it.
func NewUsersClient(cfg Config) (*UsersClient, error) {
	c, err := newClient("users", cfg)
	if err != nil {
		return nil, err
	}
	return &UsersClient{c: c}, nil
}

// Ping checks service reachability.
func (u *UsersClient) Ping(ctx context.Context) (map[string]string, error) {
	return u.c.ping(ctx)
}

// Users lists users, optionally filtered by role.
func (u *UsersClient) Users(ctx context.Context, role Role) ([]User, error) {
	q := url.Values{}
	if role != "" {
		q.Set("role", string(role))
	}
	var out []User
	err := u.c.list(ctx, request{op: "users", method: http.MethodGet, path: "/users/", query: q}, &out, "tgID", "role")
	return out, err
}

// CreateUser registers tgID.
func (u *UsersClient) CreateUser(ctx context.Context, tgID, language string) (Status, error) {
	var out Status
	err := u.c.object(ctx, request{
		op:     "create_user",
		method: http.MethodPost,
		path:   "/users/",
		body:   createUserRequest{TgID: tgID, Language: language},
	}, &out, "status")
	return out, err
}

// User fetches one user; a missing user yields an *Error with status 404.
func (u *UsersClient) User(ctx context.Context, tgID string) (User, error) {
	var out User
	err := u.c.object(ctx, request{
		op:     "user",
		method: http.MethodGet,
		path:   "/users/" + url.PathEscape(tgID),
	}, &out, "tgID", "role")
	return out, err
}

// UpdateUser changes the role and/or language of tgID. The bot flows never
// call it; it exists for admin tooling.
func (u *UsersClient) UpdateUser(ctx context.Context, tgID string, upd UserUpdate) (Status, error) {
	q := url.Values{}
	if upd.Role != "" {
		q.Set("role", string(upd.Role))
	}
	if upd.Language != "" {
		q.Set("language", upd.Language)
	}
	var out Status
	err := u.c.object(ctx, request{
		op:     "update_user",
		method: http.MethodPut,
		path:   "/users/" + url.PathEscape(tgID),
		query:  q,
	}, &out, "status")
	return out, err
}

// DeleteUser removes tgID on behalf of fromUserID. Like UpdateUser it exists
// for admin tooling and no bot flow calls it.
func (u *UsersClient) DeleteUser(ctx context.Context, tgID, fromUserID string) (Status, error) {
	var out Status
	err := u.c.object(ctx, request{
		op:     "delete_user",
		method: http.MethodDelete,
		path:   "/users/" + url.PathEscape(tgID),
		query:  url.Values{"fromUserID": {fromUserID}},
	}, &out, "status")
	return out, err
}
