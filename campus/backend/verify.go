package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Verification is the answer of a QR check-in lookup.
type Verification struct {
	UUID  string `json:"uuid"`
	Valid bool   `json:"valid"`
}

// VerifyClient talks to the Verify service.
type VerifyClient struct {
	c *client
}

// NewVerifyClient validates cfg and returns a client bound to it.
func NewVerifyClient(cfg Config) (*VerifyClient, error) {
	c, err := newClient("verify", cfg)
	if err != nil {
		return nil, err
	}
	return &VerifyClient{c: c}, nil
}

// Verify checks a check-in token.
func (v *VerifyClient) Verify(ctx context.Context, token string) (Verification, error) {
	var out Verification
	err := v.c.object(ctx, request{
		op:     "verify",
		method: http.MethodPost,
		path:   "/verify/" + url.PathEscape(token),
	}, &out, "uuid", "valid")
	return out, err
}
