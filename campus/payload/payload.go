// Package payload encodes typed button payloads into callback data tokens of
// the form "<prefix>:<value>".
package payload

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxLen is the Telegram callback_data limit in bytes.
const MaxLen = 64

// Kind is the token prefix of a payload variant.
type Kind string

const (
	KindFAQ         Kind = "faq"
	KindCoworking   Kind = "cowo"
	KindDate        Kind = "date"
	KindTime        Kind = "time"
	KindRoom        Kind = "rooms"
	KindEndRoom     Kind = "end_room"
	KindGroupReport Kind = "group_report"
)

var (
	ErrMalformed   = errors.New("payload: malformed token")
	ErrUnknownKind = errors.New("payload: unknown prefix")
	ErrInvalid     = errors.New("payload: invalid value")
	ErrTooLong     = errors.New("payload: token exceeds 64 bytes")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Payload is one decoded button payload.
type Payload struct {
	Kind  Kind
	Value string
}

func FAQ(tag string) Payload { return Payload{Kind: KindFAQ, Value: tag} }
func Coworking(id string) Payload { return Payload{Kind: KindCoworking, Value: id} }
func Date(iso string) Payload { return Payload{Kind: KindDate, Value: iso} }
func Time(hhmm string) Payload { return Payload{Kind: KindTime, Value: hhmm} }
func Room(id string) Payload { return Payload{Kind: KindRoom, Value: id} }
func EndRoom(id string) Payload { return Payload{Kind: KindEndRoom, Value: id} }
func GroupReport(userID int64) Payload { return Payload{Kind: KindGroupReport, Value: strconv.FormatInt(userID, 10)} }

// Validate checks the value against the rules of its kind.
func (p Payload) Validate() error {
	var ok bool
	switch p.Kind {
	case KindFAQ, KindCoworking, KindRoom, KindEndRoom:
		ok = p.Value != "" && !strings.Contains(p.Value, ":") && strings.TrimSpace(p.Value) == p.Value
	case KindDate:
		t, err := time.Parse(dateLayout, p.Value)
		ok = err == nil && t.Format(dateLayout) == p.Value
	case KindTime:
		t, err := time.Parse(timeLayout, p.Value)
		ok = err == nil && t.Format(timeLayout) == p.Value
	case KindGroupReport:
		n, err := strconv.ParseInt(p.Value, 10, 64)
		ok = err == nil && n != 0 && strconv.FormatInt(n, 10) == p.Value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrInvalid, p.Kind, p.Value)
	}
	return nil
}

// Encode renders p as a callback data token.
func (p Payload) Encode() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	token := string(p.Kind) + ":" + p.Value
	if len(token) > MaxLen {
		return "", ErrTooLong
	}
	return token, nil
}

// Decode parses a token produced by Encode.
func Decode(token string) (Payload, error) {
	if len(token) > MaxLen {
		return Payload{}, ErrTooLong
	}
	prefix, value, ok := strings.Cut(token, ":")
	if !ok {
		return Payload{}, ErrMalformed
	}
	p := Payload{Kind: Kind(prefix), Value: value}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// DecodeAs parses token and requires its kind to be k.
func DecodeAs(token string, k Kind) (Payload, error) {
	p, err := Decode(token)
	if err != nil {
		return Payload{}, err
	}
	if p.Kind != k {
		return Payload{}, fmt.Errorf("%w: want %s, got %s", ErrUnknownKind, k, p.Kind)
	}
	return p, nil
}

// Is reports whether token decodes as a valid payload of kind k.
func Is(k Kind) func(token string) bool {
	return func(token string) bool {
		_, err := DecodeAs(token, k)
		return err == nil
	}
}

// ID returns the opaque space id of Coworking, Room and EndRoom payloads.
func (p Payload) ID() string {
	if p.Kind != KindCoworking && p.Kind != KindRoom && p.Kind != KindEndRoom {
		return ""
	}
	return p.Value
}

// UserID returns the value of a GroupReport payload.
func (p Payload) UserID() int64 {
	n, _ := strconv.ParseInt(p.Value, 10, 64)
	return n
}
