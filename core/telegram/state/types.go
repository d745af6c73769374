package state

import (
	"context"
	"errors"
	"maps"
)

// Tag identifies a conversation step.
type Tag string

// Idle indicates there is no active conversation with the user.
const Idle Tag = "idle"

// ErrEmptyKey is returned when a scratch key is blank.
var ErrEmptyKey = errors.New("state: empty scratch key")

// Conversation is the state of a single user.
type Conversation struct {
	UserID  int64             `json:"user_id"`
	Tag     Tag               `json:"state"`
	Scratch map[string]string `json:"scratch"`
}

// NewConversation returns an idle conversation with empty scratch.
func NewConversation(userID int64) Conversation {
	return Conversation{UserID: userID, Tag: Idle, Scratch: map[string]string{}}
}

// Value returns a scratch value and whether it is present and non-empty.
func (c Conversation) Value(key string) (string, bool) {
	v, ok := c.Scratch[key]
	return v, ok && v != ""
}

// Is reports whether the conversation is at tag.
func (c Conversation) Is(tag Tag) bool {
	if c.Tag == "" {
		return tag == Idle
	}
	return c.Tag == tag
}

func (c Conversation) clone() Conversation {
	out := c
	out.Scratch = maps.Clone(c.Scratch)
	if out.Scratch == nil {
		out.Scratch = map[string]string{}
	}
	if out.Tag == "" {
		out.Tag = Idle
	}
	return out
}

// Store persists conversations. Implementations must be safe for concurrent use;
// writes for the same user are last-writer-wins.
type Store interface {
	// Get returns the conversation and whether one was stored. A missing
	// conversation is reported as an idle one with ok=false.
	Get(ctx context.Context, userID int64) (Conversation, bool, error)
	SetState(ctx context.Context, userID int64, tag Tag) error
	// UpdateScratch merges key=value into scratch, creating the entry if absent.
	UpdateScratch(ctx context.Context, userID int64, key, value string) error
	// Clear resets the user to Idle with empty scratch.
	Clear(ctx context.Context, userID int64) error
}
