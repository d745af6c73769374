package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const (
	pgSelectConversation = `SELECT state, scratch FROM conversation_states WHERE user_id = $1`

	pgUpsertState = `INSERT INTO conversation_states (user_id, state) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`

	pgMergeScratch = `INSERT INTO conversation_states (user_id, scratch) VALUES ($1, jsonb_build_object($2::text, $3::text))
ON CONFLICT (user_id) DO UPDATE SET scratch = conversation_states.scratch || EXCLUDED.scratch, updated_at = now()`

	pgDeleteConversation = `DELETE FROM conversation_states WHERE user_id = $1`
)

// PostgresStore keeps conversations in the conversation_states table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open sqlx handle; the schema comes from migrations/.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type conversationRow struct {
	State   string `db:"state"`
	Scratch []byte `db:"scratch"`
}

// Get loads the user's conversation.
func (s *PostgresStore) Get(ctx context.Context, userID int64) (Conversation, bool, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row, pgSelectConversation, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewConversation(userID), false, nil
	}
	if err != nil {
		return Conversation{}, false, fmt.Errorf("state: select conversation %d: %w", userID, err)
	}
	conv := Conversation{UserID: userID, Tag: Tag(row.State)}
	if len(row.Scratch) > 0 {
		if err := json.Unmarshal(row.Scratch, &conv.Scratch); err != nil {
			return Conversation{}, false, fmt.Errorf("state: decode scratch %d: %w", userID, err)
		}
	}
	return conv.clone(), true, nil
}

// SetState upserts the tag keeping scratch intact.
func (s *PostgresStore) SetState(ctx context.Context, userID int64, tag Tag) error {
	if _, err := s.db.ExecContext(ctx, pgUpsertState, userID, string(tag)); err != nil {
		return fmt.Errorf("state: upsert state %d: %w", userID, err)
	}
	return nil
}

// UpdateScratch merges one key into the jsonb scratch column.
func (s *PostgresStore) UpdateScratch(ctx context.Context, userID int64, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := s.db.ExecContext(ctx, pgMergeScratch, userID, key, value); err != nil {
		return fmt.Errorf("state: merge scratch %d: %w", userID, err)
	}
	return nil
}

// Clear deletes the row; a missing row reads back as Idle.
func (s *PostgresStore) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, pgDeleteConversation, userID); err != nil {
		return fmt.Errorf("state: delete conversation %d: %w", userID, err)
	}
	return nil
}
