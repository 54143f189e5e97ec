package database

import (
	"context"
	"fmt"
	"time"

	"asistente-rag/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryStore persists conversation turns per session. The assistant core
// does not read history; the HTTP layer records turns around each chat call.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates the history table on the given pool.
func NewHistoryStore(ctx context.Context, pool *pgxpool.Pool) (*HistoryStore, error) {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS conversation_turns (
            id SERIAL PRIMARY KEY,
            session_id TEXT NOT NULL,
            role TEXT NOT NULL,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation_turns table: %w", err)
	}
	_, err = pool.Exec(ctx, `
        CREATE INDEX IF NOT EXISTS conversation_turns_session_idx ON conversation_turns (session_id, id)
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to create session index: %w", err)
	}
	return &HistoryStore{pool: pool}, nil
}

// SaveTurn appends one turn to a session.
func (h *HistoryStore) SaveTurn(ctx context.Context, turn models.ConversationTurn) error {
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := h.pool.Exec(ctx, `
        INSERT INTO conversation_turns (session_id, role, content, created_at)
        VALUES ($1, $2, $3, $4)
    `, turn.SessionID, turn.Role, turn.Content, ts)
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// RecentTurns returns the last n turns of a session in chronological order.
func (h *HistoryStore) RecentTurns(ctx context.Context, sessionID string, n int) ([]models.ConversationTurn, error) {
	rows, err := h.pool.Query(ctx, `
        SELECT session_id, role, content, created_at FROM (
            SELECT id, session_id, role, content, created_at
            FROM conversation_turns
            WHERE session_id = $1
            ORDER BY id DESC
            LIMIT $2
        ) latest ORDER BY id ASC
    `, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var t models.ConversationTurn
		if err := rows.Scan(&t.SessionID, &t.Role, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %w", err)
	}
	return turns, nil
}
