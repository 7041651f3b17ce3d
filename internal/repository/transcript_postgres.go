package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"matchchat/internal/models"
)

type TranscriptPostgres struct {
	db *sql.DB
}

func NewTranscriptPostgres(db *sql.DB) *TranscriptPostgres {
	return &TranscriptPostgres{db: db}
}

// SaveTurns stores the turns of one answered question in a single transaction.
func (r *TranscriptPostgres) SaveTurns(ctx context.Context, sessionID string, matchID int, turns []models.Turn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chat_turns (session_id, match_id, role, text, snippets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range turns {
		snippets, err := json.Marshal(t.Snippets)
		if err != nil {
			return fmt.Errorf("failed to encode snippets: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, sessionID, matchID, string(t.Role), t.Text, snippets, t.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turns: %w", err)
	}
	return nil
}

// ListTurns returns the latest limit turns of a session, oldest first.
func (r *TranscriptPostgres) ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, text, snippets, created_at FROM (
			SELECT id, role, text, snippets, created_at
			FROM chat_turns
			WHERE session_id = $1
			ORDER BY id DESC
			LIMIT $2
		) latest
		ORDER BY id ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var (
			t        models.Turn
			role     string
			snippets []byte
		)
		if err := rows.Scan(&role, &t.Text, &snippets, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = models.Role(role)
		if len(snippets) > 0 {
			if err := json.Unmarshal(snippets, &t.Snippets); err != nil {
				return nil, fmt.Errorf("failed to decode snippets: %w", err)
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (r *TranscriptPostgres) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_turns WHERE session_id = $1`, sessionID)
	return err
}
