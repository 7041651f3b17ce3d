package repository

import (
	"context"
	"database/sql"

	"matchchat/internal/models"
)

type Transcript interface {
	SaveTurns(ctx context.Context, sessionID string, matchID int, turns []models.Turn) error
	ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type Repository struct {
	Transcript
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Transcript: NewTranscriptPostgres(db),
		db:         db,
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
