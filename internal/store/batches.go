package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/collectory/registry/internal/model"
)

// ErrBatchNotFound is returned when no batch row exists for a key.
var ErrBatchNotFound = errors.New("batch not found")

type batchStore struct {
	db DBTX
}

// Create inserts the batch row in its initial state and fills in the
// generated key and creation timestamp.
func (s *batchStore) Create(ctx context.Context, b *model.Batch) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO batches (entity_type, state, errors, created_by, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING key, created_at`,
		string(b.EntityType), string(b.State), b.Errors, b.CreatedBy,
	).Scan(&b.Key, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// Finish writes the terminal state. It refuses to touch a batch that
// already reached a terminal state.
func (s *batchStore) Finish(ctx context.Context, b *model.Batch) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE batches
		SET state = $2, errors = $3, result_file_path = $4, finished_at = $5
		WHERE key = $1 AND state = $6`,
		b.Key, string(b.State), b.Errors, nullString(b.ResultFilePath), b.FinishedAt,
		string(model.BatchStateInProgress),
	)
	if err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch %d is not in progress", b.Key)
	}
	return nil
}

// Get loads a batch row by key.
func (s *batchStore) Get(ctx context.Context, key int64) (*model.Batch, error) {
	b := &model.Batch{}
	var (
		entityType, state string
		resultPath        pgtype.Text
		finishedAt        pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, `
		SELECT key, entity_type, state, errors, result_file_path, created_by, created_at, finished_at
		FROM batches WHERE key = $1`, key,
	).Scan(&b.Key, &entityType, &state, &b.Errors, &resultPath, &b.CreatedBy, &b.CreatedAt, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	b.EntityType = model.EntityType(entityType)
	b.State = model.BatchState(state)
	b.ResultFilePath = resultPath.String
	if finishedAt.Valid {
		t := finishedAt.Time
		b.FinishedAt = &t
	}
	return b, nil
}

func nullString(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
