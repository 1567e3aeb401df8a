package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Lookup helpers shared by the institution and collection stores. The
// table name is always one of the two fixed entity tables, never input.

func scanKeys(rows pgx.Rows) ([]uuid.UUID, error) {
	var keys []uuid.UUID
	for rows.Next() {
		var k uuid.UUID
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func entityExists(ctx context.Context, db DBTX, table string, key uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE key = $1)`, table),
		pgUUID(key)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return exists, nil
}

func findByCode(ctx context.Context, db DBTX, table, code string) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx,
		fmt.Sprintf(`SELECT key FROM %s WHERE code = $1`, table), code)
	if err != nil {
		return nil, fmt.Errorf("find by code: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

func findByAlternativeCode(ctx context.Context, db DBTX, table, code string) ([]uuid.UUID, error) {
	needle, err := json.Marshal([]map[string]string{{"code": code}})
	if err != nil {
		return nil, fmt.Errorf("marshal alternative code query: %w", err)
	}
	rows, err := db.Query(ctx,
		fmt.Sprintf(`SELECT key FROM %s WHERE alternative_codes @> $1::jsonb`, table), needle)
	if err != nil {
		return nil, fmt.Errorf("find by alternative code: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}
