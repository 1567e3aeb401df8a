// Package store implements the persistence collaborators on PostgreSQL
// via pgx: batch job records, institutions, collections, and their child
// identifier and contact rows.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collectory/registry/internal/batch"
	"github.com/collectory/registry/internal/model"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Store bundles all registry persistence on one connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Batches returns the batch job store.
func (s *Store) Batches() batch.BatchStore {
	return &batchStore{db: s.pool}
}

// Institutions returns the institution entity service.
func (s *Store) Institutions() batch.EntityService {
	return &institutionStore{db: s.pool}
}

// Collections returns the collection entity service.
func (s *Store) Collections() batch.EntityService {
	return &collectionStore{db: s.pool}
}

// pgUUID converts a uuid to its pgtype representation.
func pgUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func pgUUIDPtr(u *uuid.UUID) pgtype.UUID {
	if u == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*u)
}

func fromPgUUID(v pgtype.UUID) *uuid.UUID {
	if !v.Valid {
		return nil
	}
	u := uuid.UUID(v.Bytes)
	return &u
}

// toJSON marshals child values (alternative codes, user ids) for jsonb
// columns. nil slices become SQL NULL.
func toJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

func fromJSON[T any](data []byte) ([]T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return out, nil
}

// enumsToStrings converts a typed enum slice for a text[] column.
func enumsToStrings[E ~string](in []E) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func stringsToEnums[E ~string](in []string) []E {
	if in == nil {
		return nil
	}
	out := make([]E, len(in))
	for i, v := range in {
		out[i] = E(v)
	}
	return out
}

// upsertAddress writes an address row, inserting when it has no key yet,
// and returns the row key. A nil address yields a NULL key.
func upsertAddress(ctx context.Context, db DBTX, a *model.Address) (pgtype.Int8, error) {
	if a == nil {
		return pgtype.Int8{}, nil
	}
	if a.Key == 0 {
		err := db.QueryRow(ctx, `
			INSERT INTO addresses (address, city, province, postal_code, country)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING key`,
			a.Address, a.City, a.Province, a.PostalCode, string(a.Country),
		).Scan(&a.Key)
		if err != nil {
			return pgtype.Int8{}, fmt.Errorf("insert address: %w", err)
		}
	} else {
		_, err := db.Exec(ctx, `
			UPDATE addresses
			SET address = $2, city = $3, province = $4, postal_code = $5, country = $6
			WHERE key = $1`,
			a.Key, a.Address, a.City, a.Province, a.PostalCode, string(a.Country),
		)
		if err != nil {
			return pgtype.Int8{}, fmt.Errorf("update address: %w", err)
		}
	}
	return pgtype.Int8{Int64: a.Key, Valid: true}, nil
}

// getAddress loads an address row by key. A NULL key yields nil.
func getAddress(ctx context.Context, db DBTX, key pgtype.Int8) (*model.Address, error) {
	if !key.Valid {
		return nil, nil
	}
	a := &model.Address{}
	var country string
	err := db.QueryRow(ctx, `
		SELECT key, address, city, province, postal_code, country
		FROM addresses WHERE key = $1`, key.Int64,
	).Scan(&a.Key, &a.Address, &a.City, &a.Province, &a.PostalCode, &country)
	if err != nil {
		return nil, fmt.Errorf("get address: %w", err)
	}
	a.Country = model.Country(country)
	return a, nil
}
