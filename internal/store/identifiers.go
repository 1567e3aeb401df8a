package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/collectory/registry/internal/model"
)

// Identifier rows are shared between institutions and collections; the
// owning entity is referenced by its uuid key.

func listIdentifiers(ctx context.Context, db DBTX, entityKey uuid.UUID) ([]model.Identifier, error) {
	rows, err := db.Query(ctx, `
		SELECT key, type, identifier
		FROM identifiers WHERE entity_key = $1
		ORDER BY key`, pgUUID(entityKey))
	if err != nil {
		return nil, fmt.Errorf("list identifiers: %w", err)
	}
	defer rows.Close()

	var out []model.Identifier
	for rows.Next() {
		var id model.Identifier
		var typ string
		if err := rows.Scan(&id.Key, &typ, &id.Identifier); err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		id.Type = model.IdentifierType(typ)
		out = append(out, id)
	}
	return out, rows.Err()
}

func addIdentifier(ctx context.Context, db DBTX, entityKey uuid.UUID, id model.Identifier) error {
	_, err := db.Exec(ctx, `
		INSERT INTO identifiers (entity_key, type, identifier)
		VALUES ($1, $2, $3)`,
		pgUUID(entityKey), string(id.Type), id.Identifier)
	if err != nil {
		return fmt.Errorf("add identifier: %w", err)
	}
	return nil
}

func deleteIdentifier(ctx context.Context, db DBTX, entityKey uuid.UUID, identifierKey int64) error {
	tag, err := db.Exec(ctx, `
		DELETE FROM identifiers WHERE key = $1 AND entity_key = $2`,
		identifierKey, pgUUID(entityKey))
	if err != nil {
		return fmt.Errorf("delete identifier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("identifier %d not found", identifierKey)
	}
	return nil
}

func findByIdentifier(ctx context.Context, db DBTX, table string, idType model.IdentifierType, value string) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
		SELECT e.key FROM %s e
		JOIN identifiers i ON i.entity_key = e.key
		WHERE i.type = $1 AND i.identifier = $2`, table),
		string(idType), value)
	if err != nil {
		return nil, fmt.Errorf("find by identifier: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}
