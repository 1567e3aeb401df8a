package batch

import (
	"context"
	"fmt"

	"github.com/collectory/registry/internal/model"
	"github.com/google/uuid"
)

// FindExisting looks up stored entities that a keyless row might duplicate.
// Lookup order, first match wins: exact code, alternative code, then each
// parsed identifier in file order, stopping at the first identifier that
// yields any match. An empty result means the row is safe to create.
func FindExisting(ctx context.Context, svc EntityService, code string, ids []model.Identifier) ([]uuid.UUID, error) {
	if code != "" {
		keys, err := svc.FindByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("find by code: %w", err)
		}
		if len(keys) > 0 {
			return keys, nil
		}

		keys, err = svc.FindByAlternativeCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("find by alternative code: %w", err)
		}
		if len(keys) > 0 {
			return keys, nil
		}
	}

	for _, id := range ids {
		keys, err := svc.FindByIdentifier(ctx, id.Type, id.Identifier)
		if err != nil {
			return nil, fmt.Errorf("find by identifier: %w", err)
		}
		if len(keys) > 0 {
			return keys, nil
		}
	}

	return nil, nil
}
