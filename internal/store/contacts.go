package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/collectory/registry/internal/model"
)

// Contact persons are shared child rows of institutions and collections,
// referenced by the owning entity's uuid key.

const contactColumns = `key, first_name, last_name, position, phone, fax, email,
	address, city, province, country, postal_code, is_primary,
	taxonomic_expertise, notes, user_ids, created_by, modified_by`

func listContacts(ctx context.Context, db DBTX, entityKey uuid.UUID) ([]model.Contact, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM contacts WHERE entity_key = $1 ORDER BY key`, contactColumns),
		pgUUID(entityKey))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		var (
			c       model.Contact
			key     uuid.UUID
			country string
			userIDs []byte
		)
		err := rows.Scan(&key, &c.FirstName, &c.LastName, &c.Position, &c.Phone, &c.Fax, &c.Email,
			&c.Address, &c.City, &c.Province, &country, &c.PostalCode, &c.Primary,
			&c.TaxonomicExpertise, &c.Notes, &userIDs, &c.CreatedBy, &c.ModifiedBy)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Key = &key
		c.Country = model.Country(country)
		if c.UserIDs, err = fromJSON[model.UserID](userIDs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func addContact(ctx context.Context, db DBTX, entityKey uuid.UUID, c *model.Contact) (uuid.UUID, error) {
	userIDs, err := toJSON(c.UserIDs)
	if err != nil {
		return uuid.UUID{}, err
	}
	key := uuid.New()
	_, err = db.Exec(ctx, `
		INSERT INTO contacts (key, entity_key, first_name, last_name, position, phone, fax, email,
			address, city, province, country, postal_code, is_primary,
			taxonomic_expertise, notes, user_ids, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		pgUUID(key), pgUUID(entityKey), c.FirstName, c.LastName, c.Position, c.Phone, c.Fax, c.Email,
		c.Address, c.City, c.Province, string(c.Country), c.PostalCode, c.Primary,
		c.TaxonomicExpertise, c.Notes, userIDs, c.CreatedBy, c.ModifiedBy)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("add contact: %w", err)
	}
	return key, nil
}

func updateContact(ctx context.Context, db DBTX, entityKey uuid.UUID, c *model.Contact) error {
	if c.Key == nil {
		return fmt.Errorf("contact has no key")
	}
	userIDs, err := toJSON(c.UserIDs)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `
		UPDATE contacts
		SET first_name = $3, last_name = $4, position = $5, phone = $6, fax = $7, email = $8,
			address = $9, city = $10, province = $11, country = $12, postal_code = $13,
			is_primary = $14, taxonomic_expertise = $15, notes = $16, user_ids = $17,
			modified_by = $18
		WHERE key = $1 AND entity_key = $2`,
		pgUUID(*c.Key), pgUUID(entityKey), c.FirstName, c.LastName, c.Position, c.Phone, c.Fax, c.Email,
		c.Address, c.City, c.Province, string(c.Country), c.PostalCode, c.Primary,
		c.TaxonomicExpertise, c.Notes, userIDs, c.ModifiedBy)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contact %s not found", c.Key)
	}
	return nil
}

func removeContact(ctx context.Context, db DBTX, entityKey, contactKey uuid.UUID) error {
	tag, err := db.Exec(ctx, `
		DELETE FROM contacts WHERE key = $1 AND entity_key = $2`,
		pgUUID(contactKey), pgUUID(entityKey))
	if err != nil {
		return fmt.Errorf("remove contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contact %s not found", contactKey)
	}
	return nil
}
