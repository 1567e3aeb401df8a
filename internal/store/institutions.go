package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/collectory/registry/internal/model"
)

// ErrEntityNotFound is returned when no entity row exists for a key.
var ErrEntityNotFound = errors.New("entity not found")

type institutionStore struct {
	db DBTX
}

func (s *institutionStore) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	return entityExists(ctx, s.db, "institutions", key)
}

func (s *institutionStore) Get(ctx context.Context, key uuid.UUID) (model.Entity, error) {
	i := &model.Institution{}
	var (
		pgKey                   uuid.UUID
		typ                     pgtype.Text
		disciplines             []string
		addrKey, mailingAddrKey pgtype.Int8
		altCodes                []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT key, code, name, description, type, active, email, phone,
			homepage, catalog_url, api_url, disciplines, latitude, longitude,
			additional_names, founding_date, number_specimens,
			address_key, mailing_address_key, alternative_codes,
			created_by, modified_by
		FROM institutions WHERE key = $1`, pgUUID(key),
	).Scan(&pgKey, &i.Code, &i.Name, &i.Description, &typ, &i.Active, &i.Email, &i.Phone,
		&i.Homepage, &i.CatalogURL, &i.APIURL, &disciplines, &i.Latitude, &i.Longitude,
		&i.AdditionalNames, &i.FoundingDate, &i.NumberSpecimens,
		&addrKey, &mailingAddrKey, &altCodes,
		&i.CreatedBy, &i.ModifiedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get institution: %w", err)
	}

	i.Key = &pgKey
	i.Type = model.InstitutionType(typ.String)
	i.Disciplines = stringsToEnums[model.Discipline](disciplines)
	if i.AlternativeCodes, err = fromJSON[model.AlternativeCode](altCodes); err != nil {
		return nil, err
	}
	if i.Address, err = getAddress(ctx, s.db, addrKey); err != nil {
		return nil, err
	}
	if i.MailingAddress, err = getAddress(ctx, s.db, mailingAddrKey); err != nil {
		return nil, err
	}
	if i.Identifiers, err = listIdentifiers(ctx, s.db, pgKey); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *institutionStore) Create(ctx context.Context, e model.Entity) (uuid.UUID, error) {
	i := e.(*model.Institution)
	key := uuid.New()

	addrKey, err := upsertAddress(ctx, s.db, i.Address)
	if err != nil {
		return uuid.UUID{}, err
	}
	mailingKey, err := upsertAddress(ctx, s.db, i.MailingAddress)
	if err != nil {
		return uuid.UUID{}, err
	}
	altCodes, err := toJSON(i.AlternativeCodes)
	if err != nil {
		return uuid.UUID{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO institutions (key, code, name, description, type, active, email, phone,
			homepage, catalog_url, api_url, disciplines, latitude, longitude,
			additional_names, founding_date, number_specimens,
			address_key, mailing_address_key, alternative_codes,
			created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`,
		pgUUID(key), i.Code, i.Name, i.Description, nullString(string(i.Type)), i.Active,
		i.Email, i.Phone, i.Homepage, i.CatalogURL, i.APIURL,
		enumsToStrings(i.Disciplines), i.Latitude, i.Longitude,
		i.AdditionalNames, i.FoundingDate, i.NumberSpecimens,
		addrKey, mailingKey, altCodes, i.CreatedBy, i.ModifiedBy)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("insert institution: %w", err)
	}
	return key, nil
}

func (s *institutionStore) Update(ctx context.Context, e model.Entity) error {
	i := e.(*model.Institution)
	if i.Key == nil {
		return fmt.Errorf("institution has no key")
	}

	addrKey, err := upsertAddress(ctx, s.db, i.Address)
	if err != nil {
		return err
	}
	mailingKey, err := upsertAddress(ctx, s.db, i.MailingAddress)
	if err != nil {
		return err
	}
	altCodes, err := toJSON(i.AlternativeCodes)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE institutions
		SET code = $2, name = $3, description = $4, type = $5, active = $6,
			email = $7, phone = $8, homepage = $9, catalog_url = $10, api_url = $11,
			disciplines = $12, latitude = $13, longitude = $14,
			additional_names = $15, founding_date = $16, number_specimens = $17,
			address_key = $18, mailing_address_key = $19, alternative_codes = $20,
			modified_by = $21, modified_at = now()
		WHERE key = $1`,
		pgUUID(*i.Key), i.Code, i.Name, i.Description, nullString(string(i.Type)), i.Active,
		i.Email, i.Phone, i.Homepage, i.CatalogURL, i.APIURL,
		enumsToStrings(i.Disciplines), i.Latitude, i.Longitude,
		i.AdditionalNames, i.FoundingDate, i.NumberSpecimens,
		addrKey, mailingKey, altCodes, i.ModifiedBy)
	if err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntityNotFound
	}
	return nil
}

func (s *institutionStore) FindByCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	return findByCode(ctx, s.db, "institutions", code)
}

func (s *institutionStore) FindByAlternativeCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	return findByAlternativeCode(ctx, s.db, "institutions", code)
}

func (s *institutionStore) FindByIdentifier(ctx context.Context, idType model.IdentifierType, value string) ([]uuid.UUID, error) {
	return findByIdentifier(ctx, s.db, "institutions", idType, value)
}

func (s *institutionStore) ListIdentifiers(ctx context.Context, entityKey uuid.UUID) ([]model.Identifier, error) {
	return listIdentifiers(ctx, s.db, entityKey)
}

func (s *institutionStore) AddIdentifier(ctx context.Context, entityKey uuid.UUID, id model.Identifier) error {
	return addIdentifier(ctx, s.db, entityKey, id)
}

func (s *institutionStore) DeleteIdentifier(ctx context.Context, entityKey uuid.UUID, identifierKey int64) error {
	return deleteIdentifier(ctx, s.db, entityKey, identifierKey)
}

func (s *institutionStore) ListContacts(ctx context.Context, entityKey uuid.UUID) ([]model.Contact, error) {
	return listContacts(ctx, s.db, entityKey)
}

func (s *institutionStore) AddContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) (uuid.UUID, error) {
	return addContact(ctx, s.db, entityKey, c)
}

func (s *institutionStore) UpdateContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) error {
	return updateContact(ctx, s.db, entityKey, c)
}

func (s *institutionStore) RemoveContact(ctx context.Context, entityKey, contactKey uuid.UUID) error {
	return removeContact(ctx, s.db, entityKey, contactKey)
}
