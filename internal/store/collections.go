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

type collectionStore struct {
	db DBTX
}

func (s *collectionStore) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	return entityExists(ctx, s.db, "collections", key)
}

func (s *collectionStore) Get(ctx context.Context, key uuid.UUID) (model.Entity, error) {
	c := &model.Collection{}
	var (
		pgKey                   uuid.UUID
		contentTypes            []string
		preservationTypes       []string
		accessionStatus         pgtype.Text
		institutionKey          pgtype.UUID
		addrKey, mailingAddrKey pgtype.Int8
		altCodes                []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT key, code, name, description, content_types, active, personal_collection,
			doi, email, phone, homepage, preservation_types, accession_status,
			institution_key, notes, taxonomic_coverage, geographic_coverage,
			number_specimens, department, division,
			address_key, mailing_address_key, alternative_codes,
			created_by, modified_by
		FROM collections WHERE key = $1`, pgUUID(key),
	).Scan(&pgKey, &c.Code, &c.Name, &c.Description, &contentTypes, &c.Active, &c.PersonalCollection,
		&c.DOI, &c.Email, &c.Phone, &c.Homepage, &preservationTypes, &accessionStatus,
		&institutionKey, &c.Notes, &c.TaxonomicCoverage, &c.GeographicCoverage,
		&c.NumberSpecimens, &c.Department, &c.Division,
		&addrKey, &mailingAddrKey, &altCodes,
		&c.CreatedBy, &c.ModifiedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	c.Key = &pgKey
	c.ContentTypes = stringsToEnums[model.CollectionContentType](contentTypes)
	c.PreservationTypes = stringsToEnums[model.PreservationType](preservationTypes)
	c.AccessionStatus = model.AccessionStatus(accessionStatus.String)
	c.InstitutionKey = fromPgUUID(institutionKey)
	if c.AlternativeCodes, err = fromJSON[model.AlternativeCode](altCodes); err != nil {
		return nil, err
	}
	if c.Address, err = getAddress(ctx, s.db, addrKey); err != nil {
		return nil, err
	}
	if c.MailingAddress, err = getAddress(ctx, s.db, mailingAddrKey); err != nil {
		return nil, err
	}
	if c.Identifiers, err = listIdentifiers(ctx, s.db, pgKey); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *collectionStore) Create(ctx context.Context, e model.Entity) (uuid.UUID, error) {
	c := e.(*model.Collection)
	key := uuid.New()

	addrKey, err := upsertAddress(ctx, s.db, c.Address)
	if err != nil {
		return uuid.UUID{}, err
	}
	mailingKey, err := upsertAddress(ctx, s.db, c.MailingAddress)
	if err != nil {
		return uuid.UUID{}, err
	}
	altCodes, err := toJSON(c.AlternativeCodes)
	if err != nil {
		return uuid.UUID{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO collections (key, code, name, description, content_types, active,
			personal_collection, doi, email, phone, homepage, preservation_types,
			accession_status, institution_key, notes, taxonomic_coverage,
			geographic_coverage, number_specimens, department, division,
			address_key, mailing_address_key, alternative_codes,
			created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		pgUUID(key), c.Code, c.Name, c.Description, enumsToStrings(c.ContentTypes), c.Active,
		c.PersonalCollection, c.DOI, c.Email, c.Phone, c.Homepage,
		enumsToStrings(c.PreservationTypes), nullString(string(c.AccessionStatus)),
		pgUUIDPtr(c.InstitutionKey), c.Notes, c.TaxonomicCoverage,
		c.GeographicCoverage, c.NumberSpecimens, c.Department, c.Division,
		addrKey, mailingKey, altCodes, c.CreatedBy, c.ModifiedBy)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("insert collection: %w", err)
	}
	return key, nil
}

func (s *collectionStore) Update(ctx context.Context, e model.Entity) error {
	c := e.(*model.Collection)
	if c.Key == nil {
		return fmt.Errorf("collection has no key")
	}

	addrKey, err := upsertAddress(ctx, s.db, c.Address)
	if err != nil {
		return err
	}
	mailingKey, err := upsertAddress(ctx, s.db, c.MailingAddress)
	if err != nil {
		return err
	}
	altCodes, err := toJSON(c.AlternativeCodes)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE collections
		SET code = $2, name = $3, description = $4, content_types = $5, active = $6,
			personal_collection = $7, doi = $8, email = $9, phone = $10, homepage = $11,
			preservation_types = $12, accession_status = $13, institution_key = $14,
			notes = $15, taxonomic_coverage = $16, geographic_coverage = $17,
			number_specimens = $18, department = $19, division = $20,
			address_key = $21, mailing_address_key = $22, alternative_codes = $23,
			modified_by = $24, modified_at = now()
		WHERE key = $1`,
		pgUUID(*c.Key), c.Code, c.Name, c.Description, enumsToStrings(c.ContentTypes), c.Active,
		c.PersonalCollection, c.DOI, c.Email, c.Phone, c.Homepage,
		enumsToStrings(c.PreservationTypes), nullString(string(c.AccessionStatus)),
		pgUUIDPtr(c.InstitutionKey), c.Notes, c.TaxonomicCoverage, c.GeographicCoverage,
		c.NumberSpecimens, c.Department, c.Division,
		addrKey, mailingKey, altCodes, c.ModifiedBy)
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntityNotFound
	}
	return nil
}

func (s *collectionStore) FindByCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	return findByCode(ctx, s.db, "collections", code)
}

func (s *collectionStore) FindByAlternativeCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	return findByAlternativeCode(ctx, s.db, "collections", code)
}

func (s *collectionStore) FindByIdentifier(ctx context.Context, idType model.IdentifierType, value string) ([]uuid.UUID, error) {
	return findByIdentifier(ctx, s.db, "collections", idType, value)
}

func (s *collectionStore) ListIdentifiers(ctx context.Context, entityKey uuid.UUID) ([]model.Identifier, error) {
	return listIdentifiers(ctx, s.db, entityKey)
}

func (s *collectionStore) AddIdentifier(ctx context.Context, entityKey uuid.UUID, id model.Identifier) error {
	return addIdentifier(ctx, s.db, entityKey, id)
}

func (s *collectionStore) DeleteIdentifier(ctx context.Context, entityKey uuid.UUID, identifierKey int64) error {
	return deleteIdentifier(ctx, s.db, entityKey, identifierKey)
}

func (s *collectionStore) ListContacts(ctx context.Context, entityKey uuid.UUID) ([]model.Contact, error) {
	return listContacts(ctx, s.db, entityKey)
}

func (s *collectionStore) AddContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) (uuid.UUID, error) {
	return addContact(ctx, s.db, entityKey, c)
}

func (s *collectionStore) UpdateContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) error {
	return updateContact(ctx, s.db, entityKey, c)
}

func (s *collectionStore) RemoveContact(ctx context.Context, entityKey, contactKey uuid.UUID) error {
	return removeContact(ctx, s.db, entityKey, contactKey)
}
