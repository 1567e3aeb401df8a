// Package model defines the registry's domain records: institutions,
// collections, their contact persons, and the batch job record that tracks
// one reconciliation run. Entities are owned by the persistence layer; this
// package only describes their shape.
package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which kind of registry entity a batch operates on.
type EntityType string

const (
	EntityTypeInstitution EntityType = "INSTITUTION"
	EntityTypeCollection  EntityType = "COLLECTION"
)

// ParseEntityType returns the EntityType matching s, case-insensitively.
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(normalizeEnum(s)) {
	case EntityTypeInstitution:
		return EntityTypeInstitution, true
	case EntityTypeCollection:
		return EntityTypeCollection, true
	}
	return "", false
}

// BatchState is the lifecycle state of a batch job. A batch starts
// IN_PROGRESS and transitions exactly once to FINISHED or FAILED.
type BatchState string

const (
	BatchStateInProgress BatchState = "IN_PROGRESS"
	BatchStateFinished   BatchState = "FINISHED"
	BatchStateFailed     BatchState = "FAILED"
)

// Batch is the persistent job record for one reconciliation run.
type Batch struct {
	Key            int64      `json:"key"`
	EntityType     EntityType `json:"entityType"`
	State          BatchState `json:"state"`
	Errors         []string   `json:"errors"`
	ResultFilePath string     `json:"resultFilePath,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
}

// Address is a nested address row. The key preserves referential identity
// across partial updates: an incoming address without a key inherits the
// stored address's key before overwriting it.
type Address struct {
	Key        int64   `json:"key,omitempty"`
	Address    string  `json:"address,omitempty"`
	City       string  `json:"city,omitempty"`
	Province   string  `json:"province,omitempty"`
	PostalCode string  `json:"postalCode,omitempty"`
	Country    Country `json:"country,omitempty"`
}

// Identifier is an external identifier attached to an entity.
type Identifier struct {
	Key        int64          `json:"key,omitempty"`
	Type       IdentifierType `json:"type"`
	Identifier string         `json:"identifier"`
}

// AlternativeCode is a secondary code an entity is known under.
type AlternativeCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// UserID links a contact person to an external user identity.
type UserID struct {
	Type UserIDType `json:"type"`
	ID   string     `json:"id"`
}

// Contact is a contact person attached to an institution or collection.
type Contact struct {
	Key                 *uuid.UUID `json:"key,omitempty"`
	FirstName           string     `json:"firstName,omitempty"`
	LastName            string     `json:"lastName,omitempty"`
	Position            []string   `json:"position,omitempty"`
	Phone               []string   `json:"phone,omitempty"`
	Fax                 []string   `json:"fax,omitempty"`
	Email               []string   `json:"email,omitempty"`
	Address             []string   `json:"address,omitempty"`
	City                string     `json:"city,omitempty"`
	Province            string     `json:"province,omitempty"`
	Country             Country    `json:"country,omitempty"`
	PostalCode          string     `json:"postalCode,omitempty"`
	Primary             bool       `json:"primary"`
	TaxonomicExpertise  []string   `json:"taxonomicExpertise,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	UserIDs             []UserID   `json:"userIds,omitempty"`
	CreatedBy           string     `json:"createdBy,omitempty"`
	ModifiedBy          string     `json:"modifiedBy,omitempty"`
}

// Entity is implemented by Institution and Collection. It exposes the
// fields the reconciliation engine needs without caring which concrete
// entity type a batch operates on.
type Entity interface {
	GetKey() *uuid.UUID
	SetKey(k *uuid.UUID)
	GetCode() string
	GetIdentifiers() []Identifier
	SetIdentifiers(ids []Identifier)
	GetAlternativeCodes() []AlternativeCode
	GetAddress() *Address
	SetAddress(a *Address)
	GetMailingAddress() *Address
	SetMailingAddress(a *Address)
	SetCreatedBy(principal string)
	SetModifiedBy(principal string)
}

// Institution is a collection-holding institution.
type Institution struct {
	Key              *uuid.UUID        `json:"key,omitempty"`
	Code             string            `json:"code"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Type             InstitutionType   `json:"type,omitempty"`
	Active           bool              `json:"active"`
	Email            []string          `json:"email,omitempty"`
	Phone            []string          `json:"phone,omitempty"`
	Homepage         string            `json:"homepage,omitempty"`
	CatalogURL       string            `json:"catalogUrl,omitempty"`
	APIURL           string            `json:"apiUrl,omitempty"`
	Disciplines      []Discipline      `json:"disciplines,omitempty"`
	Latitude         *float64          `json:"latitude,omitempty"`
	Longitude        *float64          `json:"longitude,omitempty"`
	AdditionalNames  []string          `json:"additionalNames,omitempty"`
	FoundingDate     *int              `json:"foundingDate,omitempty"`
	NumberSpecimens  *int              `json:"numberSpecimens,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	MailingAddress   *Address          `json:"mailingAddress,omitempty"`
	AlternativeCodes []AlternativeCode `json:"alternativeCodes,omitempty"`
	Identifiers      []Identifier      `json:"identifiers,omitempty"`
	CreatedBy        string            `json:"createdBy,omitempty"`
	ModifiedBy       string            `json:"modifiedBy,omitempty"`
}

func (i *Institution) GetKey() *uuid.UUID                     { return i.Key }
func (i *Institution) SetKey(k *uuid.UUID)                    { i.Key = k }
func (i *Institution) GetCode() string                        { return i.Code }
func (i *Institution) GetIdentifiers() []Identifier           { return i.Identifiers }
func (i *Institution) SetIdentifiers(ids []Identifier)        { i.Identifiers = ids }
func (i *Institution) GetAlternativeCodes() []AlternativeCode { return i.AlternativeCodes }
func (i *Institution) GetAddress() *Address                   { return i.Address }
func (i *Institution) SetAddress(a *Address)                  { i.Address = a }
func (i *Institution) GetMailingAddress() *Address            { return i.MailingAddress }
func (i *Institution) SetMailingAddress(a *Address)           { i.MailingAddress = a }
func (i *Institution) SetCreatedBy(p string)                  { i.CreatedBy = p }
func (i *Institution) SetModifiedBy(p string)                 { i.ModifiedBy = p }

// Collection is a natural-science collection, optionally belonging to an
// institution.
type Collection struct {
	Key                *uuid.UUID              `json:"key,omitempty"`
	Code               string                  `json:"code"`
	Name               string                  `json:"name"`
	Description        string                  `json:"description,omitempty"`
	ContentTypes       []CollectionContentType `json:"contentTypes,omitempty"`
	Active             bool                    `json:"active"`
	PersonalCollection bool                    `json:"personalCollection"`
	DOI                string                  `json:"doi,omitempty"`
	Email              []string                `json:"email,omitempty"`
	Phone              []string                `json:"phone,omitempty"`
	Homepage           string                  `json:"homepage,omitempty"`
	PreservationTypes  []PreservationType      `json:"preservationTypes,omitempty"`
	AccessionStatus    AccessionStatus         `json:"accessionStatus,omitempty"`
	InstitutionKey     *uuid.UUID              `json:"institutionKey,omitempty"`
	Notes              string                  `json:"notes,omitempty"`
	TaxonomicCoverage  string                  `json:"taxonomicCoverage,omitempty"`
	GeographicCoverage string                  `json:"geographicCoverage,omitempty"`
	NumberSpecimens    *int                    `json:"numberSpecimens,omitempty"`
	Department         string                  `json:"department,omitempty"`
	Division           string                  `json:"division,omitempty"`
	Address            *Address                `json:"address,omitempty"`
	MailingAddress     *Address                `json:"mailingAddress,omitempty"`
	AlternativeCodes   []AlternativeCode       `json:"alternativeCodes,omitempty"`
	Identifiers        []Identifier            `json:"identifiers,omitempty"`
	CreatedBy          string                  `json:"createdBy,omitempty"`
	ModifiedBy         string                  `json:"modifiedBy,omitempty"`
}

func (c *Collection) GetKey() *uuid.UUID                     { return c.Key }
func (c *Collection) SetKey(k *uuid.UUID)                    { c.Key = k }
func (c *Collection) GetCode() string                        { return c.Code }
func (c *Collection) GetIdentifiers() []Identifier           { return c.Identifiers }
func (c *Collection) SetIdentifiers(ids []Identifier)        { c.Identifiers = ids }
func (c *Collection) GetAlternativeCodes() []AlternativeCode { return c.AlternativeCodes }
func (c *Collection) GetAddress() *Address                   { return c.Address }
func (c *Collection) SetAddress(a *Address)                  { c.Address = a }
func (c *Collection) GetMailingAddress() *Address            { return c.MailingAddress }
func (c *Collection) SetMailingAddress(a *Address)           { c.MailingAddress = a }
func (c *Collection) SetCreatedBy(p string)                  { c.CreatedBy = p }
func (c *Collection) SetModifiedBy(p string)                 { c.ModifiedBy = p }
