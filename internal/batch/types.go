// Package batch implements the reconciliation engine for bulk registry
// imports: it parses tabular institution/collection and contact files,
// decides per row whether to create or update stored entities, diffs child
// identifiers and contacts, and writes an annotated result archive.
package batch

import (
	"context"

	"github.com/collectory/registry/internal/model"
	"github.com/google/uuid"
)

// ListDelimiter separates items inside a list-valued cell.
const ListDelimiter = "|"

// PairDelimiter separates the two halves of a structured cell item, e.g.
// "DOI:10.123/abc" or "ALTCODE:an old code".
const PairDelimiter = ":"

// HeaderIndex maps uppercased column names to their ordinal in the file.
type HeaderIndex map[string]int

// Has reports whether the column was present in the file.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[name]
	return ok
}

// ParsedRecord is one row's typed entity plus its accumulated row errors.
// The engine appends merge and authorization errors in place. HasKeyCell
// is true when the row's KEY column was populated, even if its value did
// not parse; such rows are never eligible for create.
type ParsedRecord struct {
	Key        string
	HasKeyCell bool
	Entity     model.Entity
	Errors     []string
}

// AddError appends a row-level error.
func (r *ParsedRecord) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// ParseResult is the per-file aggregate for an entities file. Natural keys
// are unique in Records; a key seen more than once keeps its first
// occurrence and the key is recorded in Duplicates.
type ParseResult struct {
	Format     Format
	Records    map[string]*ParsedRecord
	Order      []string // natural keys in file order
	Duplicates []string
	Header     HeaderIndex
	FileErrors []string
}

// ParsedContact is one contact row plus its accumulated row errors.
type ParsedContact struct {
	Key      string
	OwnerKey string
	Contact  *model.Contact
	Errors   []string
}

// AddError appends a row-level error.
func (c *ParsedContact) AddError(msg string) {
	c.Errors = append(c.Errors, msg)
}

// ContactParseResult is the per-file aggregate for a contacts file.
type ContactParseResult struct {
	Format     Format
	ByOwner    map[string][]*ParsedContact
	ByKey      map[string]*ParsedContact
	Duplicates []string
	Header     HeaderIndex
	FileErrors []string
}

// EntityService is the persistence collaborator for one entity type.
// Implementations serialize conflicting writes themselves.
type EntityService interface {
	Exists(ctx context.Context, key uuid.UUID) (bool, error)
	Get(ctx context.Context, key uuid.UUID) (model.Entity, error)
	Create(ctx context.Context, e model.Entity) (uuid.UUID, error)
	Update(ctx context.Context, e model.Entity) error

	FindByCode(ctx context.Context, code string) ([]uuid.UUID, error)
	FindByAlternativeCode(ctx context.Context, code string) ([]uuid.UUID, error)
	FindByIdentifier(ctx context.Context, idType model.IdentifierType, value string) ([]uuid.UUID, error)

	ListIdentifiers(ctx context.Context, entityKey uuid.UUID) ([]model.Identifier, error)
	AddIdentifier(ctx context.Context, entityKey uuid.UUID, id model.Identifier) error
	DeleteIdentifier(ctx context.Context, entityKey uuid.UUID, identifierKey int64) error

	ListContacts(ctx context.Context, entityKey uuid.UUID) ([]model.Contact, error)
	AddContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) (uuid.UUID, error)
	UpdateContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) error
	RemoveContact(ctx context.Context, entityKey uuid.UUID, contactKey uuid.UUID) error
}

// Authorizer decides whether a principal may create or modify entities.
type Authorizer interface {
	AllowedToCreate(ctx context.Context, principal string, entityType model.EntityType, code string) (bool, error)
	AllowedToModify(ctx context.Context, principal string, entityType model.EntityType, key uuid.UUID) (bool, error)
}

// IdentityProvider resolves the principal on whose behalf a batch runs.
type IdentityProvider interface {
	Principal(ctx context.Context) string
}

// BatchStore persists batch job records. A batch row is written exactly
// twice: once on submission and once on terminal completion.
type BatchStore interface {
	Create(ctx context.Context, b *model.Batch) error
	Finish(ctx context.Context, b *model.Batch) error
	Get(ctx context.Context, key int64) (*model.Batch, error)
}
