package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/collectory/registry/internal/model"
	"github.com/google/uuid"
)

// fakeEntityService is an in-memory EntityService that records every
// mutating call so tests can assert on what the engine did.
type fakeEntityService struct {
	mu          sync.Mutex
	entities    map[uuid.UUID]model.Entity
	identifiers map[uuid.UUID][]model.Identifier
	contacts    map[uuid.UUID][]model.Contact
	nextIDKey   int64
	calls       []string
	failOn      map[string]error
}

func newFakeEntityService() *fakeEntityService {
	return &fakeEntityService{
		entities:    make(map[uuid.UUID]model.Entity),
		identifiers: make(map[uuid.UUID][]model.Identifier),
		contacts:    make(map[uuid.UUID][]model.Contact),
		failOn:      make(map[string]error),
	}
}

func (f *fakeEntityService) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeEntityService) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// addInstitution seeds a stored institution with child rows derived from
// its Identifiers field.
func (f *fakeEntityService) addInstitution(i *model.Institution) uuid.UUID {
	key := uuid.New()
	i.Key = &key
	f.entities[key] = i
	for _, id := range i.Identifiers {
		f.nextIDKey++
		id.Key = f.nextIDKey
		f.identifiers[key] = append(f.identifiers[key], id)
	}
	return key
}

func (f *fakeEntityService) addStoredContact(entityKey uuid.UUID, c model.Contact) uuid.UUID {
	k := uuid.New()
	c.Key = &k
	f.contacts[entityKey] = append(f.contacts[entityKey], c)
	return k
}

func (f *fakeEntityService) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	if err := f.record("Exists"); err != nil {
		return false, err
	}
	_, ok := f.entities[key]
	return ok, nil
}

func (f *fakeEntityService) Get(ctx context.Context, key uuid.UUID) (model.Entity, error) {
	if err := f.record("Get"); err != nil {
		return nil, err
	}
	e, ok := f.entities[key]
	if !ok {
		return nil, fmt.Errorf("entity %s not found", key)
	}
	// Return a copy so engine merges do not touch stored state until
	// Update, mirroring a real database round trip.
	switch v := e.(type) {
	case *model.Institution:
		cp := *v
		cp.Identifiers = append([]model.Identifier(nil), f.identifiers[key]...)
		return &cp, nil
	case *model.Collection:
		cp := *v
		cp.Identifiers = append([]model.Identifier(nil), f.identifiers[key]...)
		return &cp, nil
	}
	return e, nil
}

func (f *fakeEntityService) Create(ctx context.Context, e model.Entity) (uuid.UUID, error) {
	if err := f.record("Create"); err != nil {
		return uuid.UUID{}, err
	}
	key := uuid.New()
	f.entities[key] = e
	return key, nil
}

func (f *fakeEntityService) Update(ctx context.Context, e model.Entity) error {
	if err := f.record("Update"); err != nil {
		return err
	}
	if e.GetKey() == nil {
		return fmt.Errorf("update without key")
	}
	f.entities[*e.GetKey()] = e
	return nil
}

func (f *fakeEntityService) FindByCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	if err := f.record("FindByCode"); err != nil {
		return nil, err
	}
	var keys []uuid.UUID
	for k, e := range f.entities {
		if e.GetCode() == code {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeEntityService) FindByAlternativeCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	if err := f.record("FindByAlternativeCode"); err != nil {
		return nil, err
	}
	var keys []uuid.UUID
	for k, e := range f.entities {
		for _, ac := range e.GetAlternativeCodes() {
			if ac.Code == code {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

func (f *fakeEntityService) FindByIdentifier(ctx context.Context, idType model.IdentifierType, value string) ([]uuid.UUID, error) {
	if err := f.record("FindByIdentifier"); err != nil {
		return nil, err
	}
	var keys []uuid.UUID
	for k, ids := range f.identifiers {
		for _, id := range ids {
			if id.Type == idType && id.Identifier == value {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

func (f *fakeEntityService) ListIdentifiers(ctx context.Context, entityKey uuid.UUID) ([]model.Identifier, error) {
	if err := f.record("ListIdentifiers"); err != nil {
		return nil, err
	}
	return append([]model.Identifier(nil), f.identifiers[entityKey]...), nil
}

func (f *fakeEntityService) AddIdentifier(ctx context.Context, entityKey uuid.UUID, id model.Identifier) error {
	if err := f.record("AddIdentifier"); err != nil {
		return err
	}
	f.nextIDKey++
	id.Key = f.nextIDKey
	f.identifiers[entityKey] = append(f.identifiers[entityKey], id)
	return nil
}

func (f *fakeEntityService) DeleteIdentifier(ctx context.Context, entityKey uuid.UUID, identifierKey int64) error {
	if err := f.record("DeleteIdentifier"); err != nil {
		return err
	}
	ids := f.identifiers[entityKey]
	for i, id := range ids {
		if id.Key == identifierKey {
			f.identifiers[entityKey] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("identifier %d not found", identifierKey)
}

func (f *fakeEntityService) ListContacts(ctx context.Context, entityKey uuid.UUID) ([]model.Contact, error) {
	if err := f.record("ListContacts"); err != nil {
		return nil, err
	}
	return append([]model.Contact(nil), f.contacts[entityKey]...), nil
}

func (f *fakeEntityService) AddContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) (uuid.UUID, error) {
	if err := f.record("AddContact"); err != nil {
		return uuid.UUID{}, err
	}
	k := uuid.New()
	stored := *c
	stored.Key = &k
	f.contacts[entityKey] = append(f.contacts[entityKey], stored)
	return k, nil
}

func (f *fakeEntityService) UpdateContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) error {
	if err := f.record("UpdateContact"); err != nil {
		return err
	}
	list := f.contacts[entityKey]
	for i := range list {
		if list[i].Key != nil && c.Key != nil && *list[i].Key == *c.Key {
			list[i] = *c
			return nil
		}
	}
	return fmt.Errorf("contact %v not found", c.Key)
}

func (f *fakeEntityService) RemoveContact(ctx context.Context, entityKey, contactKey uuid.UUID) error {
	if err := f.record("RemoveContact"); err != nil {
		return err
	}
	list := f.contacts[entityKey]
	for i := range list {
		if list[i].Key != nil && *list[i].Key == contactKey {
			f.contacts[entityKey] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("contact %s not found", contactKey)
}

// fakeAuthorizer grants or denies everything based on two flags.
type fakeAuthorizer struct {
	create bool
	modify bool
}

func (f fakeAuthorizer) AllowedToCreate(ctx context.Context, principal string, entityType model.EntityType, code string) (bool, error) {
	return f.create, nil
}

func (f fakeAuthorizer) AllowedToModify(ctx context.Context, principal string, entityType model.EntityType, key uuid.UUID) (bool, error) {
	return f.modify, nil
}

// fakeBatchStore records batch writes in memory.
type fakeBatchStore struct {
	mu       sync.Mutex
	nextKey  int64
	batches  map[int64]model.Batch
	creates  int
	finishes int
}

func newFakeBatchStore() *fakeBatchStore {
	return &fakeBatchStore{batches: make(map[int64]model.Batch)}
}

func (f *fakeBatchStore) Create(ctx context.Context, b *model.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextKey++
	b.Key = f.nextKey
	f.creates++
	f.batches[b.Key] = *b
	return nil
}

func (f *fakeBatchStore) Finish(ctx context.Context, b *model.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes++
	f.batches[b.Key] = *b
	return nil
}

func (f *fakeBatchStore) Get(ctx context.Context, key int64) (*model.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[key]
	if !ok {
		return nil, fmt.Errorf("batch %d not found", key)
	}
	return &b, nil
}

// fakeIdentity always resolves the same principal.
type fakeIdentity struct{ principal string }

func (f fakeIdentity) Principal(ctx context.Context) string { return f.principal }
