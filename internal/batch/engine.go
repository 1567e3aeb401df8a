package batch

// engine.go drives the per-row reconciliation state machine. Rows are
// processed strictly in file order; a failing row records its error and
// the batch moves on. Nothing in here raises for row-scoped problems.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/collectory/registry/internal/model"
	"github.com/google/uuid"
)

// Engine reconciles one batch's parsed records against stored state.
type Engine struct {
	def  Definition
	auth Authorizer
	log  *slog.Logger
}

// NewEngine creates an engine for one entity type.
func NewEngine(def Definition, auth Authorizer) *Engine {
	return &Engine{def: def, auth: auth, log: slog.Default()}
}

// Run applies every parsed entity row in file order: authorization check,
// create or column-scoped merge-and-update, identifier diff, contact diff.
// Errors are accumulated on the records; Run itself only fails on a broken
// context or similar run-fatal conditions surfaced by the orchestrator.
func (e *Engine) Run(ctx context.Context, principal string, entities *ParseResult, contacts *ContactParseResult) {
	e.log.Debug("reconciling rows", "entity_type", e.def.Type, "rows", len(entities.Order))
	for _, key := range entities.Order {
		rec := entities.Records[key]
		e.reconcileRow(ctx, principal, entities.Header, rec, contacts)
	}
}

func (e *Engine) reconcileRow(ctx context.Context, principal string, header HeaderIndex, rec *ParsedRecord, contacts *ContactParseResult) {
	svc := e.def.Service

	// Rows that failed key extraction are terminal. A row without KEY or
	// CODE is kept only so its error reaches the result file, and a
	// populated KEY cell that did not parse must never fall through to
	// the create path.
	if rec.Key == "" {
		return
	}
	if rec.HasKeyCell && rec.Entity.GetKey() == nil {
		return
	}

	if rec.Entity.GetKey() == nil {
		if !e.createEntity(ctx, principal, rec) {
			return
		}
	} else {
		if !e.updateEntity(ctx, principal, header, rec) {
			return
		}
	}

	entityKey := *rec.Entity.GetKey()
	e.applyIdentifiers(ctx, svc, entityKey, rec)

	if contacts != nil {
		if owned := contacts.ByOwner[rec.Key]; len(owned) > 0 {
			e.applyContacts(ctx, svc, principal, entityKey, rec, owned)
		}
	}
}

// createEntity handles a row without an explicit key. Reports false when
// the row is terminal and contact processing must be skipped.
func (e *Engine) createEntity(ctx context.Context, principal string, rec *ParsedRecord) bool {
	svc := e.def.Service
	ent := rec.Entity

	matches, err := FindExisting(ctx, svc, ent.GetCode(), ent.GetIdentifiers())
	if err != nil {
		rec.AddError(rowMessage(err))
		return false
	}
	if len(matches) > 0 {
		rec.AddError(fmt.Sprintf(
			"entity already exist with the same code or identifiers (%s), contacts skipped", ent.GetCode()))
		return false
	}

	allowed, err := e.auth.AllowedToCreate(ctx, principal, e.def.Type, ent.GetCode())
	if err != nil {
		rec.AddError(rowMessage(err))
		return false
	}
	if !allowed {
		rec.AddError(fmt.Sprintf("%s is not allowed to create the entity", principal))
		return false
	}

	ent.SetCreatedBy(principal)
	ent.SetModifiedBy(principal)
	key, err := svc.Create(ctx, ent)
	if err != nil {
		rec.AddError(rowMessage(fmt.Errorf("create: %w", err)))
		return false
	}
	ent.SetKey(&key)
	return true
}

// updateEntity handles a row with an explicit key: existence check,
// authorization, then a column-scoped merge onto the stored entity.
// Columns absent from the file keep their stored values.
func (e *Engine) updateEntity(ctx context.Context, principal string, header HeaderIndex, rec *ParsedRecord) bool {
	svc := e.def.Service
	key := *rec.Entity.GetKey()

	exists, err := svc.Exists(ctx, key)
	if err != nil {
		rec.AddError(rowMessage(err))
		return false
	}
	if !exists {
		rec.AddError(fmt.Sprintf("entity doesn't exist: %s", key))
		return false
	}

	allowed, err := e.auth.AllowedToModify(ctx, principal, e.def.Type, key)
	if err != nil {
		rec.AddError(rowMessage(err))
		return false
	}
	if !allowed {
		rec.AddError(fmt.Sprintf("%s is not allowed to modify the entity", principal))
		return false
	}

	stored, err := svc.Get(ctx, key)
	if err != nil {
		rec.AddError(rowMessage(fmt.Errorf("get: %w", err)))
		return false
	}

	e.merge(stored, rec, header)

	stored.SetModifiedBy(principal)
	if err := svc.Update(ctx, stored); err != nil {
		rec.AddError(rowMessage(fmt.Errorf("update: %w", err)))
		return false
	}

	// later steps diff against the merged stored entity
	rec.Entity = stored
	return true
}

// merge copies the parsed value of every column present in the file's
// header onto the stored entity. Address column groups merge as a unit and
// keep the stored address key.
func (e *Engine) merge(stored model.Entity, rec *ParsedRecord, header HeaderIndex) {
	for name := range header {
		fd, ok := e.def.Fields.Get(name)
		if !ok {
			continue
		}
		fd.Merge(stored, rec.Entity)
	}
}

// applyIdentifiers diffs the reconciled entity's identifier list against
// the stored child rows: stale identifiers are deleted, new ones added.
// Each failure is row-scoped and the rest of the diff continues.
func (e *Engine) applyIdentifiers(ctx context.Context, svc EntityService, entityKey uuid.UUID, rec *ParsedRecord) {
	existing, err := svc.ListIdentifiers(ctx, entityKey)
	if err != nil {
		rec.AddError(rowMessage(fmt.Errorf("list identifiers: %w", err)))
		return
	}

	wanted := rec.Entity.GetIdentifiers()
	match := func(a, b model.Identifier) bool {
		return a.Type == b.Type && a.Identifier == b.Identifier
	}

	for _, ex := range existing {
		found := false
		for _, w := range wanted {
			if match(ex, w) {
				found = true
				break
			}
		}
		if !found {
			if err := svc.DeleteIdentifier(ctx, entityKey, ex.Key); err != nil {
				rec.AddError(rowMessage(fmt.Errorf("delete identifier %s:%s: %w", ex.Type, ex.Identifier, err)))
			}
		}
	}

	for _, w := range wanted {
		present := false
		for _, ex := range existing {
			if match(ex, w) {
				present = true
				break
			}
		}
		if !present {
			if err := svc.AddIdentifier(ctx, entityKey, w); err != nil {
				rec.AddError(rowMessage(fmt.Errorf("add identifier %s:%s: %w", w.Type, w.Identifier, err)))
			}
		}
	}
}

// applyContacts diffs the parsed contacts of one entity against its stored
// contact persons. Stored contacts not referenced by the file are removed;
// keyless parsed contacts are matched by content fingerprint before being
// created, so resubmitting an unchanged file is a no-op.
func (e *Engine) applyContacts(ctx context.Context, svc EntityService, principal string, entityKey uuid.UUID, rec *ParsedRecord, parsed []*ParsedContact) {
	existing, err := svc.ListContacts(ctx, entityKey)
	if err != nil {
		rec.AddError(rowMessage(fmt.Errorf("list contacts: %w", err)))
		return
	}

	existingByFP := make(map[string]*model.Contact, len(existing))
	for i := range existing {
		existingByFP[Fingerprint(&existing[i])] = &existing[i]
	}

	keep := make(map[uuid.UUID]struct{}, len(parsed))
	type plan struct {
		pc     *ParsedContact
		update bool
	}
	var plans []plan

	for _, pc := range parsed {
		switch {
		case pc.Contact.Key != nil:
			keep[*pc.Contact.Key] = struct{}{}
			plans = append(plans, plan{pc: pc, update: true})
		default:
			if match, ok := existingByFP[Fingerprint(pc.Contact)]; ok && match.Key != nil {
				// identical content already stored, nothing to do
				keep[*match.Key] = struct{}{}
				pc.Contact.Key = match.Key
				continue
			}
			plans = append(plans, plan{pc: pc})
		}
	}

	for i := range existing {
		k := existing[i].Key
		if k == nil {
			continue
		}
		if _, ok := keep[*k]; !ok {
			if err := svc.RemoveContact(ctx, entityKey, *k); err != nil {
				rec.AddError(rowMessage(fmt.Errorf("remove contact %s: %w", k, err)))
			}
		}
	}

	for _, p := range plans {
		c := p.pc.Contact
		if p.update {
			c.ModifiedBy = principal
			if err := svc.UpdateContact(ctx, entityKey, c); err != nil {
				p.pc.AddError(rowMessage(fmt.Errorf("update contact: %w", err)))
			}
			continue
		}
		c.CreatedBy = principal
		c.ModifiedBy = principal
		key, err := svc.AddContact(ctx, entityKey, c)
		if err != nil {
			p.pc.AddError(rowMessage(fmt.Errorf("create contact: %w", err)))
			continue
		}
		c.Key = &key
	}
}
