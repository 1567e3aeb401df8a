package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/collectory/registry/internal/model"
	"golang.org/x/sync/semaphore"
)

// Service is the batch job orchestrator. Submit creates the persistent job
// record synchronously and runs the reconciliation pipeline on a bounded
// worker; callers observe progress by polling Get. The batch row is
// written exactly twice: on submission and on terminal completion.
type Service struct {
	batches BatchStore
	defs    map[model.EntityType]Definition
	cf      *ContactFields
	auth    Authorizer
	ident   IdentityProvider
	writer  *ResultWriter
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	log     *slog.Logger
}

// NewService creates the orchestrator. maxConcurrent bounds how many
// batches run at once; additional submissions queue on the semaphore.
func NewService(batches BatchStore, auth Authorizer, ident IdentityProvider, writer *ResultWriter, maxConcurrent int, defs ...Definition) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	s := &Service{
		batches: batches,
		defs:    make(map[model.EntityType]Definition, len(defs)),
		cf:      NewContactFields(),
		auth:    auth,
		ident:   ident,
		writer:  writer,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		log:     slog.Default(),
	}
	for _, d := range defs {
		s.defs[d.Type] = d
	}
	return s
}

// Submit accepts a batch and returns its job key immediately. contactsData
// may be nil when no contacts file was supplied.
func (s *Service) Submit(ctx context.Context, entityType model.EntityType, entitiesData, contactsData []byte, format Format) (int64, error) {
	def, ok := s.defs[entityType]
	if !ok {
		return 0, fmt.Errorf("unknown entity type: %s", entityType)
	}
	if len(entitiesData) == 0 {
		return 0, fmt.Errorf("empty entities file")
	}

	principal := s.ident.Principal(ctx)
	b := &model.Batch{
		EntityType: entityType,
		State:      model.BatchStateInProgress,
		CreatedBy:  principal,
	}
	if err := s.batches.Create(ctx, b); err != nil {
		return 0, fmt.Errorf("create batch record: %w", err)
	}

	s.wg.Add(1)
	go s.run(b, principal, def, entitiesData, contactsData, format)

	return b.Key, nil
}

// Get returns the batch record at any point in its lifecycle.
func (s *Service) Get(ctx context.Context, key int64) (*model.Batch, error) {
	return s.batches.Get(ctx, key)
}

// Wait blocks until all in-flight batches reach a terminal state. Used
// during shutdown.
func (s *Service) Wait() {
	s.wg.Wait()
}

// run executes one batch to its terminal state. The batch row is the only
// shared mutable object and is owned by this goroutine until Finish.
func (s *Service) run(b *model.Batch, principal string, def Definition, entitiesData, contactsData []byte, format Format) {
	defer s.wg.Done()

	ctx := context.Background()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.sem.Release(1)

	started := time.Now()
	state := model.BatchStateFinished

	func() {
		defer func() {
			if r := recover(); r != nil {
				b.Errors = append(b.Errors, fmt.Sprintf("batch run failed: %v", r))
				state = model.BatchStateFailed
			}
		}()
		if err := s.execute(ctx, b, principal, def, entitiesData, contactsData, format); err != nil {
			b.Errors = append(b.Errors, err.Error())
			state = model.BatchStateFailed
		}
	}()

	b.State = state
	now := time.Now()
	b.FinishedAt = &now
	if err := s.batches.Finish(ctx, b); err != nil {
		s.log.Error("persist batch terminal state", "batch", b.Key, "error", err)
		return
	}

	s.log.Info("batch finished",
		"batch", b.Key,
		"entity_type", b.EntityType,
		"state", b.State,
		"errors", len(b.Errors),
		"duration", time.Since(started),
	)
}

// execute runs parse, reconcile, and result-writing. Row-level problems
// land on the parsed records; only batch-fatal conditions return an error.
func (s *Service) execute(ctx context.Context, b *model.Batch, principal string, def Definition, entitiesData, contactsData []byte, format Format) error {
	entities, err := ParseEntities(entitiesData, format, def)
	if err != nil {
		return fmt.Errorf("parse entities file: %w", err)
	}
	b.Errors = append(b.Errors, entities.FileErrors...)

	// Duplicate entity keys make partial writes ambiguous, so the whole
	// batch is rejected before any create or update runs.
	if len(entities.Duplicates) > 0 {
		for _, d := range entities.Duplicates {
			b.Errors = append(b.Errors, fmt.Sprintf("duplicate entity key or code: %s", d))
		}
		return fmt.Errorf("duplicate keys found in entities file")
	}

	var contacts *ContactParseResult
	if len(contactsData) > 0 {
		contacts, err = ParseContacts(contactsData, format, s.cf, entities)
		if err != nil {
			return fmt.Errorf("parse contacts file: %w", err)
		}
		b.Errors = append(b.Errors, contacts.FileErrors...)
		for _, d := range contacts.Duplicates {
			b.Errors = append(b.Errors, fmt.Sprintf("duplicate contact key: %s", d))
		}
	}

	NewEngine(def, s.auth).Run(ctx, principal, entities, contacts)

	archive, err := s.writer.WriteArchive(b.Key, def, s.cf, entitiesData, entities, contactsData, contacts)
	if err != nil {
		return fmt.Errorf("write result archive: %w", err)
	}
	b.ResultFilePath = archive
	return nil
}
