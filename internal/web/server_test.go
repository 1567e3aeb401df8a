package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/collectory/registry/internal/batch"
	"github.com/collectory/registry/internal/config"
	"github.com/collectory/registry/internal/model"
	"github.com/collectory/registry/internal/store"
)

// memBatchStore is an in-memory batch.BatchStore for handler tests.
type memBatchStore struct {
	mu      sync.Mutex
	nextKey int64
	batches map[int64]model.Batch
}

func newMemBatchStore() *memBatchStore {
	return &memBatchStore{batches: make(map[int64]model.Batch)}
}

func (m *memBatchStore) Create(ctx context.Context, b *model.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextKey++
	b.Key = m.nextKey
	m.batches[b.Key] = *b
	return nil
}

func (m *memBatchStore) Finish(ctx context.Context, b *model.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.Key] = *b
	return nil
}

func (m *memBatchStore) Get(ctx context.Context, key int64) (*model.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[key]
	if !ok {
		return nil, store.ErrBatchNotFound
	}
	return &b, nil
}

// nullEntityService satisfies batch.EntityService with empty stored state.
type nullEntityService struct{}

func (nullEntityService) Exists(ctx context.Context, key uuid.UUID) (bool, error) {
	return false, nil
}
func (nullEntityService) Get(ctx context.Context, key uuid.UUID) (model.Entity, error) {
	return nil, store.ErrEntityNotFound
}
func (nullEntityService) Create(ctx context.Context, e model.Entity) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (nullEntityService) Update(ctx context.Context, e model.Entity) error { return nil }
func (nullEntityService) FindByCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	return nil, nil
}
func (nullEntityService) FindByAlternativeCode(ctx context.Context, code string) ([]uuid.UUID, error) {
	return nil, nil
}
func (nullEntityService) FindByIdentifier(ctx context.Context, idType model.IdentifierType, value string) ([]uuid.UUID, error) {
	return nil, nil
}
func (nullEntityService) ListIdentifiers(ctx context.Context, entityKey uuid.UUID) ([]model.Identifier, error) {
	return nil, nil
}
func (nullEntityService) AddIdentifier(ctx context.Context, entityKey uuid.UUID, id model.Identifier) error {
	return nil
}
func (nullEntityService) DeleteIdentifier(ctx context.Context, entityKey uuid.UUID, identifierKey int64) error {
	return nil
}
func (nullEntityService) ListContacts(ctx context.Context, entityKey uuid.UUID) ([]model.Contact, error) {
	return nil, nil
}
func (nullEntityService) AddContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) (uuid.UUID, error) {
	return uuid.New(), nil
}
func (nullEntityService) UpdateContact(ctx context.Context, entityKey uuid.UUID, c *model.Contact) error {
	return nil
}
func (nullEntityService) RemoveContact(ctx context.Context, entityKey, contactKey uuid.UUID) error {
	return nil
}

type allowAll struct{}

func (allowAll) AllowedToCreate(ctx context.Context, principal string, entityType model.EntityType, code string) (bool, error) {
	return true, nil
}
func (allowAll) AllowedToModify(ctx context.Context, principal string, entityType model.EntityType, key uuid.UUID) (bool, error) {
	return true, nil
}

type staticIdentity struct{ principal string }

func (s staticIdentity) Principal(ctx context.Context) string { return s.principal }

func newTestServer(t *testing.T) (*Server, *batch.Service) {
	t.Helper()
	writer, err := batch.NewResultWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewResultWriter() error = %v", err)
	}
	svc := batch.NewService(newMemBatchStore(), allowAll{}, staticIdentity{principal: "alice"},
		writer, 2,
		batch.NewInstitutionDefinition(nullEntityService{}),
		batch.NewCollectionDefinition(nullEntityService{}))

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Batch:  config.BatchConfig{MaxFileSize: 1 << 20},
	}
	return NewServer(cfg, svc, nullEntityService{}, nullEntityService{}), svc
}

func multipartUpload(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "upload.csv")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSubmitBatchLifecycle(t *testing.T) {
	s, svc := newTestServer(t)

	body, contentType := multipartUpload(t, "entitiesFile", "CODE,NAME\nnhm,Museum\n")
	req := httptest.NewRequest(http.MethodPost, "/api/batch/institution", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body)
	}
	var created struct {
		Key int64 `json:"key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	svc.Wait()

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/batch/%d", created.Key), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", rec.Code, rec.Body)
	}
	var b model.Batch
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if b.State != model.BatchStateFinished {
		t.Fatalf("State = %s, want %s (errors: %v)", b.State, model.BatchStateFinished, b.Errors)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/batch/%d/result", created.Key), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", ct)
	}
}

func TestSubmitBatch_UnknownEntityType(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "entitiesFile", "CODE\nnhm\n")
	req := httptest.NewRequest(http.MethodPost, "/api/batch/planet", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSubmitBatch_MissingEntitiesFile(t *testing.T) {
	s, _ := newTestServer(t)

	// Only a contacts file, no entities part.
	body, contentType := multipartUpload(t, "contactsFile", "FIRST_NAME\nAda\n")
	req := httptest.NewRequest(http.MethodPost, "/api/batch/institution", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetBatch_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/batch/999", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetEntity(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "unknown entity", path: "/api/institution/" + uuid.NewString(), want: http.StatusNotFound},
		{name: "bad key", path: "/api/collection/not-a-uuid", want: http.StatusBadRequest},
		{name: "unknown entity type", path: "/api/planet/" + uuid.NewString(), want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetBatch_InvalidKey(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/batch/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
