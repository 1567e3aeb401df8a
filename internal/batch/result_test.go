package batch

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestWriter(t *testing.T) *ResultWriter {
	t.Helper()
	w, err := NewResultWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewResultWriter() error = %v", err)
	}
	return w
}

// readArchive opens the zip and returns its entries parsed as csv, keyed
// by file name with the timestamp portion stripped.
func readArchive(t *testing.T, path string) map[string][][]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive %s: %v", path, err)
	}
	defer zr.Close()

	out := make(map[string][][]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open zip entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read zip entry %s: %v", f.Name, err)
		}
		rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("parse zip entry %s: %v", f.Name, err)
		}
		name := f.Name[:strings.IndexByte(f.Name, '-')]
		out[name] = rows
	}
	return out
}

func colIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func TestWriteArchive_EntityRows(t *testing.T) {
	w := newTestWriter(t)
	def := NewInstitutionDefinition(nil)

	data := []byte("CODE,NAME\nnhm,Museum\nku,University\n")
	parsed, err := ParseEntities(data, FormatCSV, def)
	if err != nil {
		t.Fatalf("ParseEntities() error = %v", err)
	}

	// Simulate the engine: first row created and keyed, second row failed.
	created := uuid.New()
	parsed.Records["nhm"].Entity.SetKey(&created)
	parsed.Records["ku"].AddError("something went wrong")

	archive, err := w.WriteArchive(42, def, NewContactFields(), data, parsed, nil, nil)
	if err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	if base := filepath.Base(archive); !strings.HasPrefix(base, "batch-42-") || !strings.HasSuffix(base, ".zip") {
		t.Errorf("archive name = %q, want batch-42-<ts>.zip", base)
	}

	entries := readArchive(t, archive)
	rows, ok := entries["result"]
	if !ok {
		t.Fatalf("archive entries = %v, want a result file", entries)
	}
	if len(rows) != 3 {
		t.Fatalf("result rows = %d, want header plus two data rows", len(rows))
	}

	header := rows[0]
	keyCol := colIndex(header, ColKey)
	errCol := colIndex(header, ColErrors)
	if keyCol != len(header)-2 || errCol != len(header)-1 {
		t.Fatalf("header = %v, want KEY and ERRORS as the last two columns", header)
	}
	if colIndex(header, "CODE") < 0 || colIndex(header, "NAME") < 0 {
		t.Fatalf("header = %v, want the file's recognized columns", header)
	}

	// Rows come back in input order with keys and errors annotated.
	if rows[1][colIndex(header, "CODE")] != "nhm" || rows[2][colIndex(header, "CODE")] != "ku" {
		t.Errorf("rows = %v, want input order preserved", rows[1:])
	}
	if rows[1][keyCol] != created.String() {
		t.Errorf("key cell = %q, want generated key %s", rows[1][keyCol], created)
	}
	if rows[2][keyCol] != "" {
		t.Errorf("key cell = %q, want empty for unkeyed failed row", rows[2][keyCol])
	}
	if rows[2][errCol] != "something went wrong" {
		t.Errorf("errors cell = %q", rows[2][errCol])
	}
}

func TestWriteArchive_KeyColumnPassedThrough(t *testing.T) {
	w := newTestWriter(t)
	def := NewInstitutionDefinition(nil)

	key := "7e2f58b0-5a92-4e04-b0ee-5bf6b2340b62"
	data := []byte("KEY,CODE\n" + key + ",nhm\n")
	parsed, err := ParseEntities(data, FormatCSV, def)
	if err != nil {
		t.Fatalf("ParseEntities() error = %v", err)
	}

	archive, err := w.WriteArchive(7, def, NewContactFields(), data, parsed, nil, nil)
	if err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}

	rows := readArchive(t, archive)["result"]
	keyCol := colIndex(rows[0], ColKey)
	if rows[1][keyCol] != key {
		t.Errorf("key cell = %q, want original KEY cell passed through", rows[1][keyCol])
	}
}

func TestWriteArchive_IncludesContactsFile(t *testing.T) {
	w := newTestWriter(t)
	def := NewInstitutionDefinition(nil)

	entityData := []byte("CODE,NAME\nnhm,Museum\n")
	parsed, err := ParseEntities(entityData, FormatCSV, def)
	if err != nil {
		t.Fatalf("ParseEntities() error = %v", err)
	}

	contactData := []byte("ENTITY_CODE,FIRST_NAME\nnhm,Ada\n")
	contacts, err := ParseContacts(contactData, FormatCSV, NewContactFields(), parsed)
	if err != nil {
		t.Fatalf("ParseContacts() error = %v", err)
	}

	archive, err := w.WriteArchive(9, def, NewContactFields(), entityData, parsed, contactData, contacts)
	if err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}

	entries := readArchive(t, archive)
	rows, ok := entries["contacts"]
	if !ok {
		t.Fatalf("archive entries = %v, want a contacts file", entries)
	}
	if len(rows) != 2 {
		t.Fatalf("contact rows = %d, want header plus one data row", len(rows))
	}
	if rows[1][colIndex(rows[0], "FIRST_NAME")] != "Ada" {
		t.Errorf("contact row = %v, want original cells re-emitted", rows[1])
	}
}

func TestWriteArchive_RemovesIntermediateFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewResultWriter(dir)
	if err != nil {
		t.Fatalf("NewResultWriter() error = %v", err)
	}
	def := NewInstitutionDefinition(nil)

	data := []byte("CODE\nnhm\n")
	parsed, err := ParseEntities(data, FormatCSV, def)
	if err != nil {
		t.Fatalf("ParseEntities() error = %v", err)
	}
	if _, err := w.WriteArchive(1, def, NewContactFields(), data, parsed, nil, nil); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "result-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("intermediate files left behind: %v", leftovers)
	}
}
