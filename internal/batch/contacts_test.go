package batch

import (
	"testing"

	"github.com/collectory/registry/internal/model"
)

func parsedEntities(t *testing.T, data string) *ParseResult {
	t.Helper()
	result, err := ParseEntities([]byte(data), FormatCSV, instDef())
	if err != nil {
		t.Fatalf("ParseEntities() error = %v", err)
	}
	return result
}

func TestParseContacts_MissingEntityColumn(t *testing.T) {
	entities := parsedEntities(t, "CODE\nnhm\n")
	data := "FIRST_NAME,LAST_NAME\nAda,Lovelace\nCharles,Babbage\n"

	result, err := ParseContacts([]byte(data), FormatCSV, NewContactFields(), entities)
	if err != nil {
		t.Fatalf("ParseContacts() error = %v", err)
	}

	if len(result.FileErrors) != 1 || result.FileErrors[0] != ErrNoEntityColumn {
		t.Fatalf("FileErrors = %v, want [%q]", result.FileErrors, ErrNoEntityColumn)
	}

	// Every row is dropped from reconciliation but still indexed with
	// the error so it reaches the contact result file.
	if len(result.ByOwner) != 0 {
		t.Errorf("ByOwner = %v, want no rows reconciled without an entity column", result.ByOwner)
	}
	if len(result.ByKey) != 2 {
		t.Fatalf("ByKey has %d rows, want both rows indexed", len(result.ByKey))
	}
	for _, pc := range result.ByKey {
		if len(pc.Errors) != 1 || pc.Errors[0] != ErrNoEntityColumn {
			t.Errorf("errors = %v, want [%q]", pc.Errors, ErrNoEntityColumn)
		}
	}
}

func TestParseContacts_OwnerResolution(t *testing.T) {
	entities := parsedEntities(t, "CODE\nnhm\nku\n")
	data := "ENTITY_CODE,FIRST_NAME,LAST_NAME,EMAIL\n" +
		"nhm,Ada,Lovelace,ada@example.org\n" +
		"ku,Charles,Babbage,charles@example.org\n"

	result, err := ParseContacts([]byte(data), FormatCSV, NewContactFields(), entities)
	if err != nil {
		t.Fatalf("ParseContacts() error = %v", err)
	}

	if len(result.ByOwner["nhm"]) != 1 || len(result.ByOwner["ku"]) != 1 {
		t.Fatalf("ByOwner = %v, want one contact per entity", result.ByOwner)
	}
	c := result.ByOwner["nhm"][0].Contact
	if c.FirstName != "Ada" || len(c.Email) != 1 {
		t.Errorf("contact = %+v, want parsed fields", c)
	}
}

func TestParseContacts_UnresolvableOwner(t *testing.T) {
	entities := parsedEntities(t, "CODE\nnhm\n")
	data := "ENTITY_CODE,FIRST_NAME\nmissing,Ada\n"

	result, err := ParseContacts([]byte(data), FormatCSV, NewContactFields(), entities)
	if err != nil {
		t.Fatalf("ParseContacts() error = %v", err)
	}

	// The row is excluded from reconciliation but its error must still
	// reach the result file, so it stays indexed by key.
	if len(result.ByOwner) != 0 {
		t.Errorf("ByOwner = %v, want empty", result.ByOwner)
	}
	if len(result.ByKey) != 1 {
		t.Fatalf("ByKey = %v, want the row indexed by key", result.ByKey)
	}
	for _, pc := range result.ByKey {
		if len(pc.Errors) != 1 || pc.Errors[0] != ErrInvalidEntity {
			t.Errorf("errors = %v, want [%q]", pc.Errors, ErrInvalidEntity)
		}
	}
}

func TestParseContacts_DuplicateKeyFirstWins(t *testing.T) {
	entities := parsedEntities(t, "CODE\nnhm\n")
	key := "0d2f1a30-6a68-4cb1-8c37-4a0f9a2a3e85"
	data := "ENTITY_CODE,KEY,FIRST_NAME\n" +
		"nhm," + key + ",Ada\n" +
		"nhm," + key + ",Someone Else\n"

	result, err := ParseContacts([]byte(data), FormatCSV, NewContactFields(), entities)
	if err != nil {
		t.Fatalf("ParseContacts() error = %v", err)
	}

	if len(result.Duplicates) != 1 || result.Duplicates[0] != key {
		t.Fatalf("Duplicates = %v, want [%s]", result.Duplicates, key)
	}
	if result.ByKey[key].Contact.FirstName != "Ada" {
		t.Errorf("FirstName = %q, want the first occurrence", result.ByKey[key].Contact.FirstName)
	}
	if len(result.ByOwner["nhm"]) != 1 {
		t.Errorf("ByOwner[nhm] = %v, duplicate must not be reconciled twice", result.ByOwner["nhm"])
	}
}

func TestParseContacts_IdenticalKeylessRowsAreDuplicates(t *testing.T) {
	entities := parsedEntities(t, "CODE\nnhm\n")
	data := "ENTITY_CODE,FIRST_NAME,LAST_NAME\nnhm,Ada,Lovelace\nnhm,Ada,Lovelace\n"

	result, err := ParseContacts([]byte(data), FormatCSV, NewContactFields(), entities)
	if err != nil {
		t.Fatalf("ParseContacts() error = %v", err)
	}

	// Keyless rows are keyed by content fingerprint, so byte-identical
	// rows collapse into one.
	if len(result.Duplicates) != 1 {
		t.Errorf("Duplicates = %v, want identical rows flagged", result.Duplicates)
	}
	if len(result.ByOwner["nhm"]) != 1 {
		t.Errorf("ByOwner[nhm] has %d contacts, want 1", len(result.ByOwner["nhm"]))
	}
}

// ----------------------------------------------------------------------------
// Fingerprint
// ----------------------------------------------------------------------------

func TestFingerprint(t *testing.T) {
	a := &model.Contact{FirstName: "Ada", LastName: "Lovelace", Email: []string{"ada@example.org"}}
	b := &model.Contact{FirstName: "Ada", LastName: "Lovelace", Email: []string{"ada@example.org"}}
	c := &model.Contact{FirstName: "Ada", LastName: "Byron", Email: []string{"ada@example.org"}}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical contacts must share a fingerprint")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different contacts must not share a fingerprint")
	}
}

func TestFingerprint_FieldBoundaries(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must hash differently.
	a := &model.Contact{FirstName: "ab", LastName: "c"}
	b := &model.Contact{FirstName: "a", LastName: "bc"}
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("field boundaries must separate hashed values")
	}
}
