package batch

import (
	"strings"
	"testing"
)

func testKnown(names ...string) map[string]struct{} {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	return known
}

func TestNewReader_HeaderResolution(t *testing.T) {
	data := []byte("code, Name ,MYSTERY\nc1,First,x\n")
	r, fileErrs, err := NewReader(data, FormatCSV, testKnown("CODE", "NAME"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	// Headers are matched case-insensitively after trimming.
	if !r.Header().Has("CODE") || !r.Header().Has("NAME") {
		t.Errorf("header = %v, want CODE and NAME recognized", r.Header())
	}

	// Unknown columns are file-level errors, not fatal.
	if len(fileErrs) != 1 || !strings.Contains(fileErrs[0], "MYSTERY") {
		t.Errorf("fileErrs = %v, want one unknown column error for MYSTERY", fileErrs)
	}
}

func TestNewReader_EmptyFile(t *testing.T) {
	_, _, err := NewReader([]byte(""), FormatCSV, testKnown("CODE"))
	if err == nil {
		t.Fatal("NewReader() expected error for empty file")
	}
}

func TestReader_ShortRowsPadded(t *testing.T) {
	data := []byte("CODE,NAME,CITY\nc1,First\n")
	r, _, err := NewReader(data, FormatCSV, testKnown("CODE", "NAME", "CITY"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	row, ok, err := r.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, %v", row, ok, err)
	}
	if len(row) != 3 {
		t.Fatalf("row length = %d, want padded to 3", len(row))
	}
	if r.Cell(row, "CITY") != "" {
		t.Errorf("Cell(CITY) = %q, want empty", r.Cell(row, "CITY"))
	}
}

func TestReader_SkipsBlankRows(t *testing.T) {
	data := []byte("CODE,NAME\nc1,First\n,\n  ,  \nc2,Second\n")
	r, _, err := NewReader(data, FormatCSV, testKnown("CODE", "NAME"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	var codes []string
	for {
		row, ok, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if !ok {
			break
		}
		codes = append(codes, r.Cell(row, "CODE"))
	}
	if len(codes) != 2 || codes[0] != "c1" || codes[1] != "c2" {
		t.Errorf("codes = %v, want [c1 c2]", codes)
	}
}

func TestReader_TSV(t *testing.T) {
	data := []byte("CODE\tNAME\nc1\tFirst, with comma\n")
	r, _, err := NewReader(data, FormatTSV, testKnown("CODE", "NAME"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	row, ok, _ := r.Next()
	if !ok {
		t.Fatal("Next() returned no row")
	}
	if got := r.Cell(row, "NAME"); got != "First, with comma" {
		t.Errorf("Cell(NAME) = %q, want comma preserved in tsv", got)
	}
}

func TestReader_CellMissingColumn(t *testing.T) {
	data := []byte("CODE\nc1\n")
	r, _, err := NewReader(data, FormatCSV, testKnown("CODE", "NAME"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	row, _, _ := r.Next()
	if got := r.Cell(row, "NAME"); got != "" {
		t.Errorf("Cell(NAME) = %q, want empty for absent column", got)
	}
}

func TestSanitizeUTF8(t *testing.T) {
	// Invalid byte sequences are replaced, never fatal.
	data := append([]byte("CODE,NAME\nc1,caf"), 0xe9, '\n')
	r, _, err := NewReader(data, FormatCSV, testKnown("CODE", "NAME"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	row, ok, err := r.Next()
	if err != nil || !ok {
		t.Fatalf("Next() = %v, %v, %v", row, ok, err)
	}
	if got := r.Cell(row, "NAME"); !strings.HasPrefix(got, "caf") {
		t.Errorf("Cell(NAME) = %q, want caf prefix preserved", got)
	}
}
