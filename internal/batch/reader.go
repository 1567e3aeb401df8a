package batch

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Reader walks the data rows of a tabular file. The header row is consumed
// at construction; Next returns rows right-padded to the header width so
// short physical rows never fail. Re-reading a file means constructing a
// new Reader over the same bytes.
type Reader struct {
	cr     *csv.Reader
	header []string
	index  HeaderIndex
}

// NewReader parses the header row of data and resolves it against the set
// of recognized column names for the entity type. Unrecognized headers are
// returned as file-level errors, one per column; they are not fatal.
func NewReader(data []byte, format Format, known map[string]struct{}) (*Reader, []string, error) {
	cr := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	cr.Comma = format.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, fmt.Errorf("empty file")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	r := &Reader{
		cr:     cr,
		header: header,
		index:  make(HeaderIndex, len(header)),
	}

	var fileErrs []string
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			fileErrs = append(fileErrs, fmt.Sprintf("unknown column %s", name))
			continue
		}
		r.index[name] = i
	}

	return r, fileErrs, nil
}

// Header returns the index of recognized columns.
func (r *Reader) Header() HeaderIndex {
	return r.index
}

// Width returns the number of physical header columns.
func (r *Reader) Width() int {
	return len(r.header)
}

// Next returns the next data row, padded to the header width. Blank lines
// are skipped. ok is false at end of input.
func (r *Reader) Next() (row []string, ok bool, err error) {
	for {
		rec, err := r.cr.Read()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("read row: %w", err)
		}
		if isBlankRow(rec) {
			continue
		}
		return padRow(rec, len(r.header)), true, nil
	}
}

// Cell returns the value of the named column in row, or "" if the column
// was not in the file.
func (r *Reader) Cell(row []string, name string) string {
	pos, ok := r.index[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func padRow(rec []string, width int) []string {
	if len(rec) >= width {
		return rec
	}
	padded := make([]string, width)
	copy(padded, rec)
	return padded
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the Unicode
// replacement character so csv parsing never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
