package batch

import (
	"fmt"
)

// ErrNoKeyOrCode is the row error recorded when a row carries neither a
// KEY nor a CODE value.
const ErrNoKeyOrCode = "no key or code found"

// ParseEntities parses an entities file into typed records keyed by their
// natural key: the KEY column when populated, otherwise the CODE column.
// Rows are kept in file order. When a natural key appears more than once
// the first occurrence stays in Records and the key is recorded in
// Duplicates; callers treat any entity duplicate as batch-fatal.
func ParseEntities(data []byte, format Format, def Definition) (*ParseResult, error) {
	r, fileErrs, err := NewReader(data, format, def.Fields.Known())
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Format:     format,
		Records:    make(map[string]*ParsedRecord),
		Header:     r.Header(),
		FileErrors: fileErrs,
	}

	for {
		row, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		rec := parseEntityRow(r, row, def)
		if rec.Key == "" {
			rec.AddError(ErrNoKeyOrCode)
		}

		if _, seen := result.Records[rec.Key]; seen {
			// Rows sharing the empty natural key share no real key, so
			// they stay row-level errors instead of batch-fatal
			// duplicates.
			if rec.Key != "" {
				result.Duplicates = append(result.Duplicates, rec.Key)
			}
			continue
		}
		result.Records[rec.Key] = rec
		result.Order = append(result.Order, rec.Key)
	}

	return result, nil
}

// parseEntityRow interprets every recognized column present in the header
// onto a fresh entity and extracts the row's natural key.
func parseEntityRow(r *Reader, row []string, def Definition) *ParsedRecord {
	entity := def.New()
	rec := &ParsedRecord{Entity: entity}

	for name := range r.Header() {
		fd, ok := def.Fields.Get(name)
		if !ok {
			continue // KEY and ERRORS have no field behavior
		}
		raw := r.Cell(row, name)
		rec.Errors = append(rec.Errors, fd.Parse(entity, raw)...)
	}

	rawKey := r.Cell(row, ColKey)
	if rawKey != "" {
		rec.HasKeyCell = true
		k, ok, err := AsUUID(rawKey)
		if err != nil {
			rec.AddError(fmt.Sprintf("%s: %v", ColKey, err))
		} else if ok {
			entity.SetKey(&k)
		}
	}

	rec.Key = NaturalKey(r, row)
	return rec
}

// NaturalKey extracts a row's natural key: the KEY cell when populated,
// otherwise the CODE cell. The result writer uses the same rule to
// correlate output rows back to parsed records.
func NaturalKey(r *Reader, row []string) string {
	if k := r.Cell(row, ColKey); k != "" {
		return k
	}
	return r.Cell(row, ColCode)
}
