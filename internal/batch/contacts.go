package batch

// contacts.go parses the contacts file. Each contact row references its
// owning entity through the ENTITY_KEY or ENTITY_CODE column, whose value
// must match an entity natural key from the entities file. A contact's own
// natural key is its KEY column when populated; newly created contacts get
// a fingerprint hash over their populated fields instead, which doubles as
// accidental-duplicate detection for identical rows.

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/collectory/registry/internal/model"
)

// Contact file columns that reference the owning entity.
const (
	ColEntityKey  = "ENTITY_KEY"
	ColEntityCode = "ENTITY_CODE"
)

// Contact parser errors.
const (
	ErrNoEntityColumn = "no column with entity key or code"
	ErrInvalidEntity  = "invalid entity key or code"
)

type contactFieldDef struct {
	name  string
	parse func(c *model.Contact, raw string) []string
}

// ContactFields is the recognized column set for the contacts file,
// built once at component initialization.
type ContactFields struct {
	defs   []contactFieldDef
	byName map[string]int
	known  map[string]struct{}
}

// NewContactFields builds the contact file's field table.
func NewContactFields() *ContactFields {
	defs := []contactFieldDef{
		{"FIRST_NAME", func(c *model.Contact, raw string) []string { c.FirstName = raw; return nil }},
		{"LAST_NAME", func(c *model.Contact, raw string) []string { c.LastName = raw; return nil }},
		{"POSITION", func(c *model.Contact, raw string) []string { c.Position = AsList(raw); return nil }},
		{"PHONE", func(c *model.Contact, raw string) []string { c.Phone = AsList(raw); return nil }},
		{"FAX", func(c *model.Contact, raw string) []string { c.Fax = AsList(raw); return nil }},
		{"EMAIL", func(c *model.Contact, raw string) []string { c.Email = AsList(raw); return nil }},
		{"ADDRESS", func(c *model.Contact, raw string) []string { c.Address = AsList(raw); return nil }},
		{"CITY", func(c *model.Contact, raw string) []string { c.City = raw; return nil }},
		{"PROVINCE", func(c *model.Contact, raw string) []string { c.Province = raw; return nil }},
		{"COUNTRY", func(c *model.Contact, raw string) []string {
			v, ok, err := AsCountry(raw)
			if err != nil {
				return []string{issue("COUNTRY", err)}
			}
			if ok {
				c.Country = v
			}
			return nil
		}},
		{"POSTAL_CODE", func(c *model.Contact, raw string) []string { c.PostalCode = raw; return nil }},
		{"PRIMARY", func(c *model.Contact, raw string) []string {
			v, ok, err := AsBool(raw)
			if err != nil {
				return []string{issue("PRIMARY", err)}
			}
			if ok {
				c.Primary = v
			}
			return nil
		}},
		{"TAXONOMIC_EXPERTISE", func(c *model.Contact, raw string) []string { c.TaxonomicExpertise = AsList(raw); return nil }},
		{"NOTES", func(c *model.Contact, raw string) []string { c.Notes = raw; return nil }},
		{"USER_IDS", func(c *model.Contact, raw string) []string {
			v, errs := AsUserIDs(raw)
			c.UserIDs = v
			return issues("USER_IDS", errs)
		}},
	}

	cf := &ContactFields{
		defs:   defs,
		byName: make(map[string]int, len(defs)),
		known:  make(map[string]struct{}, len(defs)+4),
	}
	for i, d := range defs {
		cf.byName[d.name] = i
		cf.known[d.name] = struct{}{}
	}
	cf.known[ColKey] = struct{}{}
	cf.known[ColErrors] = struct{}{}
	cf.known[ColEntityKey] = struct{}{}
	cf.known[ColEntityCode] = struct{}{}
	return cf
}

// Known returns the set of recognized contact column names.
func (cf *ContactFields) Known() map[string]struct{} { return cf.known }

// Names returns the recognized contact data columns in canonical order.
func (cf *ContactFields) Names() []string {
	names := make([]string, 0, len(cf.defs)+2)
	names = append(names, ColEntityKey, ColEntityCode)
	for _, d := range cf.defs {
		names = append(names, d.name)
	}
	return names
}

// ParseRow interprets one contact row. Returned errors are row-scoped.
func (cf *ContactFields) ParseRow(r *Reader, row []string) (*model.Contact, []string) {
	c := &model.Contact{}
	var errs []string
	for name := range r.Header() {
		i, ok := cf.byName[name]
		if !ok {
			continue
		}
		errs = append(errs, cf.defs[i].parse(c, r.Cell(row, name))...)
	}
	if rawKey := r.Cell(row, ColKey); rawKey != "" {
		k, ok, err := AsUUID(rawKey)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ColKey, err))
		} else if ok {
			c.Key = &k
		}
	}
	return c, errs
}

// NaturalKey returns a contact row's natural key: the KEY cell when
// populated, otherwise the content fingerprint of the parsed row.
func (cf *ContactFields) NaturalKey(r *Reader, row []string) string {
	if k := r.Cell(row, ColKey); k != "" {
		return k
	}
	c, _ := cf.ParseRow(r, row)
	return Fingerprint(c)
}

// Fingerprint hashes a contact's populated fields into a stable content
// key, used to stand in for a missing KEY and to spot duplicate rows.
func Fingerprint(c *model.Contact) string {
	h := fnv.New64a()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(c.FirstName, c.LastName)
	write(c.Position...)
	write(c.Phone...)
	write(c.Fax...)
	write(c.Email...)
	write(c.Address...)
	write(c.City, c.Province, string(c.Country), c.PostalCode)
	write(strconv.FormatBool(c.Primary))
	write(c.TaxonomicExpertise...)
	write(c.Notes)
	for _, u := range c.UserIDs {
		write(string(u.Type), u.ID)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// ParseContacts parses a contacts file against an already-parsed entities
// file. Rows whose owning entity cannot be resolved keep their error but
// are excluded from reconciliation. Duplicate contact keys are recorded
// and do not block the batch; the first occurrence wins.
func ParseContacts(data []byte, format Format, cf *ContactFields, entities *ParseResult) (*ContactParseResult, error) {
	r, fileErrs, err := NewReader(data, format, cf.Known())
	if err != nil {
		return nil, err
	}

	result := &ContactParseResult{
		Format:     format,
		ByOwner:    make(map[string][]*ParsedContact),
		ByKey:      make(map[string]*ParsedContact),
		Header:     r.Header(),
		FileErrors: fileErrs,
	}

	hasOwnerColumn := r.Header().Has(ColEntityKey) || r.Header().Has(ColEntityCode)
	if !hasOwnerColumn {
		result.FileErrors = append(result.FileErrors, ErrNoEntityColumn)
	}

	for {
		row, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		contact, rowErrs := cf.ParseRow(r, row)
		pc := &ParsedContact{Contact: contact, Errors: rowErrs}

		if pc.Key = r.Cell(row, ColKey); pc.Key == "" {
			pc.Key = Fingerprint(contact)
		}

		// Without an owner column every row is dropped from
		// reconciliation but still indexed so its error reaches the
		// contact result file.
		if !hasOwnerColumn {
			pc.AddError(ErrNoEntityColumn)
			if _, seen := result.ByKey[pc.Key]; !seen {
				result.ByKey[pc.Key] = pc
			}
			continue
		}

		ownerRef := r.Cell(row, ColEntityKey)
		if ownerRef == "" {
			ownerRef = r.Cell(row, ColEntityCode)
		}

		owner, found := entities.Records[ownerRef]
		if !found || strings.TrimSpace(ownerRef) == "" {
			pc.AddError(ErrInvalidEntity)
			// still indexed by key so its errors reach the result file
			if _, seen := result.ByKey[pc.Key]; !seen {
				result.ByKey[pc.Key] = pc
			}
			continue
		}
		pc.OwnerKey = owner.Key

		if _, seen := result.ByKey[pc.Key]; seen {
			result.Duplicates = append(result.Duplicates, pc.Key)
			continue
		}
		result.ByKey[pc.Key] = pc
		result.ByOwner[pc.OwnerKey] = append(result.ByOwner[pc.OwnerKey], pc)
	}

	return result, nil
}
