package batch

// fields.go defines the recognized column set for each entity type as an
// explicit field table: per column, a parse function that interprets the
// raw cell onto the typed entity, and a merge function that copies the
// parsed value onto a stored entity. Updates are column-scoped: only the
// columns present in a file's header are merged, so fields the file never
// mentions keep their stored values. The address and mailing-address column
// groups merge as a unit, inheriting the stored address key so the nested
// address row keeps its identity.

import (
	"fmt"

	"github.com/collectory/registry/internal/model"
)

// Column names shared by both entity files.
const (
	ColKey    = "KEY"
	ColCode   = "CODE"
	ColErrors = "ERRORS"
)

// FieldDef binds one recognized column to its parse and merge behavior.
type FieldDef struct {
	Name  string
	Parse func(e model.Entity, raw string) []string
	Merge func(dst, src model.Entity)
}

// FieldTable holds an entity type's recognized columns in canonical order.
// Tables are built once per Definition; they hold no mutable state.
type FieldTable struct {
	defs   []FieldDef
	byName map[string]int
	known  map[string]struct{}
}

func newFieldTable(defs []FieldDef) *FieldTable {
	t := &FieldTable{
		defs:   defs,
		byName: make(map[string]int, len(defs)),
		known:  make(map[string]struct{}, len(defs)+2),
	}
	for i, d := range defs {
		t.byName[d.Name] = i
		t.known[d.Name] = struct{}{}
	}
	// KEY and ERRORS are always recognized: KEY drives the natural key and
	// ERRORS appears in resubmitted result files.
	t.known[ColKey] = struct{}{}
	t.known[ColErrors] = struct{}{}
	return t
}

// Known returns the set of recognized column names, including KEY and ERRORS.
func (t *FieldTable) Known() map[string]struct{} { return t.known }

// Names returns the recognized data columns in canonical order (KEY and
// ERRORS excluded; the result writer appends those at the end).
func (t *FieldTable) Names() []string {
	names := make([]string, len(t.defs))
	for i, d := range t.defs {
		names[i] = d.Name
	}
	return names
}

// Get returns the field definition for a column name.
func (t *FieldTable) Get(name string) (FieldDef, bool) {
	i, ok := t.byName[name]
	if !ok {
		return FieldDef{}, false
	}
	return t.defs[i], true
}

func issue(col string, err error) string {
	return fmt.Sprintf("%s: %v", col, err)
}

func issues(col string, errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, issue(col, err))
	}
	return out
}

// ensureAddress returns the entity's visiting address, creating it if nil.
func ensureAddress(e model.Entity) *model.Address {
	if a := e.GetAddress(); a != nil {
		return a
	}
	a := &model.Address{}
	e.SetAddress(a)
	return a
}

func ensureMailingAddress(e model.Entity) *model.Address {
	if a := e.GetMailingAddress(); a != nil {
		return a
	}
	a := &model.Address{}
	e.SetMailingAddress(a)
	return a
}

// mergeAddressGroup copies the parsed visiting address onto the stored
// entity as a unit. A stored address key survives the overwrite.
func mergeAddressGroup(dst, src model.Entity) {
	merged := src.GetAddress()
	if existing := dst.GetAddress(); existing != nil && existing.Key != 0 && merged != nil {
		merged.Key = existing.Key
	}
	dst.SetAddress(merged)
}

func mergeMailingGroup(dst, src model.Entity) {
	merged := src.GetMailingAddress()
	if existing := dst.GetMailingAddress(); existing != nil && existing.Key != 0 && merged != nil {
		merged.Key = existing.Key
	}
	dst.SetMailingAddress(merged)
}

// addressDefs returns the visiting and mailing address column groups, which
// both entity types share.
func addressDefs() []FieldDef {
	group := func(name string, set func(a *model.Address, raw string) []string, ensure func(model.Entity) *model.Address, merge func(dst, src model.Entity)) FieldDef {
		return FieldDef{
			Name: name,
			Parse: func(e model.Entity, raw string) []string {
				if raw == "" {
					return nil
				}
				return set(ensure(e), raw)
			},
			Merge: merge,
		}
	}
	setLine := func(a *model.Address, raw string) []string { a.Address = raw; return nil }
	setCity := func(a *model.Address, raw string) []string { a.City = raw; return nil }
	setProvince := func(a *model.Address, raw string) []string { a.Province = raw; return nil }
	setPostal := func(a *model.Address, raw string) []string { a.PostalCode = raw; return nil }

	countrySet := func(col string) func(a *model.Address, raw string) []string {
		return func(a *model.Address, raw string) []string {
			c, ok, err := AsCountry(raw)
			if err != nil {
				return []string{issue(col, err)}
			}
			if ok {
				a.Country = c
			}
			return nil
		}
	}

	return []FieldDef{
		group("ADDRESS", setLine, ensureAddress, mergeAddressGroup),
		group("CITY", setCity, ensureAddress, mergeAddressGroup),
		group("PROVINCE", setProvince, ensureAddress, mergeAddressGroup),
		group("POSTAL_CODE", setPostal, ensureAddress, mergeAddressGroup),
		group("COUNTRY", countrySet("COUNTRY"), ensureAddress, mergeAddressGroup),
		group("MAILING_ADDRESS", setLine, ensureMailingAddress, mergeMailingGroup),
		group("MAILING_CITY", setCity, ensureMailingAddress, mergeMailingGroup),
		group("MAILING_PROVINCE", setProvince, ensureMailingAddress, mergeMailingGroup),
		group("MAILING_POSTAL_CODE", setPostal, ensureMailingAddress, mergeMailingGroup),
		group("MAILING_COUNTRY", countrySet("MAILING_COUNTRY"), ensureMailingAddress, mergeMailingGroup),
	}
}

// instField adapts typed institution parse/merge funcs to FieldDef.
func instField(name string, parse func(i *model.Institution, raw string) []string, merge func(dst, src *model.Institution)) FieldDef {
	return FieldDef{
		Name: name,
		Parse: func(e model.Entity, raw string) []string {
			return parse(e.(*model.Institution), raw)
		},
		Merge: func(dst, src model.Entity) {
			merge(dst.(*model.Institution), src.(*model.Institution))
		},
	}
}

// NewInstitutionFields builds the institution file's field table.
func NewInstitutionFields() *FieldTable {
	defs := []FieldDef{
		instField(ColCode,
			func(i *model.Institution, raw string) []string { i.Code = raw; return nil },
			func(dst, src *model.Institution) { dst.Code = src.Code }),
		instField("NAME",
			func(i *model.Institution, raw string) []string { i.Name = raw; return nil },
			func(dst, src *model.Institution) { dst.Name = src.Name }),
		instField("DESCRIPTION",
			func(i *model.Institution, raw string) []string { i.Description = raw; return nil },
			func(dst, src *model.Institution) { dst.Description = src.Description }),
		instField("TYPE",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsEnum(raw, model.ParseInstitutionType)
				if err != nil {
					return []string{issue("TYPE", err)}
				}
				if ok {
					i.Type = v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.Type = src.Type }),
		instField("ACTIVE",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsBool(raw)
				if err != nil {
					return []string{issue("ACTIVE", err)}
				}
				if ok {
					i.Active = v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.Active = src.Active }),
		instField("EMAIL",
			func(i *model.Institution, raw string) []string { i.Email = AsList(raw); return nil },
			func(dst, src *model.Institution) { dst.Email = src.Email }),
		instField("PHONE",
			func(i *model.Institution, raw string) []string { i.Phone = AsList(raw); return nil },
			func(dst, src *model.Institution) { dst.Phone = src.Phone }),
		instField("HOMEPAGE",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsURI(raw)
				if err != nil {
					return []string{issue("HOMEPAGE", err)}
				}
				if ok {
					i.Homepage = v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.Homepage = src.Homepage }),
		instField("CATALOG_URL",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsURI(raw)
				if err != nil {
					return []string{issue("CATALOG_URL", err)}
				}
				if ok {
					i.CatalogURL = v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.CatalogURL = src.CatalogURL }),
		instField("API_URL",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsURI(raw)
				if err != nil {
					return []string{issue("API_URL", err)}
				}
				if ok {
					i.APIURL = v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.APIURL = src.APIURL }),
		instField("DISCIPLINES",
			func(i *model.Institution, raw string) []string {
				v, errs := AsEnumList(raw, model.ParseDiscipline)
				i.Disciplines = v
				return issues("DISCIPLINES", errs)
			},
			func(dst, src *model.Institution) { dst.Disciplines = src.Disciplines }),
		instField("LATITUDE",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsDecimal(raw)
				if err != nil {
					return []string{issue("LATITUDE", err)}
				}
				if ok {
					i.Latitude = &v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.Latitude = src.Latitude }),
		instField("LONGITUDE",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsDecimal(raw)
				if err != nil {
					return []string{issue("LONGITUDE", err)}
				}
				if ok {
					i.Longitude = &v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.Longitude = src.Longitude }),
		instField("ADDITIONAL_NAMES",
			func(i *model.Institution, raw string) []string { i.AdditionalNames = AsList(raw); return nil },
			func(dst, src *model.Institution) { dst.AdditionalNames = src.AdditionalNames }),
		instField("FOUNDING_DATE",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsInt(raw)
				if err != nil {
					return []string{issue("FOUNDING_DATE", err)}
				}
				if ok {
					i.FoundingDate = &v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.FoundingDate = src.FoundingDate }),
		instField("NUMBER_SPECIMENS",
			func(i *model.Institution, raw string) []string {
				v, ok, err := AsInt(raw)
				if err != nil {
					return []string{issue("NUMBER_SPECIMENS", err)}
				}
				if ok {
					i.NumberSpecimens = &v
				}
				return nil
			},
			func(dst, src *model.Institution) { dst.NumberSpecimens = src.NumberSpecimens }),
		instField("ALTERNATIVE_CODES",
			func(i *model.Institution, raw string) []string {
				v, errs := AsAlternativeCodes(raw)
				i.AlternativeCodes = v
				return issues("ALTERNATIVE_CODES", errs)
			},
			func(dst, src *model.Institution) { dst.AlternativeCodes = src.AlternativeCodes }),
		instField("IDENTIFIERS",
			func(i *model.Institution, raw string) []string {
				v, errs := AsIdentifiers(raw)
				i.Identifiers = v
				return issues("IDENTIFIERS", errs)
			},
			func(dst, src *model.Institution) { dst.Identifiers = src.Identifiers }),
	}
	defs = append(defs, addressDefs()...)
	return newFieldTable(defs)
}

// collField adapts typed collection parse/merge funcs to FieldDef.
func collField(name string, parse func(c *model.Collection, raw string) []string, merge func(dst, src *model.Collection)) FieldDef {
	return FieldDef{
		Name: name,
		Parse: func(e model.Entity, raw string) []string {
			return parse(e.(*model.Collection), raw)
		},
		Merge: func(dst, src model.Entity) {
			merge(dst.(*model.Collection), src.(*model.Collection))
		},
	}
}

// NewCollectionFields builds the collection file's field table.
func NewCollectionFields() *FieldTable {
	defs := []FieldDef{
		collField(ColCode,
			func(c *model.Collection, raw string) []string { c.Code = raw; return nil },
			func(dst, src *model.Collection) { dst.Code = src.Code }),
		collField("NAME",
			func(c *model.Collection, raw string) []string { c.Name = raw; return nil },
			func(dst, src *model.Collection) { dst.Name = src.Name }),
		collField("DESCRIPTION",
			func(c *model.Collection, raw string) []string { c.Description = raw; return nil },
			func(dst, src *model.Collection) { dst.Description = src.Description }),
		collField("CONTENT_TYPES",
			func(c *model.Collection, raw string) []string {
				v, errs := AsEnumList(raw, model.ParseCollectionContentType)
				c.ContentTypes = v
				return issues("CONTENT_TYPES", errs)
			},
			func(dst, src *model.Collection) { dst.ContentTypes = src.ContentTypes }),
		collField("ACTIVE",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsBool(raw)
				if err != nil {
					return []string{issue("ACTIVE", err)}
				}
				if ok {
					c.Active = v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.Active = src.Active }),
		collField("PERSONAL_COLLECTION",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsBool(raw)
				if err != nil {
					return []string{issue("PERSONAL_COLLECTION", err)}
				}
				if ok {
					c.PersonalCollection = v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.PersonalCollection = src.PersonalCollection }),
		collField("DOI",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsDOI(raw)
				if err != nil {
					return []string{issue("DOI", err)}
				}
				if ok {
					c.DOI = v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.DOI = src.DOI }),
		collField("EMAIL",
			func(c *model.Collection, raw string) []string { c.Email = AsList(raw); return nil },
			func(dst, src *model.Collection) { dst.Email = src.Email }),
		collField("PHONE",
			func(c *model.Collection, raw string) []string { c.Phone = AsList(raw); return nil },
			func(dst, src *model.Collection) { dst.Phone = src.Phone }),
		collField("HOMEPAGE",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsURI(raw)
				if err != nil {
					return []string{issue("HOMEPAGE", err)}
				}
				if ok {
					c.Homepage = v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.Homepage = src.Homepage }),
		collField("PRESERVATION_TYPES",
			func(c *model.Collection, raw string) []string {
				v, errs := AsEnumList(raw, model.ParsePreservationType)
				c.PreservationTypes = v
				return issues("PRESERVATION_TYPES", errs)
			},
			func(dst, src *model.Collection) { dst.PreservationTypes = src.PreservationTypes }),
		collField("ACCESSION_STATUS",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsEnum(raw, model.ParseAccessionStatus)
				if err != nil {
					return []string{issue("ACCESSION_STATUS", err)}
				}
				if ok {
					c.AccessionStatus = v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.AccessionStatus = src.AccessionStatus }),
		collField("INSTITUTION_KEY",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsUUID(raw)
				if err != nil {
					return []string{issue("INSTITUTION_KEY", err)}
				}
				if ok {
					c.InstitutionKey = &v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.InstitutionKey = src.InstitutionKey }),
		collField("NOTES",
			func(c *model.Collection, raw string) []string { c.Notes = raw; return nil },
			func(dst, src *model.Collection) { dst.Notes = src.Notes }),
		collField("TAXONOMIC_COVERAGE",
			func(c *model.Collection, raw string) []string { c.TaxonomicCoverage = raw; return nil },
			func(dst, src *model.Collection) { dst.TaxonomicCoverage = src.TaxonomicCoverage }),
		collField("GEOGRAPHIC_COVERAGE",
			func(c *model.Collection, raw string) []string { c.GeographicCoverage = raw; return nil },
			func(dst, src *model.Collection) { dst.GeographicCoverage = src.GeographicCoverage }),
		collField("NUMBER_SPECIMENS",
			func(c *model.Collection, raw string) []string {
				v, ok, err := AsInt(raw)
				if err != nil {
					return []string{issue("NUMBER_SPECIMENS", err)}
				}
				if ok {
					c.NumberSpecimens = &v
				}
				return nil
			},
			func(dst, src *model.Collection) { dst.NumberSpecimens = src.NumberSpecimens }),
		collField("DEPARTMENT",
			func(c *model.Collection, raw string) []string { c.Department = raw; return nil },
			func(dst, src *model.Collection) { dst.Department = src.Department }),
		collField("DIVISION",
			func(c *model.Collection, raw string) []string { c.Division = raw; return nil },
			func(dst, src *model.Collection) { dst.Division = src.Division }),
		collField("ALTERNATIVE_CODES",
			func(c *model.Collection, raw string) []string {
				v, errs := AsAlternativeCodes(raw)
				c.AlternativeCodes = v
				return issues("ALTERNATIVE_CODES", errs)
			},
			func(dst, src *model.Collection) { dst.AlternativeCodes = src.AlternativeCodes }),
		collField("IDENTIFIERS",
			func(c *model.Collection, raw string) []string {
				v, errs := AsIdentifiers(raw)
				c.Identifiers = v
				return issues("IDENTIFIERS", errs)
			},
			func(dst, src *model.Collection) { dst.Identifiers = src.Identifiers }),
	}
	defs = append(defs, addressDefs()...)
	return newFieldTable(defs)
}

// Definition bundles everything the pipeline needs for one entity type.
type Definition struct {
	Type    model.EntityType
	Fields  *FieldTable
	New     func() model.Entity
	Service EntityService
}

// NewInstitutionDefinition builds the institution batch definition.
func NewInstitutionDefinition(svc EntityService) Definition {
	return Definition{
		Type:    model.EntityTypeInstitution,
		Fields:  NewInstitutionFields(),
		New:     func() model.Entity { return &model.Institution{} },
		Service: svc,
	}
}

// NewCollectionDefinition builds the collection batch definition.
func NewCollectionDefinition(svc EntityService) Definition {
	return Definition{
		Type:    model.EntityTypeCollection,
		Fields:  NewCollectionFields(),
		New:     func() model.Entity { return &model.Collection{} },
		Service: svc,
	}
}
