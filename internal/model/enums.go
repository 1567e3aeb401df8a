package model

import "strings"

// normalizeEnum uppercases and trims a value for the lookups that accept
// relaxed input, like the entity type in a URL path. Cell-level enum
// parsing goes through parseEnum and stays case-sensitive.
func normalizeEnum(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// InstitutionType categorizes an institution.
type InstitutionType string

const (
	InstitutionTypeBiomedicalResearchInstitute InstitutionType = "BIOMEDICAL_RESEARCH_INSTITUTE"
	InstitutionTypeBotanicalGarden             InstitutionType = "BOTANICAL_GARDEN"
	InstitutionTypeHerbarium                   InstitutionType = "HERBARIUM"
	InstitutionTypeLivingOrganismCollection    InstitutionType = "LIVING_ORGANISM_COLLECTION"
	InstitutionTypeMedicalResearchInstitute    InstitutionType = "MEDICAL_RESEARCH_INSTITUTE"
	InstitutionTypeMuseum                      InstitutionType = "MUSEUM"
	InstitutionTypeOtherInstitutionalType      InstitutionType = "OTHER_INSTITUTIONAL_TYPE"
	InstitutionTypeUniversityCollege           InstitutionType = "UNIVERSITY_COLLEGE"
	InstitutionTypeZooAquarium                 InstitutionType = "ZOO_AQUARIUM"
)

var institutionTypes = enumSet(
	InstitutionTypeBiomedicalResearchInstitute,
	InstitutionTypeBotanicalGarden,
	InstitutionTypeHerbarium,
	InstitutionTypeLivingOrganismCollection,
	InstitutionTypeMedicalResearchInstitute,
	InstitutionTypeMuseum,
	InstitutionTypeOtherInstitutionalType,
	InstitutionTypeUniversityCollege,
	InstitutionTypeZooAquarium,
)

// ParseInstitutionType matches s against the known institution types.
func ParseInstitutionType(s string) (InstitutionType, bool) {
	return parseEnum(s, institutionTypes)
}

// Discipline is a research discipline an institution covers.
type Discipline string

const (
	DisciplineAgriculturalScience Discipline = "AGRICULTURAL_SCIENCE"
	DisciplineAnthropology        Discipline = "ANTHROPOLOGY"
	DisciplineArchaeology         Discipline = "ARCHAEOLOGY"
	DisciplineBotany              Discipline = "BOTANY"
	DisciplineEntomology          Discipline = "ENTOMOLOGY"
	DisciplineGeology             Discipline = "GEOLOGY"
	DisciplineMicrobiology        Discipline = "MICROBIOLOGY"
	DisciplineMycology            Discipline = "MYCOLOGY"
	DisciplinePaleontology        Discipline = "PALEONTOLOGY"
	DisciplineZoology             Discipline = "ZOOLOGY"
)

var disciplines = enumSet(
	DisciplineAgriculturalScience,
	DisciplineAnthropology,
	DisciplineArchaeology,
	DisciplineBotany,
	DisciplineEntomology,
	DisciplineGeology,
	DisciplineMicrobiology,
	DisciplineMycology,
	DisciplinePaleontology,
	DisciplineZoology,
)

// ParseDiscipline matches s against the known disciplines.
func ParseDiscipline(s string) (Discipline, bool) {
	return parseEnum(s, disciplines)
}

// CollectionContentType describes what a collection holds.
type CollectionContentType string

const (
	ContentTypeArchaeological  CollectionContentType = "ARCHAEOLOGICAL"
	ContentTypeBiological      CollectionContentType = "BIOLOGICAL"
	ContentTypeEarthGeological CollectionContentType = "EARTH_GEOLOGICAL"
	ContentTypeEarthPlanetary  CollectionContentType = "EARTH_PLANETARY"
	ContentTypeHuman           CollectionContentType = "HUMAN_DERIVED"
	ContentTypePaleontological CollectionContentType = "PALEONTOLOGICAL"
	ContentTypeRecordsArchives CollectionContentType = "RECORDS_ARCHIVES"
)

var collectionContentTypes = enumSet(
	ContentTypeArchaeological,
	ContentTypeBiological,
	ContentTypeEarthGeological,
	ContentTypeEarthPlanetary,
	ContentTypeHuman,
	ContentTypePaleontological,
	ContentTypeRecordsArchives,
)

// ParseCollectionContentType matches s against the known content types.
func ParseCollectionContentType(s string) (CollectionContentType, bool) {
	return parseEnum(s, collectionContentTypes)
}

// PreservationType describes how specimens are preserved.
type PreservationType string

const (
	PreservationSampleDried          PreservationType = "SAMPLE_DRIED"
	PreservationSampleFluidPreserved PreservationType = "SAMPLE_FLUID_PRESERVED"
	PreservationSampleFrozen         PreservationType = "SAMPLE_FROZEN"
	PreservationSamplePinned         PreservationType = "SAMPLE_PINNED"
	PreservationSampleSlides         PreservationType = "SAMPLE_SLIDES"
	PreservationStorageControlled    PreservationType = "STORAGE_CONTROLLED_ATMOSPHERE"
	PreservationStorageIndoors       PreservationType = "STORAGE_INDOORS"
	PreservationStorageOutdoors      PreservationType = "STORAGE_OUTDOORS"
)

var preservationTypes = enumSet(
	PreservationSampleDried,
	PreservationSampleFluidPreserved,
	PreservationSampleFrozen,
	PreservationSamplePinned,
	PreservationSampleSlides,
	PreservationStorageControlled,
	PreservationStorageIndoors,
	PreservationStorageOutdoors,
)

// ParsePreservationType matches s against the known preservation types.
func ParsePreservationType(s string) (PreservationType, bool) {
	return parseEnum(s, preservationTypes)
}

// AccessionStatus describes whether a collection still accepts material.
type AccessionStatus string

const (
	AccessionStatusInstitutional AccessionStatus = "INSTITUTIONAL"
	AccessionStatusProject       AccessionStatus = "PROJECT"
)

var accessionStatuses = enumSet(AccessionStatusInstitutional, AccessionStatusProject)

// ParseAccessionStatus matches s against the known accession statuses.
func ParseAccessionStatus(s string) (AccessionStatus, bool) {
	return parseEnum(s, accessionStatuses)
}

// IdentifierType is the scheme of an entity identifier.
type IdentifierType string

const (
	IdentifierTypeDOI      IdentifierType = "DOI"
	IdentifierTypeGRID     IdentifierType = "GRID"
	IdentifierTypeHandle   IdentifierType = "HANDLE"
	IdentifierTypeIHIRN    IdentifierType = "IH_IRN"
	IdentifierTypeLSID     IdentifierType = "LSID"
	IdentifierTypeROR      IdentifierType = "ROR"
	IdentifierTypeURI      IdentifierType = "URI"
	IdentifierTypeURL      IdentifierType = "URL"
	IdentifierTypeUUID     IdentifierType = "UUID"
	IdentifierTypeWikidata IdentifierType = "WIKIDATA"
)

var identifierTypes = enumSet(
	IdentifierTypeDOI,
	IdentifierTypeGRID,
	IdentifierTypeHandle,
	IdentifierTypeIHIRN,
	IdentifierTypeLSID,
	IdentifierTypeROR,
	IdentifierTypeURI,
	IdentifierTypeURL,
	IdentifierTypeUUID,
	IdentifierTypeWikidata,
)

// ParseIdentifierType matches s against the known identifier types.
func ParseIdentifierType(s string) (IdentifierType, bool) {
	return parseEnum(s, identifierTypes)
}

// UserIDType is the scheme of a contact person's external user id.
type UserIDType string

const (
	UserIDTypeORCID      UserIDType = "ORCID"
	UserIDTypeWikidata   UserIDType = "WIKIDATA"
	UserIDTypeIHRegistry UserIDType = "IH_REGISTRY"
	UserIDTypeResearcher UserIDType = "RESEARCHER_ID"
	UserIDTypeOther      UserIDType = "OTHER"
)

var userIDTypes = enumSet(
	UserIDTypeORCID,
	UserIDTypeWikidata,
	UserIDTypeIHRegistry,
	UserIDTypeResearcher,
	UserIDTypeOther,
)

// ParseUserIDType matches s against the known user id types.
func ParseUserIDType(s string) (UserIDType, bool) {
	return parseEnum(s, userIDTypes)
}

func enumSet[E ~string](values ...E) map[E]struct{} {
	set := make(map[E]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// parseEnum matches s against the enum set after trimming whitespace.
// Matching is case-sensitive; "museum" does not match MUSEUM.
func parseEnum[E ~string](s string, set map[E]struct{}) (E, bool) {
	v := E(strings.TrimSpace(s))
	if _, ok := set[v]; ok {
		return v, true
	}
	return "", false
}
