package batch

// interpret.go coerces raw cell values into typed domain values. Every
// function follows the same contract: empty or whitespace-only input is
// absent (ok=false, no error), and a coercion failure is reported as an
// error without ever panicking. Structured list cells return partial
// results alongside one error per malformed item.

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/collectory/registry/internal/model"
	"github.com/google/uuid"
)

// doiRegex matches a bare DOI ("10.xxxx/suffix"), optionally prefixed with
// "doi:" or a doi.org URL.
var doiRegex = regexp.MustCompile(`^(?:doi:|https?://(?:dx\.)?doi\.org/)?(10\.\d{4,9}/\S+)$`)

// AsBool coerces a raw cell to a boolean. Accepts true/false, yes/no,
// t/f, y/n and 1/0.
func AsBool(raw string) (val bool, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false, nil
	}
	switch strings.ToLower(raw) {
	case "true", "t", "yes", "y", "1":
		return true, true, nil
	case "false", "f", "no", "n", "0":
		return false, true, nil
	}
	return false, false, fmt.Errorf("invalid boolean value %q", raw)
}

// AsInt coerces a raw cell to an integer.
func AsInt(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid integer value %q", raw)
	}
	return v, true, nil
}

// AsDecimal coerces a raw cell to a decimal number.
func AsDecimal(raw string) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid decimal value %q", raw)
	}
	return v, true, nil
}

// AsUUID coerces a raw cell to a UUID.
func AsUUID(raw string) (uuid.UUID, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.UUID{}, false, nil
	}
	v, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, false, fmt.Errorf("invalid uuid value %q", raw)
	}
	return v, true, nil
}

// AsURI coerces a raw cell to an absolute URI.
func AsURI(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", false, fmt.Errorf("invalid uri value %q", raw)
	}
	return u.String(), true, nil
}

// AsDOI coerces a raw cell to a normalized DOI ("10.xxxx/suffix").
func AsDOI(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	m := doiRegex.FindStringSubmatch(raw)
	if m == nil {
		return "", false, fmt.Errorf("invalid doi value %q", raw)
	}
	return m[1], true, nil
}

// AsCountry coerces a raw cell to a country, accepting an ISO alpha-2 code
// first and an English country name as fallback.
func AsCountry(raw string) (model.Country, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	c, ok := model.ParseCountry(raw)
	if !ok {
		return "", false, fmt.Errorf("invalid country value %q", raw)
	}
	return c, true, nil
}

// AsEnum coerces a raw cell with the given enum parser.
func AsEnum[E ~string](raw string, parse func(string) (E, bool)) (E, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}
	v, ok := parse(raw)
	if !ok {
		return "", false, fmt.Errorf("wrong enum value %q", raw)
	}
	return v, true, nil
}

// AsList splits a list-valued cell on the list delimiter, trimming items
// and dropping empties. An empty result is not an error.
func AsList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ListDelimiter) {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// AsEnumList coerces a list-valued cell of enum names. Well-formed items
// are returned even when some items fail.
func AsEnumList[E ~string](raw string, parse func(string) (E, bool)) ([]E, []error) {
	var out []E
	var errs []error
	for _, item := range AsList(raw) {
		v, ok := parse(item)
		if !ok {
			errs = append(errs, fmt.Errorf("wrong enum value %q", item))
			continue
		}
		out = append(out, v)
	}
	return out, errs
}

// splitPair splits a structured item "left:right" on the pair delimiter.
// Exactly two non-empty halves are required.
func splitPair(item string) (left, right string, ok bool) {
	parts := strings.SplitN(item, PairDelimiter, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	left = strings.TrimSpace(parts[0])
	right = strings.TrimSpace(parts[1])
	return left, right, left != "" && right != ""
}

// AsIdentifiers coerces a list of "TYPE:value" items into identifiers.
// Malformed items yield one error each without discarding the rest.
func AsIdentifiers(raw string) ([]model.Identifier, []error) {
	var out []model.Identifier
	var errs []error
	for _, item := range AsList(raw) {
		typ, value, ok := splitPair(item)
		if !ok {
			errs = append(errs, fmt.Errorf("invalid identifier item %q, expected TYPE%svalue", item, PairDelimiter))
			continue
		}
		idType, ok := model.ParseIdentifierType(typ)
		if !ok {
			errs = append(errs, fmt.Errorf("wrong identifier type %q", typ))
			continue
		}
		out = append(out, model.Identifier{Type: idType, Identifier: value})
	}
	return out, errs
}

// AsAlternativeCodes coerces a list of "code:description" items.
func AsAlternativeCodes(raw string) ([]model.AlternativeCode, []error) {
	var out []model.AlternativeCode
	var errs []error
	for _, item := range AsList(raw) {
		code, desc, ok := splitPair(item)
		if !ok {
			errs = append(errs, fmt.Errorf("invalid alternative code item %q, expected code%sdescription", item, PairDelimiter))
			continue
		}
		out = append(out, model.AlternativeCode{Code: code, Description: desc})
	}
	return out, errs
}

// AsUserIDs coerces a list of "TYPE:id" items into contact user ids.
func AsUserIDs(raw string) ([]model.UserID, []error) {
	var out []model.UserID
	var errs []error
	for _, item := range AsList(raw) {
		typ, id, ok := splitPair(item)
		if !ok {
			errs = append(errs, fmt.Errorf("invalid user id item %q, expected TYPE%sid", item, PairDelimiter))
			continue
		}
		idType, ok := model.ParseUserIDType(typ)
		if !ok {
			errs = append(errs, fmt.Errorf("wrong user id type %q", typ))
			continue
		}
		out = append(out, model.UserID{Type: idType, ID: id})
	}
	return out, errs
}
