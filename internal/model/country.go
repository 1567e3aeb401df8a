package model

import "strings"

// Country is an ISO 3166-1 alpha-2 country code.
type Country string

// isoCountryCodes holds every assigned ISO 3166-1 alpha-2 code.
var isoCountryCodes = func() map[Country]struct{} {
	codes := strings.Fields(`
		AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ
		BA BB BD BE BF BG BH BI BJ BL BM BN BO BQ BR BS BT BV BW BY BZ
		CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ
		DE DJ DK DM DO DZ EC EE EG EH ER ES ET
		FI FJ FK FM FO FR GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY
		HK HM HN HR HT HU ID IE IL IM IN IO IQ IR IS IT
		JE JM JO JP KE KG KH KI KM KN KP KR KW KY KZ
		LA LB LC LI LK LR LS LT LU LV LY
		MA MC MD ME MF MG MH MK ML MM MN MO MP MQ MR MS MT MU MV MW MX MY MZ
		NA NC NE NF NG NI NL NO NP NR NU NZ OM
		PA PE PF PG PH PK PL PM PN PR PS PT PW PY QA
		RE RO RS RU RW SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX SY SZ
		TC TD TF TG TH TJ TK TL TM TN TO TR TT TV TW TZ
		UA UG UM US UY UZ VA VC VE VG VI VN VU WF WS YE YT ZA ZM ZW`)
	set := make(map[Country]struct{}, len(codes))
	for _, c := range codes {
		set[Country(c)] = struct{}{}
	}
	return set
}()

// countryNames maps common English country names (uppercased) to codes, used
// as a fallback when input files carry names instead of ISO codes. The table
// is not exhaustive; names outside it must be supplied as ISO codes.
var countryNames = map[string]Country{
	"AUSTRALIA":      "AU",
	"AUSTRIA":        "AT",
	"BELGIUM":        "BE",
	"BRAZIL":         "BR",
	"CANADA":         "CA",
	"CHINA":          "CN",
	"COLOMBIA":       "CO",
	"COSTA RICA":     "CR",
	"CZECHIA":        "CZ",
	"DENMARK":        "DK",
	"ESTONIA":        "EE",
	"FINLAND":        "FI",
	"FRANCE":         "FR",
	"GERMANY":        "DE",
	"GREECE":         "GR",
	"HUNGARY":        "HU",
	"ICELAND":        "IS",
	"INDIA":          "IN",
	"INDONESIA":      "ID",
	"IRELAND":        "IE",
	"ITALY":          "IT",
	"JAPAN":          "JP",
	"KENYA":          "KE",
	"MADAGASCAR":     "MG",
	"MEXICO":         "MX",
	"NETHERLANDS":    "NL",
	"NEW ZEALAND":    "NZ",
	"NORWAY":         "NO",
	"PERU":           "PE",
	"PHILIPPINES":    "PH",
	"POLAND":         "PL",
	"PORTUGAL":       "PT",
	"RUSSIA":         "RU",
	"SOUTH AFRICA":   "ZA",
	"SPAIN":          "ES",
	"SWEDEN":         "SE",
	"SWITZERLAND":    "CH",
	"TANZANIA":       "TZ",
	"UNITED KINGDOM": "GB",
	"UNITED STATES":  "US",
}

// ParseCountry resolves a country from an ISO alpha-2 code first, then from
// an English country name.
func ParseCountry(s string) (Country, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if v == "" {
		return "", false
	}
	if len(v) == 2 {
		if _, ok := isoCountryCodes[Country(v)]; ok {
			return Country(v), true
		}
	}
	if c, ok := countryNames[v]; ok {
		return c, true
	}
	return "", false
}
