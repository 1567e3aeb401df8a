package batch

import "fmt"

// Format describes the delimiter profile of an input file.
type Format struct {
	Delimiter rune
	Extension string
}

var (
	// FormatCSV is comma-separated input.
	FormatCSV = Format{Delimiter: ',', Extension: "csv"}
	// FormatTSV is tab-separated input.
	FormatTSV = Format{Delimiter: '\t', Extension: "tsv"}
)

// ParseFormat resolves a format label ("csv" or "tsv").
func ParseFormat(s string) (Format, error) {
	switch s {
	case "csv", "CSV", "":
		return FormatCSV, nil
	case "tsv", "TSV":
		return FormatTSV, nil
	}
	return Format{}, fmt.Errorf("unknown file format %q", s)
}
