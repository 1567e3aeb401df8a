package batch

// result.go writes the annotated result bundle: the original rows with
// only their recognized columns re-emitted, a KEY column carrying
// generated keys for created rows, and an ERRORS column with everything
// that went wrong for that row. The per-file outputs are zipped into one
// archive and removed afterwards.

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ResultWriter produces the result archive for one batch run.
type ResultWriter struct {
	dir string
	log *slog.Logger
}

// NewResultWriter writes archives under dir, creating it if needed.
func NewResultWriter(dir string) (*ResultWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	return &ResultWriter{dir: dir, log: slog.Default()}, nil
}

// WriteArchive re-reads both original inputs, annotates them with keys and
// row errors, and packs the outputs into a single zip named after the
// batch. Intermediate files are removed even when zipping fails.
func (w *ResultWriter) WriteArchive(batchKey int64, def Definition, cf *ContactFields,
	entitiesData []byte, entities *ParseResult,
	contactsData []byte, contacts *ContactParseResult) (string, error) {

	ts := time.Now().UTC().Format("20060102150405")
	ext := entities.Format.Extension

	entityFile := filepath.Join(w.dir, fmt.Sprintf("result-%s.%s", ts, ext))
	files := []string{entityFile}
	defer func() {
		for _, f := range files {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				w.log.Warn("remove intermediate result file", "path", f, "error", err)
			}
		}
	}()

	if err := w.writeEntityResult(entityFile, def, entitiesData, entities); err != nil {
		return "", err
	}

	if contactsData != nil && contacts != nil && len(contacts.ByKey) > 0 {
		contactFile := filepath.Join(w.dir, fmt.Sprintf("contacts-%s.%s", ts, ext))
		if err := w.writeContactResult(contactFile, cf, contactsData, contacts); err != nil {
			return "", err
		}
		files = append(files, contactFile)
	}

	archive := filepath.Join(w.dir, fmt.Sprintf("batch-%d-%s.zip", batchKey, ts))
	if err := zipFiles(archive, files); err != nil {
		return "", fmt.Errorf("pack result archive: %w", err)
	}
	return archive, nil
}

// writeEntityResult emits one output row per input data row, in input
// order, restricted to the recognized columns the file actually had.
func (w *ResultWriter) writeEntityResult(path string, def Definition, data []byte, parsed *ParseResult) error {
	r, _, err := NewReader(data, parsed.Format, def.Fields.Known())
	if err != nil {
		return fmt.Errorf("reread entities file: %w", err)
	}

	display := presentColumns(def.Fields.Names(), r.Header())
	hadKeyColumn := r.Header().Has(ColKey)

	return w.writeRows(path, parsed.Format, display, r, func(cw *csv.Writer, row []string) error {
		key := NaturalKey(r, row)
		rec, ok := parsed.Records[key]
		if !ok {
			w.log.Warn("result row has no parsed record, skipping", "key", key)
			return nil
		}

		out := make([]string, 0, len(display)+2)
		for _, col := range display {
			out = append(out, r.Cell(row, col))
		}

		switch {
		case hadKeyColumn:
			out = append(out, r.Cell(row, ColKey))
		case rec.Entity.GetKey() != nil:
			out = append(out, rec.Entity.GetKey().String())
		default:
			out = append(out, "")
		}
		out = append(out, strings.Join(rec.Errors, ListDelimiter))

		return cw.Write(out)
	})
}

// writeContactResult is the contacts-file counterpart of writeEntityResult.
func (w *ResultWriter) writeContactResult(path string, cf *ContactFields, data []byte, parsed *ContactParseResult) error {
	r, _, err := NewReader(data, parsed.Format, cf.Known())
	if err != nil {
		return fmt.Errorf("reread contacts file: %w", err)
	}

	display := presentColumns(cf.Names(), r.Header())
	hadKeyColumn := r.Header().Has(ColKey)

	return w.writeRows(path, parsed.Format, display, r, func(cw *csv.Writer, row []string) error {
		key := cf.NaturalKey(r, row)
		pc, ok := parsed.ByKey[key]
		if !ok {
			w.log.Warn("contact result row has no parsed record, skipping", "key", key)
			return nil
		}

		out := make([]string, 0, len(display)+2)
		for _, col := range display {
			out = append(out, r.Cell(row, col))
		}

		switch {
		case hadKeyColumn:
			out = append(out, r.Cell(row, ColKey))
		case pc.Contact.Key != nil:
			out = append(out, pc.Contact.Key.String())
		default:
			out = append(out, "")
		}
		out = append(out, strings.Join(pc.Errors, ListDelimiter))

		return cw.Write(out)
	})
}

// writeRows streams the original data rows through emit into path.
func (w *ResultWriter) writeRows(path string, format Format, display []string, r *Reader, emit func(cw *csv.Writer, row []string) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Comma = format.Delimiter

	header := append(append([]string{}, display...), ColKey, ColErrors)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write result header: %w", err)
	}

	for {
		row, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := emit(cw, row); err != nil {
			return fmt.Errorf("write result row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush result file: %w", err)
	}
	return f.Close()
}

// presentColumns intersects the canonical column order with the columns
// actually present in the file, keeping canonical order. KEY and ERRORS
// are excluded here; they are always appended at the end.
func presentColumns(canonical []string, header HeaderIndex) []string {
	var out []string
	for _, name := range canonical {
		if header.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

func zipFiles(dest string, paths []string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, p := range paths {
		src, err := os.Open(p)
		if err != nil {
			zw.Close()
			return err
		}
		entry, err := zw.Create(filepath.Base(p))
		if err != nil {
			src.Close()
			zw.Close()
			return err
		}
		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			zw.Close()
			return err
		}
		src.Close()
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}
