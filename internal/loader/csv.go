package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hawaii-climate-api/internal/domain"
)

// FileExtractor streams RawRecords from a CSV file in batches.
// It implements RecordExtractor. The file opens lazily on the first
// ExtractBatch call; the header row is read once and shared by all records.
type FileExtractor struct {
	path    string
	file    *os.File
	reader  *csv.Reader
	columns map[string]int
	source  string
	line    int
	done    bool
}

// NewFileExtractor creates an extractor for the CSV file at path.
func NewFileExtractor(path string) *FileExtractor {
	return &FileExtractor{path: path, source: filepath.Base(path)}
}

// ExtractBatch returns up to n records, or an empty batch once the file is
// exhausted.
func (e *FileExtractor) ExtractBatch(ctx context.Context, n int) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.done {
		return nil, nil
	}
	if e.reader == nil {
		if err := e.open(); err != nil {
			return nil, err
		}
	}

	batch := make([]domain.RawRecord, 0, n)
	for len(batch) < n {
		row, err := e.reader.Read()
		if errors.Is(err, io.EOF) {
			e.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.source, err)
		}
		e.line++
		batch = append(batch, domain.RawRecord{
			Columns: e.columns,
			Values:  row,
			Source:  e.source,
			Line:    e.line,
		})
	}
	return batch, nil
}

// Close releases the underlying file.
func (e *FileExtractor) Close() error {
	if e.file == nil {
		return nil
	}
	return e.file.Close()
}

func (e *FileExtractor) open() error {
	f, err := os.Open(e.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", e.path, err)
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate short rows; parsing decides per field

	header, err := reader.Read()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("read %s header: %w", e.source, err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[normalizeHeader(h)] = i
	}

	e.file = f
	e.reader = reader
	e.columns = columns
	e.line = 1
	return nil
}

// normalizeHeader converts "Station Name" to "station_name".
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
