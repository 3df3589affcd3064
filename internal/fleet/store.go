package fleet

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Store holds the parsed fleet, keyed by cluster name in first-seen order.
type Store struct {
	cols    Columns
	records map[string]*Record
	order   []string
	header  []string
}

// ParseSourceFile opens path and parses it with ParseSource.
func ParseSourceFile(path string, cols Columns, logger *slog.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fleet file: %w", err)
	}
	defer f.Close()

	store, err := ParseSource(f, cols, logger)
	if err != nil {
		return store, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// ParseSource reads a CSV source of truth into a Store.
//
// The first row is the header. Every cell is whitespace-trimmed, keys and
// values alike. Rows whose cells are all empty are skipped. Duplicate
// cluster names keep the last row's data at the first row's position.
//
// A row without a usable cluster name (column absent from the header, or
// value blank) stops the parse with ErrMissingName; the rows read before
// it are still present in the returned Store.
func ParseSource(r io.Reader, cols Columns, logger *slog.Logger) (*Store, error) {
	store := &Store{
		cols:    cols,
		records: make(map[string]*Record),
	}

	reader := csv.NewReader(r)
	// Ragged rows are tolerated: short rows simply lack the trailing
	// columns, extra cells are ignored.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return store, nil
	}
	if err != nil {
		return store, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}
	store.header = header

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return store, fmt.Errorf("read row: %w", err)
		}
		line++

		attrs := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			if col == "" || i >= len(row) {
				continue
			}
			val := strings.TrimSpace(row[i])
			attrs[col] = val
			if val != "" {
				empty = false
			}
		}
		if empty {
			logger.Debug("skipping empty row", "line", line)
			continue
		}

		name, ok := attrs[cols.Name]
		if !ok || name == "" {
			return store, fmt.Errorf("row %d: %w", line, ErrMissingName)
		}

		rec := &Record{
			Name:  name,
			Group: attrs[cols.Group],
			Attrs: attrs,
		}
		if raw, ok := attrs[cols.Tags]; ok {
			rec.Tags = splitList(raw, cols.TagDelimiter)
		}

		if _, exists := store.records[name]; exists {
			logger.Debug("duplicate cluster row, keeping the newer one", "cluster", name, "line", line)
		} else {
			store.order = append(store.order, name)
		}
		store.records[name] = rec
	}

	logger.Debug("fleet parsed", "clusters", len(store.records))
	return store, nil
}

// Get returns the record for an exact cluster name.
func (s *Store) Get(name string) (*Record, bool) {
	rec, ok := s.records[name]
	return rec, ok
}

// All returns the fleet's records in first-seen order.
func (s *Store) All() []*Record {
	out := make([]*Record, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name])
	}
	return out
}

// Len returns the number of clusters in the store.
func (s *Store) Len() int {
	return len(s.records)
}

// Header returns the source's column names in file order.
func (s *Store) Header() []string {
	return s.header
}

// Columns returns the column layout the store was parsed with.
func (s *Store) Columns() Columns {
	return s.cols
}
