// Package loader reads the open pubs table from a .csv or .xlsx file into
// an immutable dataset.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"open-pubs/internal/excel"
	"open-pubs/internal/logger"
	"open-pubs/internal/models"
	"open-pubs/internal/pubs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoadError records which stage of loading failed.
type LoadError struct {
	Stage string
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s stage: %v", e.Path, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var ErrUnsupportedFormat = errors.New("unsupported file format")

type Options struct {
	// Sheet names the worksheet to read from an .xlsx file. Empty means the
	// first sheet.
	Sheet string
}

// Stats describes one load.
type Stats struct {
	Rows    int
	Skipped int
}

// Load reads path and returns the dataset built from it. Rows whose
// coordinates cannot be parsed are skipped and counted in Stats.
func Load(path string, opts Options) (*pubs.Dataset, Stats, error) {
	start := time.Now()

	var (
		ds    *pubs.Dataset
		stats Stats
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		ds, stats, err = loadCSVFile(path)
	case ".xlsx":
		ds, stats, err = loadWorkbook(path, opts.Sheet)
	default:
		err = &LoadError{Stage: "open", Path: path, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)}
	}
	if err != nil {
		return nil, Stats{}, err
	}

	l := logger.L()
	if stats.Skipped > 0 {
		l.Warn("dataset_rows_skipped", "path", path, "skipped", stats.Skipped)
	}
	l.Info("dataset_loaded", "path", path, "rows", stats.Rows, "duration_ms", time.Since(start).Milliseconds())
	return ds, stats, nil
}

func loadCSVFile(path string) (*pubs.Dataset, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, &LoadError{Stage: "open", Path: path, Err: err}
	}
	defer f.Close()

	ds, stats, err := ReadCSV(f)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, Stats{}, err
	}
	return ds, stats, nil
}

// ReadCSV reads a header row followed by data rows from r.
func ReadCSV(r io.Reader) (*pubs.Dataset, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, Stats{}, &LoadError{Stage: "read", Err: err}
	}
	return fromRecords("", records)
}

func loadWorkbook(path, sheet string) (*pubs.Dataset, Stats, error) {
	f, err := excel.OpenFile(path)
	if err != nil {
		return nil, Stats{}, &LoadError{Stage: "open", Path: path, Err: err}
	}
	defer f.Close()

	records, err := excel.ReadRows(f, sheet)
	if err != nil {
		return nil, Stats{}, &LoadError{Stage: "read", Path: path, Err: err}
	}
	return fromRecords(path, records)
}

// fromRecords builds a dataset from rows whose first entry is the header.
func fromRecords(path string, records [][]string) (*pubs.Dataset, Stats, error) {
	if len(records) == 0 {
		return nil, Stats{}, &LoadError{Stage: "header", Path: path, Err: errors.New("no header row")}
	}
	header := records[0]
	cols, err := newColumnMap(header)
	if err != nil {
		return nil, Stats{}, &LoadError{Stage: "header", Path: path, Err: err}
	}

	var (
		rows    []models.Pub
		skipped int
	)
	for _, record := range records[1:] {
		p, ok := cols.decode(record)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, p)
	}
	return pubs.NewDataset(rows, header), Stats{Rows: len(rows), Skipped: skipped}, nil
}
