package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"VoronMonitor/pkg/metrics"
)

// CSVSink writes records as rows of the fixed column schema. The header is
// written and flushed as soon as the file is created.
//
// Each row goes through its own csv.Writer: a failed write (ENOSPC on a full
// SD card) must not poison the rows that follow once space is freed.
type CSVSink struct {
	path    string
	file    *os.File
	out     io.Writer
	columns []string
	durable bool
	mu      sync.Mutex
}

// NewCSVSink creates path and writes the header row. A durable sink fsyncs
// after every row; a non-durable one only flushes to the OS.
func NewCSVSink(path string, durable bool) (*CSVSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	s := &CSVSink{
		path:    path,
		file:    file,
		out:     file,
		columns: metrics.Columns(),
		durable: durable,
	}
	if err := s.writeRow(s.columns); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return s, nil
}

// Write appends one row. Fields outside the schema are dropped and missing
// fields are written as empty cells.
func (s *CSVSink) Write(record metrics.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return os.ErrClosed
	}

	row := make([]string, len(s.columns))
	for i, key := range s.columns {
		if val, ok := record[key]; ok {
			row[i] = metrics.FormatValue(val)
		}
	}

	return s.writeRow(row)
}

// writeRow pushes one row to the OS and, for durable sinks, to disk.
func (s *CSVSink) writeRow(row []string) error {
	w := csv.NewWriter(s.out)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	if s.durable {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}
	}
	return nil
}

// Close closes the file. Rows are already flushed by Write.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Path returns the file path.
func (s *CSVSink) Path() string {
	return s.path
}

// ReadCSV loads a monitor log back into typed records. Columns outside the
// schema and empty cells are skipped.
func ReadCSV(path string) ([]metrics.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records []metrics.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		record := make(metrics.Record)
		for i, cell := range row {
			if i >= len(header) {
				continue
			}
			if v, ok := metrics.ParseValue(header[i], cell); ok {
				record[header[i]] = v
			}
		}
		records = append(records, record)
	}
	return records, nil
}
