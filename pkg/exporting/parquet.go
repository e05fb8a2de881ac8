package exporting

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"VoronMonitor/pkg/metrics"
	"VoronMonitor/pkg/recording"
)

const (
	ParquetBatchSize = 1000

	// SessionKey is the key-value metadata entry holding the session id.
	SessionKey = "voron.session"
)

// parquetSchema maps every monitor column to an optional leaf of its
// declared kind.
func parquetSchema() *parquet.Schema {
	group := make(parquet.Group)
	for _, col := range metrics.Columns() {
		kind, _ := metrics.Kind(col)
		group[col] = kindToParquetNode(kind)
	}
	return parquet.NewSchema("monitor", group)
}

func kindToParquetNode(kind metrics.FieldKind) parquet.Node {
	switch kind {
	case metrics.KindInt:
		return parquet.Optional(parquet.Int(64))
	case metrics.KindFloat:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case metrics.KindBool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	default:
		return parquet.Optional(parquet.String())
	}
}

// ParquetWriter writes monitor records using the Row API.
type ParquetWriter struct {
	path    string
	file    *os.File
	writer  *parquet.Writer
	columns []string
	buffer  []parquet.Row
}

// NewParquetWriter creates path and tags the file with the session id.
func NewParquetWriter(path string, session uuid.UUID) (*ParquetWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	schema := parquetSchema()
	w := &ParquetWriter{
		path:   path,
		file:   file,
		buffer: make([]parquet.Row, 0, ParquetBatchSize),
	}
	// Group children are ordered by name; row values follow that order.
	for _, f := range schema.Fields() {
		w.columns = append(w.columns, f.Name())
	}
	w.writer = parquet.NewWriter(file, schema,
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata(SessionKey, session.String()),
	)
	return w, nil
}

func (w *ParquetWriter) recordToRow(record metrics.Record) parquet.Row {
	row := make(parquet.Row, len(w.columns))
	for i, name := range w.columns {
		v := parquet.NullValue()
		if val, ok := record[name]; ok && val != nil {
			v = goToParquetValue(name, val)
		}
		if v.IsNull() {
			row[i] = v.Level(0, 0, i)
			continue
		}
		row[i] = v.Level(0, 1, i)
	}
	return row
}

func goToParquetValue(column string, val interface{}) parquet.Value {
	kind, _ := metrics.Kind(column)
	switch kind {
	case metrics.KindBool:
		if b, ok := val.(bool); ok {
			return parquet.BooleanValue(b)
		}
	case metrics.KindInt:
		if f, ok := metrics.ToFloat64Ok(val); ok {
			return parquet.Int64Value(int64(f))
		}
	case metrics.KindFloat:
		if f, ok := metrics.ToFloat64Ok(val); ok {
			return parquet.DoubleValue(f)
		}
	default:
		return parquet.ByteArrayValue([]byte(metrics.FormatValue(val)))
	}
	return parquet.NullValue()
}

// Write buffers one record, flushing a full batch to the file.
func (w *ParquetWriter) Write(record metrics.Record) error {
	w.buffer = append(w.buffer, w.recordToRow(record))
	if len(w.buffer) >= ParquetBatchSize {
		return w.flushBuffer()
	}
	return nil
}

func (w *ParquetWriter) flushBuffer() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if _, err := w.writer.WriteRows(w.buffer); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	w.buffer = w.buffer[:0]
	return nil
}

// Close writes pending rows and the footer.
func (w *ParquetWriter) Close() error {
	if err := w.flushBuffer(); err != nil {
		_ = w.file.Close()
		return err
	}
	if err := w.writer.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

func (w *ParquetWriter) Path() string {
	return w.path
}

// ExportParquet converts a monitor CSV log into a parquet file and returns the
// number of rows written.
func ExportParquet(csvPath, parquetPath string, session uuid.UUID) (int, error) {
	records, err := recording.ReadCSV(csvPath)
	if err != nil {
		return 0, err
	}

	w, err := NewParquetWriter(parquetPath, session)
	if err != nil {
		return 0, err
	}
	for i, r := range records {
		if err := w.Write(r); err != nil {
			_ = w.Close()
			return 0, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadParquet loads records and the session id from a parquet export.
func ReadParquet(path string) ([]metrics.Record, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat file: %w", err)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open parquet file: %w", err)
	}
	session, _ := pf.Lookup(SessionKey)

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}

	records := make([]metrics.Record, 0, pf.NumRows())
	rowBuf := make([]parquet.Row, 100)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(rowBuf)
			for i := 0; i < n; i++ {
				record := make(metrics.Record)
				for _, val := range rowBuf[i] {
					col := val.Column()
					if val.IsNull() || col < 0 || col >= len(names) {
						continue
					}
					record[names[col]] = parquetValueToGo(val)
				}
				records = append(records, record)
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					rows.Close()
					return nil, "", fmt.Errorf("failed to read rows: %w", err)
				}
				break
			}
			if n == 0 {
				break
			}
		}
		rows.Close()
	}
	return records, session, nil
}

func parquetValueToGo(v parquet.Value) interface{} {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	default:
		return string(v.ByteArray())
	}
}
