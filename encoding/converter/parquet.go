package converter

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/bedparquet/interval"
	"github.com/parquet-go/parquet-go"
)

// parquetRow is the on-disk layout of a Row.  Parquet has no unsigned 64-bit
// physical type, so positions are stored as INT64; interval.MaxPosition keeps
// them in range.  Columns are matched by name, not by field order.
type parquetRow struct {
	RefName string `parquet:"reference_sequence_name"`
	Start   int64  `parquet:"start_position"`
	End     int64  `parquet:"end_position"`
}

// The footer's created_by field.  It carries no build or time
// information, so identical input yields identical files.
const (
	createdBy        = "bio-bed2parquet"
	createdByVersion = "1.0.0"
)

// columnOrder is the column order of the output schema.
var columnOrder = []string{"reference_sequence_name", "start_position", "end_position"}

// orderedGroup is a parquet.Group with a fixed field order; the map-based
// Group lists its fields sorted by name.
type orderedGroup struct {
	parquet.Node
	fields []parquet.Field
}

func (g orderedGroup) Fields() []parquet.Field { return g.fields }

func newOrderedGroup(g parquet.Group, order []string) (orderedGroup, error) {
	if len(g) != len(order) {
		return orderedGroup{}, fmt.Errorf("%d fields, %d names", len(g), len(order))
	}
	byName := make(map[string]parquet.Field, len(g))
	for _, f := range g.Fields() {
		byName[f.Name()] = f
	}
	fields := make([]parquet.Field, len(order))
	for i, name := range order {
		f, ok := byName[name]
		if !ok {
			return orderedGroup{}, fmt.Errorf("no field %q", name)
		}
		fields[i] = f
	}
	return orderedGroup{Node: g, fields: fields}, nil
}

var (
	schemaOnce sync.Once
	schema     *parquet.Schema
	schemaErr  error
)

// Schema returns the output schema:
//
//	message schema {
//	  REQUIRED BYTE_ARRAY reference_sequence_name (UTF8);
//	  REQUIRED INT64 start_position;
//	  REQUIRED INT64 end_position;
//	}
//
// The positions are plain INT64 leaves with no logical or converted type
// annotation.  The schema is built on first use and shared afterwards.
func Schema() (*parquet.Schema, error) {
	schemaOnce.Do(func() {
		// parquet.NewSchema panics on a malformed node; that is a build defect,
		// but it is still reported as an error.
		defer func() {
			if r := recover(); r != nil {
				schema = nil
				schemaErr = errors.E(errors.Invalid, fmt.Sprintf("converter: building parquet schema: %v", r))
			}
		}()
		root, err := newOrderedGroup(parquet.Group{
			"reference_sequence_name": parquet.String(),
			"start_position":          parquet.Leaf(parquet.Int64Type),
			"end_position":            parquet.Leaf(parquet.Int64Type),
		}, columnOrder)
		if err != nil {
			schemaErr = errors.E(errors.Invalid, "converter: building parquet schema", err)
			return
		}
		schema = parquet.NewSchema("schema", root)
	})
	return schema, schemaErr
}

func toParquetRows(rows []Row) ([]parquetRow, error) {
	out := make([]parquetRow, len(rows))
	for i, row := range rows {
		if row.Start > interval.MaxPosition.Uint64() || row.End > interval.MaxPosition.Uint64() {
			return nil, errors.E(errors.Invalid,
				fmt.Sprintf("converter: row %d (%s:%d-%d) exceeds the maximum position %d",
					i, row.RefName, row.Start, row.End, interval.MaxPosition))
		}
		out[i] = parquetRow{
			RefName: row.RefName,
			Start:   int64(row.Start),
			End:     int64(row.End),
		}
	}
	return out, nil
}

// WriteParquet writes rows to path as a Parquet file with a single row group.
// When rows is empty the file holds only the footer: the schema and zero row
// groups.  An existing file at path is replaced.  The output file is closed before
// WriteParquet returns, whether or not it succeeds; on failure its contents
// are undefined.
func WriteParquet(ctx context.Context, rows []Row, path string) (err error) {
	s, err := Schema()
	if err != nil {
		return err
	}
	records, err := toParquetRows(rows)
	if err != nil {
		return err
	}
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "converter: create", path)
	}
	defer file.CloseAndReport(ctx, out, &err)

	w := parquet.NewGenericWriter[parquetRow](out.Writer(ctx), s, parquet.CreatedBy(createdBy, createdByVersion, ""))
	// All rows go into the writer's one open row group; Flush closes it.
	if _, err = w.Write(records); err != nil {
		return errors.E(err, "converter: write rows", path)
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "converter: close row group", path)
	}
	if err = w.Close(); err != nil {
		return errors.E(err, "converter: write footer", path)
	}
	return nil
}

// ReadParquet reads back a file produced by WriteParquet.
func ReadParquet(ctx context.Context, path string) ([]Row, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "converter: read", path)
	}
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	records, err := parquet.Read[parquetRow](bytes.NewReader(data), int64(len(data)), s)
	if err != nil {
		return nil, errors.E(err, "converter: decode", path)
	}
	rows := make([]Row, len(records))
	for i, rec := range records {
		if rec.Start < 0 || rec.End < 0 {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("converter: %s: negative position in row %d", path, i))
		}
		rows[i] = Row{
			RefName: rec.RefName,
			Start:   uint64(rec.Start),
			End:     uint64(rec.End),
		}
	}
	return rows, nil
}
