package converter

// Utility for converting BED to Parquet.

import (
	"bytes"
	"context"
	"io/ioutil"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bedparquet/interval"
	"github.com/klauspost/compress/gzip"
)

// Opts controls ConvertToParquet.
type Opts struct {
	// StrictRecords makes a malformed BED line fail the conversion.  By
	// default malformed lines are dropped and only counted in the SkipReport.
	StrictRecords bool
}

// DefaultOpts is the default ConvertToParquet configuration.
var DefaultOpts = Opts{}

// ReadInput loads the whole BED file at path into memory, decompressing it
// if the path names a gzip file.
func ReadInput(ctx context.Context, path string) ([]byte, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "converter: read", path)
	}
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.E(err, "converter: gunzip", path)
		}
		if data, err = ioutil.ReadAll(zr); err != nil {
			return nil, errors.E(err, "converter: gunzip", path)
		}
		if err = zr.Close(); err != nil {
			return nil, errors.E(err, "converter: gunzip", path)
		}
	}
	return data, nil
}

// ConvertToParquet reads the BED file at bedPath and writes its intervals to
// parquetPath.  The whole input is buffered before anything is written.  The
// returned SkipReport is valid whenever the input was read, even if the
// conversion failed afterwards.
func ConvertToParquet(ctx context.Context, opts Opts, bedPath, parquetPath string) (SkipReport, error) {
	if bedPath == "" {
		return SkipReport{}, errors.E(errors.Invalid, "converter: empty BED path")
	}
	if parquetPath == "" {
		return SkipReport{}, errors.E(errors.Invalid, "converter: empty parquet path")
	}
	data, err := ReadInput(ctx, bedPath)
	if err != nil {
		return SkipReport{}, err
	}
	rows, report, err := Collect(interval.NewReader(bytes.NewReader(data)))
	if err != nil {
		return report, errors.E(err, "converter: parse", bedPath)
	}
	if report.Skipped > 0 {
		if opts.StrictRecords {
			return report, errors.E(errors.Invalid, "converter: malformed records in", bedPath, report.Err())
		}
		log.Printf("%v: %d malformed line(s) skipped", bedPath, report.Skipped)
	}
	if err := WriteParquet(ctx, rows, parquetPath); err != nil {
		return report, err
	}
	log.Printf("%v: wrote %d rows to %v (digest %016x)", bedPath, len(rows), parquetPath, Digest(rows))
	return report, nil
}
