package converter

import (
	"encoding/binary"
	"fmt"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/bedparquet/interval"
	"github.com/hashicorp/go-multierror"
)

// Row is one output row.  Positions keep the 1-based values of the
// interval.Record they came from.
type Row struct {
	RefName string
	Start   uint64
	End     uint64
}

// FromRecord converts a parsed BED record to a Row.
func FromRecord(rec interval.Record) Row {
	return Row{
		RefName: rec.RefName,
		Start:   rec.Start.Uint64(),
		End:     rec.End.Uint64(),
	}
}

// SkipReport describes the BED lines that Collect dropped.
type SkipReport struct {
	// Records is the number of rows collected.
	Records int
	// Skipped is the number of malformed lines dropped.
	Skipped int
	errs    *multierror.Error
}

func (s *SkipReport) add(err *interval.ParseError) {
	s.Skipped++
	s.errs = multierror.Append(s.errs, err)
}

// Err returns the parse errors of all skipped lines combined, or nil if no
// line was skipped.
func (s SkipReport) Err() error {
	return s.errs.ErrorOrNil()
}

// String summarizes the report for logging.
func (s SkipReport) String() string {
	return fmt.Sprintf("%d record(s) kept, %d malformed line(s) skipped", s.Records, s.Skipped)
}

// Collect reads every record from r and returns the mapped rows in input
// order.  Malformed lines are dropped and accounted for in the SkipReport;
// any other error stops the read and is returned.
func Collect(r *interval.Reader) ([]Row, SkipReport, error) {
	var (
		rows   []Row
		report SkipReport
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			perr, ok := err.(*interval.ParseError)
			if !ok {
				return nil, report, err
			}
			log.Debug.Printf("converter: skipping %v", perr)
			report.add(perr)
			continue
		}
		rows = append(rows, FromRecord(rec))
	}
	report.Records = len(rows)
	return rows, report, nil
}

// Digest computes an order-sensitive checksum of rows.  Identical row
// sequences have identical digests.
func Digest(rows []Row) uint64 {
	h := seahash.New()
	// The name length keeps "ab"+"c" and "a"+"bc" apart.
	var buf [24]byte
	for _, row := range rows {
		binary.LittleEndian.PutUint64(buf[:8], uint64(len(row.RefName)))
		binary.LittleEndian.PutUint64(buf[8:16], row.Start)
		binary.LittleEndian.PutUint64(buf[16:], row.End)
		h.Write(buf[:8])
		h.Write(gunsafe.StringToBytes(row.RefName))
		h.Write(buf[8:])
	}
	return h.Sum64()
}
