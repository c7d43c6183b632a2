package interval

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	gunsafe "github.com/grailbio/base/unsafe"
)

// Position is a 1-based genomic coordinate.  The zero value is not a valid
// position.
type Position uint64

// MaxPosition is the largest coordinate a Position may hold.  It is bounded
// by the signed 64-bit integer columns positions are eventually stored in,
// not by the width of Position itself.
const MaxPosition Position = math.MaxInt64

// Uint64 returns p as a plain integer, without re-basing.
func (p Position) Uint64() uint64 { return uint64(p) }

// Record is one BED3 interval.  Start and End are 1-based and inclusive, so
// the BED line "chr1\t7\t13" becomes {chr1, 8, 13}.  A zero-length BED
// interval ("chr1\t5\t5") keeps its shape and becomes {chr1, 6, 5}, so
// End == Start-1 marks an empty interval.
type Record struct {
	RefName string
	Start   Position
	End     Position
}

// String renders the record in region notation, e.g. "chr1:8-13".
func (r Record) String() string {
	return fmt.Sprintf("%s:%d-%d", r.RefName, r.Start, r.End)
}

// ParseError describes a BED line that could not be turned into a Record.
// Reader keeps going after returning one.
type ParseError struct {
	// Line is the 1-based line number within the input.
	Line int
	// Text is a copy of the offending line.
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("interval: line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error { return e.Err }

// maxLineLen bounds a line, terminator included.  Longer lines are consumed
// and reported as a *ParseError; the lines after them are still read.
const maxLineLen = 1 << 20

// maxErrText bounds ParseError.Text for overlong lines.
const maxErrText = 64

// Reader reads BED3 records from a text stream.  Columns past the third are
// ignored.  A line longer than 1 MiB is reported as a *ParseError.
type Reader struct {
	in      *bufio.Reader
	lineIdx int
	tokens  [3][]byte
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return newReaderSize(r, maxLineLen)
}

func newReaderSize(r io.Reader, size int) *Reader {
	return &Reader{in: bufio.NewReaderSize(r, size)}
}

// nextLine returns the next line without its terminator.  The slice is only
// valid until the following call.  A line that does not fit in the buffer is
// consumed up to its newline; only its head is returned, with tooLong set.
func (r *Reader) nextLine() (line []byte, tooLong bool, err error) {
	line, err = r.in.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		head := append([]byte(nil), line[:min(len(line), maxErrText)]...)
		for err == bufio.ErrBufferFull {
			_, err = r.in.ReadSlice('\n')
		}
		if err != nil && err != io.EOF {
			return nil, false, err
		}
		return head, true, nil
	}
	if err == io.EOF {
		if len(line) == 0 {
			return nil, false, io.EOF
		}
		err = nil
	}
	if err != nil {
		return nil, false, err
	}
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return line[:n], false, nil
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// isHeader reports whether a line starting with token is a comment, track or
// browser line rather than an interval.
func isHeader(token []byte) bool {
	if token[0] == '#' {
		return true
	}
	s := gunsafe.BytesToString(token)
	return s == "track" || s == "browser"
}

// Read returns the next record.  It returns io.EOF once the input is
// exhausted, and a *ParseError for a malformed line; the caller may keep
// calling Read after a *ParseError.  Any other error comes from the
// underlying reader and is final.
func (r *Reader) Read() (Record, error) {
	for {
		curLine, tooLong, err := r.nextLine()
		if err != nil {
			return Record{}, err
		}
		r.lineIdx++
		if tooLong {
			return Record{}, r.parseError(curLine, fmt.Errorf("line longer than %d bytes", r.in.Size()))
		}
		nToken := getTokens(r.tokens[:], curLine)
		if nToken == 0 || isHeader(r.tokens[0]) {
			continue
		}
		if nToken != 3 {
			return Record{}, r.parseError(curLine, fmt.Errorf("expected at least 3 columns, found %d", nToken))
		}
		rec, err := r.parseTokens()
		if err != nil {
			return Record{}, r.parseError(curLine, err)
		}
		return rec, nil
	}
}

// parseTokens converts the current chrom/start/end tokens.  BED coordinates
// are 0-based half-open; the start is shifted by one so that both ends are
// 1-based inclusive.  Only end < start is rejected; empty intervals pass.
func (r *Reader) parseTokens() (Record, error) {
	start0, err := strconv.ParseUint(gunsafe.BytesToString(r.tokens[1]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("start: %v", err)
	}
	if start0 >= uint64(MaxPosition) {
		return Record{}, fmt.Errorf("start %d out of range", start0)
	}
	end, err := strconv.ParseUint(gunsafe.BytesToString(r.tokens[2]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("end: %v", err)
	}
	if end == 0 || end > uint64(MaxPosition) {
		return Record{}, fmt.Errorf("end %d out of range", end)
	}
	if end < start0 {
		return Record{}, fmt.Errorf("invalid coordinate pair [%d, %d)", start0, end)
	}
	return Record{
		// Copy: the token aliases the reader's buffer.
		RefName: string(r.tokens[0]),
		Start:   Position(start0 + 1),
		End:     Position(end),
	}, nil
}

func (r *Reader) parseError(curLine []byte, err error) *ParseError {
	return &ParseError{Line: r.lineIdx, Text: string(curLine), Err: err}
}
