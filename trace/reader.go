package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// MaxLineLength is the longest line the Reader tries to parse. Longer lines
// are drained and counted as malformed.
const MaxLineLength = 64 * 1024

// Stats counts what a Reader has consumed.
type Stats struct {
	// Lines is the number of input lines read, blank ones included.
	Lines uint64
	// Records is the number of data records returned by Next.
	Records uint64
	// Instructions is the number of instruction fetches skipped.
	Instructions uint64
	// Malformed is the number of non-blank lines that did not parse,
	// over-long lines included.
	Malformed uint64
}

// Reader streams data records from a trace. Instruction fetches and lines
// that do not parse are counted and skipped.
type Reader struct {
	input   *bufio.Reader
	closers []io.Closer
	logger  *zap.Logger
	stats   Stats
	err     error
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger that reports skipped lines at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	reader := &Reader{
		input:  bufio.NewReader(r),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

// Open opens a trace file. Files ending in .zst are decompressed on the fly.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}

	if !strings.HasSuffix(path, ".zst") {
		reader := NewReader(f, opts...)
		reader.closers = append(reader.closers, f)
		return reader, nil
	}

	decoder, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	reader := NewReader(decoder, opts...)
	reader.closers = append(reader.closers, decoder.IOReadCloser(), f)
	return reader, nil
}

// Next returns the next load, store, or modify record. The boolean result is
// false at the end of the trace or on a read error; check Err afterwards.
func (r *Reader) Next() (Record, bool) {
	if r.err != nil {
		return Record{}, false
	}

	for {
		line, tooLong, err := r.readLine()
		if errors.Is(err, io.EOF) {
			return Record{}, false
		}
		if err != nil {
			r.err = fmt.Errorf("reading trace line %d: %w", r.stats.Lines+1, err)
			return Record{}, false
		}

		r.stats.Lines++

		if tooLong {
			r.stats.Malformed++
			r.logger.Debug("skipping over-long trace line",
				zap.Uint64("line", r.stats.Lines),
			)
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, ok := ParseLine(line)
		if !ok {
			r.stats.Malformed++
			r.logger.Debug("skipping malformed trace line",
				zap.Uint64("line", r.stats.Lines),
				zap.String("text", line),
			)
			continue
		}

		if rec.Op == Instruction {
			r.stats.Instructions++
			continue
		}

		r.stats.Records++
		return rec, true
	}
}

// readLine returns the next line without its terminator. A line longer than
// MaxLineLength is consumed in full but reported only as tooLong. io.EOF is
// returned once no bytes are left.
func (r *Reader) readLine() (line string, tooLong bool, err error) {
	var buf []byte
	read := false

	for {
		chunk, err := r.input.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}

		if !tooLong {
			if len(buf)+len(chunk) > MaxLineLength+2 {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !read {
				return "", false, io.EOF
			}
		case err != nil:
			return "", false, err
		}

		return strings.TrimRight(string(buf), "\r\n"), tooLong, nil
	}
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.err
}

// Stats returns the counts so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Close releases the underlying file and decoder, if the Reader owns them.
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
