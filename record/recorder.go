// Package record stores per-access simulation results in a SQLite database.
package record

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/sim"
)

// DefaultBatchSize is the number of buffered accesses that triggers a flush.
const DefaultBatchSize = 100000

const schema = `
CREATE TABLE access (
	run_id    TEXT,
	seq       INTEGER,
	op        TEXT,
	address   INTEGER,
	size      INTEGER,
	set_index INTEGER,
	tag       INTEGER,
	result    TEXT
);
CREATE INDEX access_set ON access (run_id, set_index);
CREATE TABLE run (
	run_id     TEXT PRIMARY KEY,
	set_bits   INTEGER,
	lines      INTEGER,
	block_bits INTEGER,
	hits       INTEGER,
	misses     INTEGER,
	evictions  INTEGER
);
`

const insertAccess = `INSERT INTO access VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const insertRun = `INSERT INTO run VALUES (?, ?, ?, ?, ?, ?, ?)`

type accessEntry struct {
	seq      uint64
	op       string
	address  uint64
	size     uint64
	setIndex uint64
	tag      uint64
	result   string
}

// SQLiteRecorder buffers processed records and writes them to SQLite in
// batched transactions.
type SQLiteRecorder struct {
	*sql.DB

	runID     string
	batchSize int
	entries   []accessEntry
	err       error
}

// Compile-time check that SQLiteRecorder implements sim.Observer.
var _ sim.Observer = (*SQLiteRecorder)(nil)

// New creates the database file at path. It refuses to overwrite an existing
// file. Buffered entries are flushed on atexit.Exit as well as on Close.
func New(path string) (*SQLiteRecorder, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening recording database: %w", err)
	}

	r, err := NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

// NewWithDB creates a recorder on an open database and creates its tables.
func NewWithDB(db *sql.DB) (*SQLiteRecorder, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating recording tables: %w", err)
	}

	r := &SQLiteRecorder{
		DB:        db,
		runID:     xid.New().String(),
		batchSize: DefaultBatchSize,
	}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// RunID returns the identifier every row of this run carries.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

// SetBatchSize changes the flush threshold.
func (r *SQLiteRecorder) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	r.batchSize = n
}

// Observe buffers one processed record.
func (r *SQLiteRecorder) Observe(event sim.Event) {
	results := make([]string, len(event.Results))
	for i, c := range event.Results {
		results[i] = c.String()
	}

	r.entries = append(r.entries, accessEntry{
		seq:      event.Seq,
		op:       event.Record.Op.String(),
		address:  event.Record.Address,
		size:     event.Record.Size,
		setIndex: event.SetIndex,
		tag:      event.Tag,
		result:   strings.Join(results, " "),
	})

	if len(r.entries) >= r.batchSize {
		if err := r.Flush(); err != nil && r.err == nil {
			r.err = err
		}
	}
}

// Flush writes every buffered entry in one transaction.
func (r *SQLiteRecorder) Flush() error {
	if len(r.entries) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertAccess)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.entries {
		// SQLite integers are signed; addresses are stored bit for bit.
		_, err := stmt.Exec(r.runID, int64(e.seq), e.op, int64(e.address),
			int64(e.size), int64(e.setIndex), int64(e.tag), e.result)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting access %d: %w", e.seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing accesses: %w", err)
	}

	r.entries = r.entries[:0]
	return nil
}

// Summary records the geometry and final counters of the run.
func (r *SQLiteRecorder) Summary(g cache.Geometry, c cache.Counters) error {
	_, err := r.Exec(insertRun, r.runID,
		int64(g.SetIndexBits), int64(g.Associativity), int64(g.BlockOffsetBits),
		int64(c.Hits), int64(c.Misses), int64(c.Evictions))
	if err != nil {
		return fmt.Errorf("recording run summary: %w", err)
	}
	return nil
}

// Err returns the first error hit by a flush triggered from Observe.
func (r *SQLiteRecorder) Err() error {
	return r.err
}

// Close flushes buffered entries and closes the database.
func (r *SQLiteRecorder) Close() error {
	flushErr := r.Flush()
	closeErr := r.DB.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
