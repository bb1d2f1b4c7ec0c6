// Package record stores every simulated access in a SQLite database so runs
// can be inspected after the fact.
package record

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/structs"
	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// TableName is the table all accesses are written to.
const TableName = "accesses"

const defaultBatchSize = 100000

// Entry is one row of the accesses table. Addresses and tags are stored as
// hexadecimal text because SQLite integers are signed.
type Entry struct {
	Seq        uint64
	Op         string
	Address    string
	SetIndex   int
	Way        int
	Tag        string
	Kind       string
	EvictedTag string
}

// Recorder buffers entries and writes them to SQLite in batches.
type Recorder struct {
	db         *sql.DB
	path       string
	insertStmt string
	batchSize  int
	pending    []Entry
	closed     bool
}

// Option is a functional option for configuring the Recorder.
type Option func(*Recorder)

// WithBatchSize sets how many entries are buffered before a flush.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// New creates a database at path with an empty accesses table. An empty path
// picks a unique file name in the working directory. The file must not exist.
func New(path string, opts ...Option) (*Recorder, error) {
	if path == "" {
		path = "csim_" + xid.New().String() + ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	names := structs.Names(Entry{})
	r := &Recorder{
		db:        db,
		path:      path,
		batchSize: defaultBatchSize,
		insertStmt: `INSERT INTO ` + TableName + ` VALUES (` +
			strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + `)`,
	}

	for _, opt := range opts {
		opt(r)
	}

	createTableSQL := `CREATE TABLE ` + TableName +
		` (` + "\n\t" + strings.Join(names, ", \n\t") + "\n" + `);`
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return r, nil
}

// Path returns the database file path.
func (r *Recorder) Path() string {
	return r.path
}

// ObserveEvent buffers one entry per access of the event.
func (r *Recorder) ObserveEvent(
	seq uint64,
	event trace.Event,
	outcomes []cache.Outcome,
) error {
	for _, o := range outcomes {
		entry := Entry{
			Seq:      seq,
			Op:       event.Op.String(),
			Address:  hex(event.Address),
			SetIndex: o.SetIndex,
			Way:      o.Way,
			Tag:      hex(o.Tag),
			Kind:     o.Kind.String(),
		}
		if o.Kind == cache.MissEvict {
			entry.EvictedTag = hex(o.EvictedTag)
		}

		r.pending = append(r.pending, entry)
	}

	if len(r.pending) >= r.batchSize {
		return r.Flush()
	}

	return nil
}

// Flush writes all buffered entries in one transaction.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(r.insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	for _, entry := range r.pending {
		if _, err := stmt.Exec(structs.Values(entry)...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()

			return fmt.Errorf("failed to insert entry %d: %w", entry.Seq, err)
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to close insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.pending = r.pending[:0]

	return nil
}

// Close flushes pending entries and closes the database. Calling Close more
// than once is a no-op.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	return errors.Join(r.Flush(), r.db.Close())
}

// Count returns the number of rows written so far.
func (r *Recorder) Count() (int, error) {
	var n int

	err := r.db.QueryRow(`SELECT COUNT(*) FROM ` + TableName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	return n, nil
}

// Summary rebuilds the run statistics from the rows written so far.
func (r *Recorder) Summary() (cache.Statistics, error) {
	rows, err := r.db.Query(`SELECT Kind, COUNT(*) FROM ` + TableName + ` GROUP BY Kind`)
	if err != nil {
		return cache.Statistics{}, fmt.Errorf("failed to query summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats cache.Statistics
	for rows.Next() {
		var (
			kind  string
			count uint64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return cache.Statistics{}, fmt.Errorf("failed to scan summary: %w", err)
		}

		switch kind {
		case cache.Hit.String():
			stats.Hits += count
		case cache.MissFill.String():
			stats.Misses += count
		case cache.MissEvict.String():
			stats.Misses += count
			stats.Evictions += count
		}
	}

	return stats, rows.Err()
}

func hex(v uint64) string {
	return strconv.FormatUint(v, 16)
}
