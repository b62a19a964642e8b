package writers

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// parquetTable is an in-memory DuckDB table mirrored to a parquet file after every write.
type parquetTable struct {
	db         *sql.DB
	outputPath string
	name       string
	schema     string
	orderBy    string
	sq         squirrel.StatementBuilderType
	mu         sync.Mutex
}

func newParquetTable(outputPath, name, schema, orderBy string) parquetTable {
	return parquetTable{
		db:         nil,
		outputPath: outputPath,
		name:       name,
		schema:     schema,
		orderBy:    orderBy,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		mu:         sync.Mutex{},
	}
}

// initialize opens DuckDB, creates the table and loads rows from an existing parquet file.
func (t *parquetTable) initialize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(t.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create data directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to open DuckDB connection", err)
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.name, t.schema)); err != nil {
		db.Close()

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create %s table", t.name)
	}

	t.db = db

	// A file left by an earlier writer in the same run folder is resumed; an unreadable one is replaced.
	if _, err := os.Stat(t.outputPath); err == nil {
		_, _ = t.db.Exec(fmt.Sprintf("INSERT INTO %s SELECT * FROM read_parquet('%s') ON CONFLICT DO NOTHING",
			t.name, quotePath(t.outputPath)))
	}

	return nil
}

// inTx runs fn in a transaction and exports the table afterwards.
func (t *parquetTable) inTx(fn func(tx *sql.Tx, sq squirrel.StatementBuilderType) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	tx, err := t.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	if err := fn(tx, t.sq); err != nil {
		_ = tx.Rollback()

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write %s", t.name)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit transaction", err)
	}

	return t.exportLocked()
}

func (t *parquetTable) flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	return t.exportLocked()
}

func (t *parquetTable) count() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return 0, errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	var count int
	if err := t.db.QueryRow("SELECT COUNT(*) FROM " + t.name).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to count %s", t.name)
	}

	return count, nil
}

func (t *parquetTable) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.db == nil {
		return nil
	}

	err := t.db.Close()
	t.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to close database", err)
	}

	return nil
}

func (t *parquetTable) exportLocked() error {
	_, err := t.db.Exec(fmt.Sprintf("COPY (SELECT * FROM %s ORDER BY %s) TO '%s' (FORMAT PARQUET)",
		t.name, t.orderBy, quotePath(t.outputPath)))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export %s to parquet", t.name)
	}

	return nil
}

func quotePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
