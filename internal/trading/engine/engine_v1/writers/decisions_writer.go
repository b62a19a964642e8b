package writers

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/equity-trader/internal/types"
)

const decisionsSchema = `
	seq BIGINT PRIMARY KEY,
	time TIMESTAMP,
	symbol TEXT,
	action TEXT,
	kind TEXT,
	quantity DOUBLE,
	price DOUBLE,
	request_id BIGINT,
	reason TEXT,
	message TEXT
`

// DecisionsWriter journals every decision, skips included, to decisions.parquet.
type DecisionsWriter struct {
	table parquetTable
}

// NewDecisionsWriter creates a new DecisionsWriter.
func NewDecisionsWriter(outputPath string) *DecisionsWriter {
	return &DecisionsWriter{
		table: newParquetTable(outputPath, "decisions", decisionsSchema, "seq ASC"),
	}
}

// Initialize sets up the decisions writer with DuckDB.
func (w *DecisionsWriter) Initialize() error {
	return w.table.initialize()
}

// Write appends decisions in order.
func (w *DecisionsWriter) Write(decisions ...types.Decision) error {
	if len(decisions) == 0 {
		return nil
	}

	return w.table.inTx(func(tx *sql.Tx, sq squirrel.StatementBuilderType) error {
		var next int64
		if err := tx.QueryRow("SELECT COALESCE(MAX(seq), 0) + 1 FROM decisions").Scan(&next); err != nil {
			return err
		}

		insert := sq.Insert("decisions").
			Columns("seq", "time", "symbol", "action", "kind", "quantity", "price", "request_id", "reason", "message")

		for i, decision := range decisions {
			var requestID sql.NullInt64
			if id, err := decision.RequestID.Take(); err == nil {
				requestID = sql.NullInt64{Int64: id, Valid: true}
			}

			insert = insert.Values(next+int64(i), decision.Time, decision.Symbol, string(decision.Action),
				string(decision.Kind), decision.Quantity, decision.Price, requestID, string(decision.Reason),
				decision.Message)
		}

		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return err
		}

		return nil
	})
}

// Flush forces an export to parquet.
func (w *DecisionsWriter) Flush() error {
	return w.table.flush()
}

// GetOutputPath returns the parquet file path.
func (w *DecisionsWriter) GetOutputPath() string {
	return w.table.outputPath
}

// GetDecisionCount returns the number of decisions stored.
func (w *DecisionsWriter) GetDecisionCount() (int, error) {
	return w.table.count()
}

// Close releases database resources.
func (w *DecisionsWriter) Close() error {
	return w.table.close()
}
