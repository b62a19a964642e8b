package writers

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/equity-trader/internal/types"
)

const ordersSchema = `
	request_id BIGINT PRIMARY KEY,
	symbol TEXT,
	action TEXT,
	kind TEXT,
	quantity DOUBLE,
	limit_price DOUBLE,
	trail_percent DOUBLE,
	status TEXT,
	submitted_at TIMESTAMP
`

// OrdersWriter journals submitted orders and their reported status to orders.parquet.
type OrdersWriter struct {
	table parquetTable
}

// NewOrdersWriter creates a new OrdersWriter.
// outputPath is the full path to the parquet file.
func NewOrdersWriter(outputPath string) *OrdersWriter {
	return &OrdersWriter{
		table: newParquetTable(outputPath, "orders", ordersSchema, "request_id ASC"),
	}
}

// Initialize sets up the orders writer with DuckDB.
func (w *OrdersWriter) Initialize() error {
	return w.table.initialize()
}

// Write upserts orders by request id. A row for a known id keeps its submission
// time and takes the newer status.
func (w *OrdersWriter) Write(orders ...types.Order) error {
	return w.table.inTx(func(tx *sql.Tx, sq squirrel.StatementBuilderType) error {
		for _, order := range orders {
			_, err := sq.Insert("orders").
				Columns("request_id", "symbol", "action", "kind", "quantity", "limit_price",
					"trail_percent", "status", "submitted_at").
				Values(order.RequestID, order.Symbol, string(order.Action), string(order.Kind), order.Quantity,
					order.LimitPrice, order.TrailPercent, string(order.Status), order.SubmittedAt).
				Suffix("ON CONFLICT (request_id) DO UPDATE SET status = excluded.status, quantity = excluded.quantity").
				RunWith(tx).
				Exec()
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// Flush forces an export to parquet.
func (w *OrdersWriter) Flush() error {
	return w.table.flush()
}

// GetOutputPath returns the parquet file path.
func (w *OrdersWriter) GetOutputPath() string {
	return w.table.outputPath
}

// GetOrderCount returns the number of orders stored.
func (w *OrdersWriter) GetOrderCount() (int, error) {
	return w.table.count()
}

// Close releases database resources.
func (w *OrdersWriter) Close() error {
	return w.table.close()
}
