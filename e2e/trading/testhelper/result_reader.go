package testhelper

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/stretchr/testify/require"
)

// TestingT is an interface that matches testing.T
type TestingT interface {
	require.TestingT
	TempDir() string
}

// findFiles returns every file named name below root, sorted by path.
func findFiles(root, name string) ([]string, error) {
	var paths []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && filepath.Base(path) == name {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", name, root)
	}

	sort.Strings(paths)

	return paths, nil
}

// ReadLiveStats reads every stats.yaml below the session folder.
func ReadLiveStats(t TestingT, dataFolder string) []types.LiveTradeStats {
	paths, err := findFiles(dataFolder, "stats.yaml")
	require.NoError(t, err)

	stats := make([]types.LiveTradeStats, 0, len(paths))

	for _, path := range paths {
		s, err := types.ReadLiveTradeStats(path)
		require.NoError(t, err, "failed to read stats file %s", path)

		stats = append(stats, s)
	}

	return stats
}

// ReadDecisions reads the decisions journals below the session folder, in journal order.
func ReadDecisions(t TestingT, dataFolder string) []types.Decision {
	paths, err := findFiles(dataFolder, "decisions.parquet")
	require.NoError(t, err)

	var decisions []types.Decision

	for _, path := range paths {
		fileDecisions, err := readDecisionsFromParquet(path)
		require.NoError(t, err)

		decisions = append(decisions, fileDecisions...)
	}

	return decisions
}

func readDecisionsFromParquet(decisionsPath string) ([]types.Decision, error) {
	db, err := openView(decisionsPath, "decisions_view")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("time", "symbol", "action", "kind", "quantity", "price", "request_id", "reason", "message").
		From("decisions_view").
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []types.Decision

	for rows.Next() {
		var (
			decision  types.Decision
			action    string
			kind      string
			reason    string
			requestID sql.NullInt64
		)

		err := rows.Scan(&decision.Time, &decision.Symbol, &action, &kind,
			&decision.Quantity, &decision.Price, &requestID, &reason, &decision.Message)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision row: %w", err)
		}

		decision.Action = types.DecisionAction(action)
		decision.Kind = types.OrderKind(kind)
		decision.Reason = types.DecisionReason(reason)
		decision.RequestID = optional.None[int64]()

		if requestID.Valid {
			decision.RequestID = optional.Some(requestID.Int64)
		}

		decisions = append(decisions, decision)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision rows: %w", err)
	}

	return decisions, nil
}

// ReadOrders reads the orders journals below the session folder, filtered by symbol when set.
func ReadOrders(t TestingT, dataFolder string, symbol string) []types.Order {
	paths, err := findFiles(dataFolder, "orders.parquet")
	require.NoError(t, err)

	var orders []types.Order

	for _, path := range paths {
		fileOrders, err := readOrdersFromParquet(path, symbol)
		require.NoError(t, err)

		orders = append(orders, fileOrders...)
	}

	return orders
}

func readOrdersFromParquet(ordersPath string, symbol string) ([]types.Order, error) {
	db, err := openView(ordersPath, "orders_view")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("request_id", "symbol", "action", "kind", "quantity", "limit_price", "trail_percent", "status", "submitted_at").
		From("orders_view").
		OrderBy("request_id ASC")

	if symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": symbol})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []types.Order

	for rows.Next() {
		var (
			order  types.Order
			action string
			kind   string
			status string
		)

		err := rows.Scan(&order.RequestID, &order.Symbol, &action, &kind, &order.Quantity,
			&order.LimitPrice, &order.TrailPercent, &status, &order.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}

		order.Action = types.OrderAction(action)
		order.Kind = types.OrderKind(kind)
		order.Status = types.OrderStatus(status)

		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	return orders, nil
}

// ReadAuditLines returns the non-empty lines of an audit file, or nil when it does not exist.
func ReadAuditLines(t TestingT, path string) []string {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(t, err)
	defer file.Close()

	var lines []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	require.NoError(t, scanner.Err())

	return lines
}

func openView(parquetPath, view string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	createViewSQL := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet('%s');`,
		view, strings.ReplaceAll(parquetPath, "'", "''"))
	if _, err := db.Exec(createViewSQL); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create view from parquet file: %w", err)
	}

	return db, nil
}
