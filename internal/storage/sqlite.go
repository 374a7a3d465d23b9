package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/feedergraph/feedergraph/internal/energy"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection holding house metric values.
type DB struct {
	db *sql.DB
}

var _ energy.Source = (*DB)(nil)

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One value per house, period, metric and column (month_MM or slot_HH_MM)
		CREATE TABLE IF NOT EXISTS metric_values (
			house_id INTEGER NOT NULL,
			period TEXT NOT NULL,
			metric TEXT NOT NULL,
			column_name TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (house_id, period, metric, column_name)
		);

		CREATE INDEX IF NOT EXISTS idx_metric_values_house ON metric_values(house_id, period);
	`
	_, err := db.Exec(schema)
	return err
}

// ImportJSONL replaces every row of period with the rows read from a
// compact wide-format JSONL file. It returns the number of rows imported.
func (d *DB) ImportJSONL(ctx context.Context, period energy.Period, jsonlPath string) (int, error) {
	rows, err := ReadMetricRows(jsonlPath, period)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	if err := d.ReplaceRows(ctx, period, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ReplaceRows clears period and inserts rows in one transaction.
func (d *DB) ReplaceRows(ctx context.Context, period energy.Period, rows []energy.Row) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM metric_values WHERE period = ?", string(period)); err != nil {
		return fmt.Errorf("clearing %s values: %w", period, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO metric_values (house_id, period, metric, column_name, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		for col, v := range row.Values {
			if _, err := stmt.ExecContext(ctx, row.HouseID, string(period), row.Metric, col, v); err != nil {
				return fmt.Errorf("inserting house %d %s: %w", row.HouseID, row.Metric, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Rows returns one row per metric stored for houseID, ordered by metric.
func (d *DB) Rows(ctx context.Context, period energy.Period, houseID int) ([]energy.Row, error) {
	rs, err := d.db.QueryContext(ctx, `
		SELECT metric, column_name, value FROM metric_values
		WHERE house_id = ? AND period = ?
		ORDER BY metric, column_name
	`, houseID, string(period))
	if err != nil {
		return nil, fmt.Errorf("querying metric values: %w", err)
	}
	defer rs.Close()

	var rows []energy.Row
	for rs.Next() {
		var metric, col string
		var v float64
		if err := rs.Scan(&metric, &col, &v); err != nil {
			return nil, fmt.Errorf("scanning metric value: %w", err)
		}
		if len(rows) == 0 || rows[len(rows)-1].Metric != metric {
			rows = append(rows, energy.Row{HouseID: houseID, Metric: metric, Values: make(map[string]float64)})
		}
		rows[len(rows)-1].Values[col] = v
	}
	return rows, rs.Err()
}

// Houses returns the ids of every house with stored values.
func (d *DB) Houses(ctx context.Context) ([]int, error) {
	rs, err := d.db.QueryContext(ctx, "SELECT DISTINCT house_id FROM metric_values ORDER BY house_id")
	if err != nil {
		return nil, fmt.Errorf("querying houses: %w", err)
	}
	defer rs.Close()

	var ids []int
	for rs.Next() {
		var id int
		if err := rs.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning house id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rs.Err()
}

// Count returns the number of stored values.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM metric_values").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting metric values: %w", err)
	}
	return n, nil
}
