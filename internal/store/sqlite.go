package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"factorygpt/internal/domain"
)

// SQLiteDB implements FactoryDB over a SQLite database file.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLite opens the factory database at the given path.
func NewSQLite(dbPath string) (FactoryDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Query runs a single read statement and materializes the full row set with
// column order preserved.
func (s *SQLiteDB) Query(ctx context.Context, query string) (domain.QueryResult, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("read columns: %w", err)
	}

	var result domain.QueryResult
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.QueryResult{}, fmt.Errorf("scan row: %w", err)
		}

		row := domain.Row{
			Columns: append([]string(nil), columns...),
			Values:  make(map[string]any, len(columns)),
		}
		for i, col := range columns {
			row.Values[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.QueryResult{}, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// normalizeValue converts driver byte slices to strings so downstream
// formatting sees plain scalars.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Tables lists non-system tables. System and internal SQLite tables are
// excluded the same way the original schema discovery skipped sys tables.
func (s *SQLiteDB) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		  AND lower(name) NOT LIKE 'sys%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns lists one table's columns in declaration order.
func (s *SQLiteDB) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// SchemaDescription renders every table as CREATE TABLE text for prompt use.
func (s *SQLiteDB) SchemaDescription(ctx context.Context) (string, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, table := range tables {
		cols, err := s.Columns(ctx, table)
		if err != nil {
			return "", err
		}
		if len(cols) == 0 {
			continue
		}
		lines := make([]string, 0, len(cols))
		for _, c := range cols {
			lines = append(lines, fmt.Sprintf("    %s %s", c.Name, strings.ToUpper(c.Type)))
		}
		parts = append(parts, fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(lines, ",\n")))
	}
	return strings.Join(parts, "\n\n"), nil
}

// DistinctValues scans the distinct non-null, non-empty values of a column.
// Identifiers come from schema introspection, not user input, but are quoted
// anyway.
func (s *SQLiteDB) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND %s != ''`,
		quoteIdent(column), quoteIdent(table), quoteIdent(column), quoteIdent(column))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct values %s.%s: %w", table, column, err)
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Ping verifies database connectivity.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Exec is exposed for fixtures and tooling; the engine itself never calls it.
func (s *SQLiteDB) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}
