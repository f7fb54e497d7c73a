// Package store provides read-only access to the factory operations database.
package store

import (
	"context"

	"factorygpt/internal/domain"
)

// Column describes one column of a factory table.
type Column struct {
	Name string
	Type string
}

// FactoryDB defines the data-source operations the engine consumes. Every
// call is a scoped read: the store never mutates factory data.
type FactoryDB interface {
	// Query runs a vetted SQL statement and returns the ordered row set.
	Query(ctx context.Context, query string) (domain.QueryResult, error)

	// Tables lists the non-system tables in the database.
	Tables(ctx context.Context) ([]string, error)

	// Columns lists the columns of one table in declaration order.
	Columns(ctx context.Context, table string) ([]Column, error)

	// SchemaDescription renders the full schema as CREATE TABLE text, used
	// verbatim in planning and synthesis prompts.
	SchemaDescription(ctx context.Context) (string, error)

	// DistinctValues scans the distinct non-null values of one column.
	DistinctValues(ctx context.Context, table, column string) ([]string, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
