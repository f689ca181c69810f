// Package store executes read-only SQL against the statcast database and
// serializes the results for transport.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statlab-ai/analyst-platform/pkg/metrics"
)

// Format selects the tabular serialization.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format string from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid output format %q (must be csv or json)", s)
}

// Store wraps a pooled connection to the data store. The pool tolerates
// concurrent independent statement execution.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Execute runs a single read-only statement and returns all rows serialized
// in the given format. The column set comes from the first returned row; an
// empty result set yields an empty column list.
func (s *Store) Execute(ctx context.Context, query string, format Format) (string, error) {
	if err := CheckReadOnly(query); err != nil {
		metrics.QueryExecutionsTotal.WithLabelValues("rejected").Inc()
		return "", err
	}

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		metrics.QueryExecutionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	var columns []string
	var data [][]any
	for rows.Next() {
		if columns == nil {
			for _, fd := range rows.FieldDescriptions() {
				columns = append(columns, string(fd.Name))
			}
		}
		values, err := rows.Values()
		if err != nil {
			metrics.QueryExecutionsTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("read row: %w", err)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		metrics.QueryExecutionsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("execute query: %w", err)
	}

	out, err := Serialize(columns, data, format)
	if err != nil {
		metrics.QueryExecutionsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.QueryExecutionsTotal.WithLabelValues("success").Inc()
	return out, nil
}
