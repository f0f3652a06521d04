package storage

import "github.com/jackc/pgx/v5/pgxpool"

// Pool exposes the connection pool to tests.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}
