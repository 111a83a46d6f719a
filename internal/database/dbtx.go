package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBTX defines the database operations needed by repositories.
// It is satisfied by both *DB and *Tx.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetDialect() Dialect
}

// Tx wraps sqlx.Tx with the dialect it was opened with
type Tx struct {
	*sqlx.Tx
	dialect Dialect
}

// GetDialect returns the transaction's dialect
func (tx *Tx) GetDialect() Dialect {
	return tx.dialect
}

// In expands IN (?) slices and rebinds for the transaction's dialect
func (tx *Tx) In(query string, args ...any) (string, []any, error) {
	q, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return tx.dialect.RewriteQuery(q), expanded, nil
}
