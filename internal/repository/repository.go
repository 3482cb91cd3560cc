package repository

import (
	"context"
	"database/sql"

	"autostore_back_end/internal/orders"
)

// executor est satisfait par *sql.DB et *sql.Tx : les requêtes s'exécutent
// dans la transaction quand un contexte transactionnel est fourni.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func on(db *sql.DB, tx orders.Tx) executor {
	if t, ok := tx.(*sql.Tx); ok {
		return t
	}
	return db
}
