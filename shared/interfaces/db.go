package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx, so repositories
// can run the same queries inside or outside of a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxFunc is the unit of work executed by a TransactionScope.
type TxFunc func(ctx context.Context, tx DBTX) error

// TransactionScope runs fn atomically: either every write fn performs through tx
// is committed or none is. fn may be invoked more than once when the store asks
// for a retry (serialization failure, deadlock), so it must not have side effects
// outside of tx.
type TransactionScope interface {
	RunAtomically(ctx context.Context, fn TxFunc) error
}
