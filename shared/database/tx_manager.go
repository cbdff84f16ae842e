package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxConfig bounds retries of transactions aborted by the server.
type TxConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// OnRetry, if set, is called with the SQLSTATE before every retry.
	OnRetry func(code string)
}

// TxManager implements interfaces.TransactionScope on top of a pgx pool.
type TxManager struct {
	db     TxBeginner
	cfg    TxConfig
	logger *zap.Logger
}

var _ interfaces.TransactionScope = (*TxManager)(nil)

// NewTxManager creates a TxManager. MaxAttempts below 1 is treated as 1.
func NewTxManager(db TxBeginner, cfg TxConfig, logger *zap.Logger) *TxManager {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &TxManager{
		db:     db,
		cfg:    cfg,
		logger: logger.Named("TxManager"),
	}
}

// RunAtomically executes fn in a transaction, rolling back on error or panic.
// Serialization failures and deadlocks restart the whole transaction with
// exponential backoff; when attempts run out models.ErrTransientStore is returned.
func (m *TxManager) RunAtomically(ctx context.Context, fn interfaces.TxFunc) error {
	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		code, retryable := retryableCode(err)
		if !retryable {
			return err
		}
		lastErr = err
		if attempt == m.cfg.MaxAttempts {
			break
		}

		delay := m.cfg.BaseDelay << (attempt - 1)
		m.logger.Warn("Retrying aborted transaction",
			zap.String("sqlstate", code),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if m.cfg.OnRetry != nil {
			m.cfg.OnRetry(code)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	m.logger.Error("Transaction retries exhausted", zap.Int("attempts", m.cfg.MaxAttempts), zap.Error(lastErr))
	return fmt.Errorf("%w: %v", models.ErrTransientStore, lastErr)
}

func (m *TxManager) runOnce(ctx context.Context, fn interfaces.TxFunc) (err error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				m.logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			m.logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return pgErr.Code, true
		}
	}
	return "", false
}
