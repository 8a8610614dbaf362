package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ TxManager = (*pgTxManager)(nil)

type pgTxManager struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTxManager создает менеджер транзакций поверх пула соединений.
func NewTxManager(pool *pgxpool.Pool, logger *zap.Logger) TxManager {
	return &pgTxManager{
		pool:   pool,
		logger: logger.Named("TxManager"),
	}
}

type txCtxKey struct{}

// querier returns the transaction bound to ctx, if any, otherwise fallback.
// Repositories route every query through this so the same method works both
// inside and outside a transaction.
func querier(ctx context.Context, fallback DBTX) DBTX {
	if tx, ok := ctx.Value(txCtxKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}

// WithinTransaction выполняет fn в одной транзакции с автоматическим
// rollback при ошибке. Транзакция передается репозиториям через контекст.
func (m *pgTxManager) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	tx, err := m.pool.Begin(ctx)
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
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
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
