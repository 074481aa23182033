package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Repos exposes repositories bound to one live transaction. Everything done
// through it is committed or rolled back together.
type Repos interface {
	Livros() LivroRepository
	Compras() CompraRepository
	Usuarios() UsuarioRepository
	Movimentos() MovimentoEstoqueRepository
}

// TxManager runs a unit of work inside a database transaction.
type TxManager interface {
	// Execute commits when fn returns nil and the context is still live;
	// otherwise (error, panic or cancellation) it rolls back.
	Execute(ctx context.Context, fn func(tx Repos) error) error
}

type txRepos struct{ tx *gorm.DB }

func (r txRepos) Livros() LivroRepository                { return NewLivroRepository(r.tx) }
func (r txRepos) Compras() CompraRepository              { return NewCompraRepository(r.tx) }
func (r txRepos) Usuarios() UsuarioRepository            { return NewUsuarioRepository(r.tx) }
func (r txRepos) Movimentos() MovimentoEstoqueRepository { return NewMovimentoEstoqueRepository(r.tx) }

type gormTxManager struct {
	db         *gorm.DB
	maxRetries int
}

// NewTxManager returns a TxManager over db. Transactions aborted by PostgreSQL
// for serialization failures or deadlocks are re-run up to maxRetries times.
func NewTxManager(db *gorm.DB, maxRetries int) TxManager {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &gormTxManager{db: db, maxRetries: maxRetries}
}

func (m *gormTxManager) Execute(ctx context.Context, fn func(tx Repos) error) error {
	var err error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		err = m.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("transaction aborted by database, retrying")
	}
	return err
}

func (m *gormTxManager) runOnce(ctx context.Context, fn func(tx Repos) error) (err error) {
	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) &&
			!errors.Is(rbErr, context.Canceled) && !errors.Is(rbErr, context.DeadlineExceeded) {
			log.Error().Err(rbErr).AnErr("cause", err).Msg("transaction rollback failed")
		}
	}()

	if err = fn(txRepos{tx: tx}); err != nil {
		return err
	}
	// A request cancelled after its last statement must not commit.
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
