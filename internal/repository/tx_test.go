package repository_test

import (
	"context"
	"errors"
	"testing"

	"livraria/internal/model"
	"livraria/internal/repository"
	"livraria/internal/testutil"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxManager_CommitPersisteAlteracoes(t *testing.T) {
	db := testutil.NewSQLite(t)
	livro := testutil.SeedLivro(t, db, "Dom Casmurro", 10, 20.0)
	tm := repository.NewTxManager(db, 0)

	err := tm.Execute(context.Background(), func(tx repository.Repos) error {
		return tx.Livros().AjustarEstoque(context.Background(), livro.ID, -4)
	})

	require.NoError(t, err)
	assert.Equal(t, 6, testutil.Estoque(t, db, livro.ID))
}

func TestTxManager_ErroFazRollback(t *testing.T) {
	db := testutil.NewSQLite(t)
	livro := testutil.SeedLivro(t, db, "Dom Casmurro", 10, 20.0)
	tm := repository.NewTxManager(db, 3)
	boom := errors.New("boom")

	err := tm.Execute(context.Background(), func(tx repository.Repos) error {
		require.NoError(t, tx.Livros().AjustarEstoque(context.Background(), livro.ID, 5))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 10, testutil.Estoque(t, db, livro.ID))
}

func TestTxManager_PanicFazRollback(t *testing.T) {
	db := testutil.NewSQLite(t)
	livro := testutil.SeedLivro(t, db, "Dom Casmurro", 10, 20.0)
	tm := repository.NewTxManager(db, 0)

	assert.Panics(t, func() {
		_ = tm.Execute(context.Background(), func(tx repository.Repos) error {
			_ = tx.Livros().AjustarEstoque(context.Background(), livro.ID, -3)
			panic("falha inesperada")
		})
	})
	assert.Equal(t, 10, testutil.Estoque(t, db, livro.ID))
}

func TestTxManager_ContextoCanceladoNaoComita(t *testing.T) {
	db := testutil.NewSQLite(t)
	livro := testutil.SeedLivro(t, db, "Dom Casmurro", 10, 20.0)
	tm := repository.NewTxManager(db, 0)
	ctx, cancel := context.WithCancel(context.Background())

	err := tm.Execute(ctx, func(tx repository.Repos) error {
		if err := tx.Livros().AjustarEstoque(ctx, livro.ID, -2); err != nil {
			return err
		}
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, testutil.Estoque(t, db, livro.ID))
}

func TestTxManager_RepeteEmFalhaDeSerializacao(t *testing.T) {
	db := testutil.NewSQLite(t)
	tm := repository.NewTxManager(db, 2)

	tentativas := 0
	err := tm.Execute(context.Background(), func(tx repository.Repos) error {
		tentativas++
		if tentativas < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, tentativas)
}

func TestTxManager_DesisteAposLimiteDeTentativas(t *testing.T) {
	db := testutil.NewSQLite(t)
	tm := repository.NewTxManager(db, 1)

	tentativas := 0
	err := tm.Execute(context.Background(), func(tx repository.Repos) error {
		tentativas++
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, pgerrcode.DeadlockDetected, pgErr.Code)
	assert.Equal(t, 2, tentativas)
}

func TestTxManager_ReposCompartilhamTransacao(t *testing.T) {
	db := testutil.NewSQLite(t)
	usuario := testutil.SeedUsuario(t, db, "ana")
	livro := testutil.SeedLivro(t, db, "Dom Casmurro", 10, 20.0)
	tm := repository.NewTxManager(db, 0)

	err := tm.Execute(context.Background(), func(tx repository.Repos) error {
		ctx := context.Background()
		ok, err := tx.Usuarios().Exists(ctx, usuario.ID)
		require.NoError(t, err)
		require.True(t, ok)
		c := &model.Compra{UsuarioID: usuario.ID, LivroID: livro.ID, QuantidadeComprados: 1, PrecoPago: livro.PrecoUni}
		if err := tx.Compras().Create(ctx, c); err != nil {
			return err
		}
		if _, err := tx.Compras().FindByIDForUpdate(ctx, c.ID); err != nil {
			return err
		}
		return errors.New("desfaz")
	})

	require.Error(t, err)
	var n int64
	require.NoError(t, db.Model(&model.Compra{}).Count(&n).Error)
	assert.Zero(t, n)
}
