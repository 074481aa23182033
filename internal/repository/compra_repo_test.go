package repository_test

import (
	"context"
	"testing"
	"time"

	"livraria/internal/model"
	"livraria/internal/repository"
	"livraria/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompraRepo_SomasVaziasRetornamZero(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewCompraRepository(db)
	ctx := context.Background()

	qtd, err := repo.SomaQuantidade(ctx)
	require.NoError(t, err)
	assert.Zero(t, qtd)

	total, err := repo.SomaPrecoPago(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	porUsuario, err := repo.SomaPrecoPagoPorUsuario(ctx, 1)
	require.NoError(t, err)
	assert.True(t, porUsuario.IsZero())
}

func TestCompraRepo_FindByIDInexistente(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewCompraRepository(db)

	_, err := repo.FindByID(context.Background(), 123)

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 123), repository.ErrNotFound)
}

func TestCompraRepo_UpdateMantemDataCompra(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewCompraRepository(db)
	ctx := context.Background()
	data := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &model.Compra{UsuarioID: 1, LivroID: 1, DataCompra: data, PrecoPago: decimal.NewFromInt(10), QuantidadeComprados: 1}
	require.NoError(t, repo.Create(ctx, c))

	c.QuantidadeComprados = 4
	c.PrecoPago = decimal.NewFromInt(40)
	c.DataCompra = time.Now()
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.QuantidadeComprados)
	assert.True(t, decimal.NewFromInt(40).Equal(got.PrecoPago))
	assert.True(t, data.Equal(got.DataCompra), "data_compra = %s", got.DataCompra)
}

func TestLivroRepo_AjustarEstoque(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewLivroRepository(db)
	livro := testutil.SeedLivro(t, db, "Dom Casmurro", 2, 20.0)
	ctx := context.Background()

	require.NoError(t, repo.AjustarEstoque(ctx, livro.ID, 3))
	assert.Equal(t, 5, testutil.Estoque(t, db, livro.ID))

	assert.ErrorIs(t, repo.AjustarEstoque(ctx, 999, 1), repository.ErrNotFound)

	// CHECK constraint keeps stock non-negative even if a caller skips the check.
	require.Error(t, repo.AjustarEstoque(ctx, livro.ID, -6))
	assert.Equal(t, 5, testutil.Estoque(t, db, livro.ID))
}

func TestLivroRepo_ListAbaixoDe(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewLivroRepository(db)
	testutil.SeedLivro(t, db, "Cheio", 50, 10.0)
	baixo := testutil.SeedLivro(t, db, "Baixo", 2, 10.0)
	zerado := testutil.SeedLivro(t, db, "Zerado", 0, 10.0)

	livros, err := repo.ListAbaixoDe(context.Background(), 3)

	require.NoError(t, err)
	require.Len(t, livros, 2)
	assert.Equal(t, zerado.ID, livros[0].ID)
	assert.Equal(t, baixo.ID, livros[1].ID)
}
