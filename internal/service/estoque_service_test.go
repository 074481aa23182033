package service_test

import (
	"context"
	"testing"

	"livraria/internal/dto"
	"livraria/internal/model"
	"livraria/internal/repository"
	"livraria/internal/service"
	"livraria/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstoque_MovimentosRegistramCadaAlteracao(t *testing.T) {
	f := newFixture(t)
	livro := testutil.SeedLivro(t, f.db, "Dom Casmurro", 10, 20.0)
	estoque := service.NewEstoqueService(repository.NewLivroRepository(f.db), repository.NewMovimentoEstoqueRepository(f.db), 3)
	ctx := context.Background()

	criada, err := f.svc.Criar(ctx, dto.CompraRequest{UsuarioID: f.usuario.ID, LivroID: livro.ID, QuantidadeComprados: 3})
	require.NoError(t, err)
	require.NoError(t, f.svc.Remover(ctx, criada.ID))

	resp, err := estoque.ListarMovimentos(ctx, dto.MovimentoFilter{LivroID: &livro.ID})

	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Total)
	// newest first
	assert.Equal(t, model.MovimentoRestauracao, resp.Data[0].Tipo)
	assert.Equal(t, 3, resp.Data[0].Quantidade)
	assert.Equal(t, 7, resp.Data[0].EstoqueAnterior)
	assert.Equal(t, 10, resp.Data[0].EstoqueNovo)
	assert.Equal(t, model.MovimentoCompra, resp.Data[1].Tipo)
	assert.Equal(t, -3, resp.Data[1].Quantidade)
	require.NotNil(t, resp.Data[1].CompraID)
	assert.Equal(t, criada.ID, *resp.Data[1].CompraID)
}

func TestEstoque_FalhaNaoDeixaMovimento(t *testing.T) {
	f := newFixture(t)
	livro := testutil.SeedLivro(t, f.db, "Dom Casmurro", 2, 20.0)
	estoque := service.NewEstoqueService(repository.NewLivroRepository(f.db), repository.NewMovimentoEstoqueRepository(f.db), 3)

	_, err := f.svc.Criar(context.Background(), dto.CompraRequest{UsuarioID: f.usuario.ID, LivroID: livro.ID, QuantidadeComprados: 5})
	require.Error(t, err)

	resp, err := estoque.ListarMovimentos(context.Background(), dto.MovimentoFilter{})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
}

func TestEstoque_Alertas(t *testing.T) {
	f := newFixture(t)
	testutil.SeedLivro(t, f.db, "Cheio", 20, 10.0)
	baixo := testutil.SeedLivro(t, f.db, "Quase acabando", 5, 10.0)
	estoque := service.NewEstoqueService(repository.NewLivroRepository(f.db), repository.NewMovimentoEstoqueRepository(f.db), 3)
	ctx := context.Background()

	alertas, err := estoque.ObterAlertas(ctx)
	require.NoError(t, err)
	assert.Empty(t, alertas)

	_, err = f.svc.Criar(ctx, dto.CompraRequest{UsuarioID: f.usuario.ID, LivroID: baixo.ID, QuantidadeComprados: 2})
	require.NoError(t, err)

	alertas, err = estoque.ObterAlertas(ctx)
	require.NoError(t, err)
	require.Len(t, alertas, 1)
	assert.Equal(t, baixo.ID, alertas[0].LivroID)
	assert.Equal(t, 3, alertas[0].QuantidadeEstoque)
	assert.Equal(t, 3, alertas[0].EstoqueMinimo)
}

func TestTotaisCache_NilNaoFazNada(t *testing.T) {
	c := service.NewTotaisCache(nil, 0, nil)
	require.Nil(t, c)

	_, ok := c.Get(context.Background(), "qualquer")
	assert.False(t, ok)
	c.Set(context.Background(), "qualquer", decimal.NewFromInt(1), 0)
	c.Invalidar(context.Background(), 1, 2)
}
