package service

import (
	"context"
	"time"

	"livraria/internal/apperror"
	"livraria/internal/dto"
	"livraria/internal/repository"
)

// EstoqueService exposes read-only views over stock produced by the purchase
// workflow: low-stock alerts and the movement ledger.
type EstoqueService interface {
	ObterAlertas(ctx context.Context) ([]dto.AlertaEstoqueResponse, error)
	ListarMovimentos(ctx context.Context, filter dto.MovimentoFilter) (*dto.MovimentoListResponse, error)
}

type estoqueService struct {
	livros        repository.LivroRepository
	movimentos    repository.MovimentoEstoqueRepository
	estoqueMinimo int
}

func NewEstoqueService(
	livros repository.LivroRepository,
	movimentos repository.MovimentoEstoqueRepository,
	estoqueMinimo int,
) EstoqueService {
	return &estoqueService{livros: livros, movimentos: movimentos, estoqueMinimo: estoqueMinimo}
}

func (s *estoqueService) ObterAlertas(ctx context.Context) ([]dto.AlertaEstoqueResponse, error) {
	livros, err := s.livros.ListAbaixoDe(ctx, s.estoqueMinimo)
	if err != nil {
		return nil, apperror.Store("erro ao obter alertas de estoque", err)
	}
	out := make([]dto.AlertaEstoqueResponse, 0, len(livros))
	for _, l := range livros {
		out = append(out, dto.AlertaEstoqueResponse{
			LivroID:           l.ID,
			Titulo:            l.Titulo,
			QuantidadeEstoque: l.QuantidadeEstoque,
			EstoqueMinimo:     s.estoqueMinimo,
		})
	}
	return out, nil
}

func (s *estoqueService) ListarMovimentos(ctx context.Context, filter dto.MovimentoFilter) (*dto.MovimentoListResponse, error) {
	movs, total, err := s.movimentos.List(ctx, repository.MovimentoEstoqueFilter{
		LivroID: filter.LivroID,
		Offset:  filter.Offset,
		Limit:   filter.Limit,
	})
	if err != nil {
		return nil, apperror.Store("erro ao listar movimentos", err)
	}
	data := make([]dto.MovimentoResponse, 0, len(movs))
	for _, m := range movs {
		data = append(data, dto.MovimentoResponse{
			ID:              m.ID,
			LivroID:         m.LivroID,
			Tipo:            m.Tipo,
			Quantidade:      m.Quantidade,
			EstoqueAnterior: m.EstoqueAnterior,
			EstoqueNovo:     m.EstoqueNovo,
			CompraID:        m.CompraID,
			CreatedAt:       m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return &dto.MovimentoListResponse{Data: data, Total: total}, nil
}
