package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"livraria/internal/apperror"
	"livraria/internal/dto"
	"livraria/internal/model"
	"livraria/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	limitePadrao = 10
	limiteMaximo = 100

	aposCommitTimeout = 2 * time.Second
)

// CompraService is the purchase workflow: every mutation keeps book stock and
// purchase history consistent inside a single transaction.
type CompraService interface {
	Criar(ctx context.Context, req dto.CompraRequest) (*dto.CompraResponse, error)
	ObterPorID(ctx context.Context, id uint) (*dto.CompraResponse, error)
	Listar(ctx context.Context, filter dto.CompraFilter) (*dto.CompraListResponse, error)
	Atualizar(ctx context.Context, id uint, req dto.CompraRequest) (*dto.CompraResponse, error)
	Remover(ctx context.Context, id uint) error
	TotalItensComprados(ctx context.Context) (int64, error)
	TotalGastoUsuario(ctx context.Context, usuarioID uint) (decimal.Decimal, error)
	TotalArrecadado(ctx context.Context) (decimal.Decimal, error)
}

// EstoqueNotifier is told which books had their stock changed by a committed
// purchase operation. Delivery is best effort.
type EstoqueNotifier interface {
	EnqueueEstoque(ctx context.Context, livroIDs ...uint) error
}

type compraService struct {
	tx       repository.TxManager
	compras  repository.CompraRepository
	cache    *TotaisCache
	notifier EstoqueNotifier
	now      func() time.Time
}

// NewCompraService wires the workflow. cache and notifier may be nil.
func NewCompraService(
	tx repository.TxManager,
	compras repository.CompraRepository,
	cache *TotaisCache,
	notifier EstoqueNotifier,
) CompraService {
	return &compraService{
		tx:       tx,
		compras:  compras,
		cache:    cache,
		notifier: notifier,
		now:      time.Now,
	}
}

// ── Criar ─────────────────────────────────────────────────────────────────────
//   1. lock the book row; NotFound if absent
//   2. user must exist
//   3. stock >= quantity, else InsufficientStock
//   4. decrement stock, insert purchase with server price and timestamp
//   5. COMMIT

func (s *compraService) Criar(ctx context.Context, req dto.CompraRequest) (*dto.CompraResponse, error) {
	if req.QuantidadeComprados <= 0 {
		return nil, apperror.Invalid("quantidade_comprados deve ser maior que zero")
	}

	var compra model.Compra
	err := s.tx.Execute(ctx, func(tx repository.Repos) error {
		livro, err := tx.Livros().FindByIDForUpdate(ctx, req.LivroID)
		if err != nil {
			return notFoundOr(err, "Livro %d não encontrado", req.LivroID)
		}
		if err := checarUsuario(ctx, tx, req.UsuarioID); err != nil {
			return err
		}
		if livro.QuantidadeEstoque < req.QuantidadeComprados {
			return apperror.InsufficientStock(livro.QuantidadeEstoque)
		}

		compra = model.Compra{
			UsuarioID:           req.UsuarioID,
			LivroID:             livro.ID,
			DataCompra:          s.now().UTC().Truncate(time.Microsecond),
			PrecoPago:           precoTotal(livro, req.QuantidadeComprados),
			QuantidadeComprados: req.QuantidadeComprados,
		}
		if err := tx.Compras().Create(ctx, &compra); err != nil {
			return apperror.Store("erro ao registrar compra", err)
		}
		return movimentar(ctx, tx, livro, -req.QuantidadeComprados, model.MovimentoCompra, compra.ID)
	})
	if err != nil {
		return nil, classificar(err)
	}

	log.Info().
		Uint("compra_id", compra.ID).
		Uint("livro_id", compra.LivroID).
		Uint("usuario_id", compra.UsuarioID).
		Int("quantidade", compra.QuantidadeComprados).
		Str("preco_pago", compra.PrecoPago.String()).
		Msg("compra registrada")

	s.aposCommit(ctx, []uint{compra.UsuarioID}, []uint{compra.LivroID})
	return compraToResponse(&compra), nil
}

// ── Atualizar ─────────────────────────────────────────────────────────────────
// Replaces (usuario, livro, quantidade) of an existing purchase. The old book
// gets its quantity back before the new book is checked, so moving a purchase
// within the same book nets out to (old - new). If the new book cannot cover
// the quantity the whole transaction rolls back, restoration included.

func (s *compraService) Atualizar(ctx context.Context, id uint, req dto.CompraRequest) (*dto.CompraResponse, error) {
	if req.QuantidadeComprados <= 0 {
		return nil, apperror.Invalid("quantidade_comprados deve ser maior que zero")
	}

	var (
		compra      *model.Compra
		antigoUser  uint
		antigoLivro uint
	)
	err := s.tx.Execute(ctx, func(tx repository.Repos) error {
		var err error
		compra, err = tx.Compras().FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "Compra %d não encontrada", id)
		}
		antigoUser, antigoLivro = compra.UsuarioID, compra.LivroID

		livros, err := travarLivros(ctx, tx, compra.LivroID, req.LivroID)
		if err != nil {
			return err
		}
		novo, ok := livros[req.LivroID]
		if !ok {
			return apperror.NotFound("Livro %d não encontrado", req.LivroID)
		}
		if err := checarUsuario(ctx, tx, req.UsuarioID); err != nil {
			return err
		}

		if antigo, ok := livros[compra.LivroID]; ok {
			if err := movimentar(ctx, tx, antigo, compra.QuantidadeComprados, model.MovimentoRestauracao, compra.ID); err != nil {
				return err
			}
		} else {
			log.Warn().Uint("compra_id", compra.ID).Uint("livro_id", compra.LivroID).
				Msg("livro original removido, estoque não restaurado")
		}

		if novo.QuantidadeEstoque < req.QuantidadeComprados {
			return apperror.InsufficientStock(novo.QuantidadeEstoque)
		}
		if err := movimentar(ctx, tx, novo, -req.QuantidadeComprados, model.MovimentoCompra, compra.ID); err != nil {
			return err
		}

		compra.UsuarioID = req.UsuarioID
		compra.LivroID = novo.ID
		compra.QuantidadeComprados = req.QuantidadeComprados
		compra.PrecoPago = precoTotal(novo, req.QuantidadeComprados)
		if err := tx.Compras().Update(ctx, compra); err != nil {
			return apperror.Store("erro ao atualizar compra", err)
		}
		return nil
	})
	if err != nil {
		return nil, classificar(err)
	}

	log.Info().
		Uint("compra_id", compra.ID).
		Uint("livro_anterior", antigoLivro).
		Uint("livro_id", compra.LivroID).
		Int("quantidade", compra.QuantidadeComprados).
		Msg("compra atualizada")

	s.aposCommit(ctx, []uint{antigoUser, compra.UsuarioID}, []uint{antigoLivro, compra.LivroID})
	return compraToResponse(compra), nil
}

// ── Remover ───────────────────────────────────────────────────────────────────
// Gives the quantity back to the book and deletes the purchase. A purchase
// whose book no longer exists is deleted without restoring anything.

func (s *compraService) Remover(ctx context.Context, id uint) error {
	var compra *model.Compra
	err := s.tx.Execute(ctx, func(tx repository.Repos) error {
		var err error
		compra, err = tx.Compras().FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "Compra %d não encontrada", id)
		}

		livro, err := tx.Livros().FindByIDForUpdate(ctx, compra.LivroID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			log.Warn().Uint("compra_id", compra.ID).Uint("livro_id", compra.LivroID).
				Msg("livro removido, compra excluída sem restaurar estoque")
		case err != nil:
			return apperror.Store("erro ao carregar livro", err)
		default:
			if err := movimentar(ctx, tx, livro, compra.QuantidadeComprados, model.MovimentoRestauracao, compra.ID); err != nil {
				return err
			}
		}

		if err := tx.Compras().Delete(ctx, compra.ID); err != nil {
			return notFoundOr(err, "Compra %d não encontrada", id)
		}
		return nil
	})
	if err != nil {
		return classificar(err)
	}

	log.Info().Uint("compra_id", compra.ID).Uint("livro_id", compra.LivroID).Msg("compra removida")
	s.aposCommit(ctx, []uint{compra.UsuarioID}, []uint{compra.LivroID})
	return nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *compraService) ObterPorID(ctx context.Context, id uint) (*dto.CompraResponse, error) {
	compra, err := s.compras.FindByID(ctx, id)
	if err != nil {
		return nil, classificar(notFoundOr(err, "Compra %d não encontrada", id))
	}
	return compraToResponse(compra), nil
}

func (s *compraService) Listar(ctx context.Context, filter dto.CompraFilter) (*dto.CompraListResponse, error) {
	inicio, err := parseData(filter.DataInicial, false)
	if err != nil {
		return nil, apperror.Invalid("data_inicial inválida: %s", filter.DataInicial)
	}
	fim, err := parseData(filter.DataFinal, true)
	if err != nil {
		return nil, apperror.Invalid("data_final inválida: %s", filter.DataFinal)
	}
	if inicio != nil && fim != nil && inicio.After(*fim) {
		return nil, apperror.Invalid("data_inicial posterior a data_final")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = limitePadrao
	}
	if limit > limiteMaximo {
		limit = limiteMaximo
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	compras, total, err := s.compras.List(ctx, repository.CompraFilter{
		Inicio: inicio,
		Fim:    fim,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, apperror.Store("erro ao listar compras", err)
	}

	data := make([]dto.CompraResponse, 0, len(compras))
	for i := range compras {
		data = append(data, *compraToResponse(&compras[i]))
	}
	return &dto.CompraListResponse{Data: data, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *compraService) TotalItensComprados(ctx context.Context) (int64, error) {
	if v, ok := s.cache.Get(ctx, chaveTotalItens); ok {
		return v.IntPart(), nil
	}
	geracao := s.cache.Geracao(ctx)
	total, err := s.compras.SomaQuantidade(ctx)
	if err != nil {
		return 0, apperror.Store("erro ao calcular total de itens", err)
	}
	s.cache.Set(ctx, chaveTotalItens, decimal.NewFromInt(total), geracao)
	return total, nil
}

func (s *compraService) TotalGastoUsuario(ctx context.Context, usuarioID uint) (decimal.Decimal, error) {
	chave := chaveTotalUsuario(usuarioID)
	if v, ok := s.cache.Get(ctx, chave); ok {
		return v, nil
	}
	geracao := s.cache.Geracao(ctx)
	total, err := s.compras.SomaPrecoPagoPorUsuario(ctx, usuarioID)
	if err != nil {
		return decimal.Zero, apperror.Store("erro ao calcular total gasto", err)
	}
	s.cache.Set(ctx, chave, total, geracao)
	return total, nil
}

func (s *compraService) TotalArrecadado(ctx context.Context) (decimal.Decimal, error) {
	if v, ok := s.cache.Get(ctx, chaveTotalSistema); ok {
		return v, nil
	}
	geracao := s.cache.Geracao(ctx)
	total, err := s.compras.SomaPrecoPago(ctx)
	if err != nil {
		return decimal.Zero, apperror.Store("erro ao calcular total arrecadado", err)
	}
	s.cache.Set(ctx, chaveTotalSistema, total, geracao)
	return total, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// aposCommit runs the best-effort side effects of a committed operation. They
// must happen even if the caller went away right after the commit.
func (s *compraService) aposCommit(ctx context.Context, usuarios, livros []uint) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), aposCommitTimeout)
	defer cancel()

	s.cache.Invalidar(ctx, usuarios...)
	if s.notifier != nil {
		if err := s.notifier.EnqueueEstoque(ctx, livros...); err != nil {
			log.Warn().Err(err).Msg("falha ao enfileirar verificação de estoque")
		}
	}
}

// travarLivros locks the given books in ascending id order so two updates
// touching the same pair of books cannot deadlock. Missing books are simply
// absent from the result.
func travarLivros(ctx context.Context, tx repository.Repos, ids ...uint) (map[uint]*model.Livro, error) {
	ordenados := make([]uint, 0, len(ids))
	for _, id := range ids {
		dup := false
		for _, o := range ordenados {
			if o == id {
				dup = true
				break
			}
		}
		if !dup {
			ordenados = append(ordenados, id)
		}
	}
	if len(ordenados) == 2 && ordenados[0] > ordenados[1] {
		ordenados[0], ordenados[1] = ordenados[1], ordenados[0]
	}

	livros := make(map[uint]*model.Livro, len(ordenados))
	for _, id := range ordenados {
		l, err := tx.Livros().FindByIDForUpdate(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperror.Store("erro ao carregar livro", err)
		}
		livros[id] = l
	}
	return livros, nil
}

// movimentar applies delta to the book's stock inside tx, records the movement
// and keeps the in-memory copy in step so later checks in the same
// transaction see the new value.
func movimentar(ctx context.Context, tx repository.Repos, livro *model.Livro, delta int, tipo string, compraID uint) error {
	anterior := livro.QuantidadeEstoque
	if anterior+delta < 0 {
		return apperror.InsufficientStock(anterior)
	}
	if err := tx.Livros().AjustarEstoque(ctx, livro.ID, delta); err != nil {
		return apperror.Store("erro ao atualizar estoque", err)
	}
	livro.QuantidadeEstoque = anterior + delta

	ref := compraID
	mov := &model.MovimentoEstoque{
		LivroID:         livro.ID,
		Tipo:            tipo,
		Quantidade:      delta,
		EstoqueAnterior: anterior,
		EstoqueNovo:     livro.QuantidadeEstoque,
		CompraID:        &ref,
	}
	if err := tx.Movimentos().Create(ctx, mov); err != nil {
		return apperror.Store("erro ao registrar movimento de estoque", err)
	}
	return nil
}

func checarUsuario(ctx context.Context, tx repository.Repos, id uint) error {
	ok, err := tx.Usuarios().Exists(ctx, id)
	if err != nil {
		return apperror.Store("erro ao carregar usuário", err)
	}
	if !ok {
		return apperror.NotFound("Usuário %d não encontrado", id)
	}
	return nil
}

func precoTotal(livro *model.Livro, quantidade int) decimal.Decimal {
	return livro.PrecoUni.Mul(decimal.NewFromInt(int64(quantidade)))
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(format, args...)
	}
	return apperror.Store(fmt.Sprintf(format, args...), err)
}

// classificar guarantees every error leaving the service carries a Kind.
func classificar(err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Store("operação cancelada", err)
	}
	return apperror.Store("erro ao persistir compra", err)
}

// parseData accepts YYYY-MM-DD or RFC3339. A date-only upper bound covers the
// whole day.
func parseData(v string, fimDoDia bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if fimDoDia {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func compraToResponse(c *model.Compra) *dto.CompraResponse {
	return &dto.CompraResponse{
		ID:                  c.ID,
		UsuarioID:           c.UsuarioID,
		LivroID:             c.LivroID,
		DataCompra:          c.DataCompra.UTC().Format(time.RFC3339Nano),
		PrecoPago:           dto.NewMoney(c.PrecoPago),
		QuantidadeComprados: c.QuantidadeComprados,
	}
}
