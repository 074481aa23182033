package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"livraria/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// SetAlertas holds the ids of books currently at or below the minimum.
	SetAlertas = "estoque:alertas"
	// QueueNotificacoes receives one entry per book that newly crossed the minimum.
	QueueNotificacoes = "notificacoes:estoque"
)

// EstoqueJobPayload is the job envelope sent to QueueEstoque.
type EstoqueJobPayload struct {
	LivroID uint `json:"livro_id"`
}

// NotificacaoEstoque is published when a book enters the low-stock set.
type NotificacaoEstoque struct {
	LivroID           uint   `json:"livro_id"`
	Titulo            string `json:"titulo"`
	QuantidadeEstoque int    `json:"quantidade_estoque"`
	EstoqueMinimo     int    `json:"estoque_minimo"`
	DetectadoEm       string `json:"detectado_em"`
}

// EstoqueWorker re-reads a book after a purchase changed its stock and keeps
// the low-stock set in Redis current.
type EstoqueWorker struct {
	livros        repository.LivroRepository
	rdb           *redis.Client
	estoqueMinimo int
}

func NewEstoqueWorker(livros repository.LivroRepository, rdb *redis.Client, estoqueMinimo int) *EstoqueWorker {
	return &EstoqueWorker{livros: livros, rdb: rdb, estoqueMinimo: estoqueMinimo}
}

// Process implements Processor.
func (w *EstoqueWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EstoqueJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.LivroID == 0 {
		// Malformed jobs are dropped, retrying cannot fix them.
		log.Error().Err(err).RawJSON("payload", raw).Msg("estoque_worker: invalid payload")
		return nil
	}
	membro := strconv.FormatUint(uint64(payload.LivroID), 10)

	livro, err := w.livros.FindByID(ctx, payload.LivroID)
	if errors.Is(err, repository.ErrNotFound) {
		return w.rdb.SRem(ctx, SetAlertas, membro).Err()
	}
	if err != nil {
		return fmt.Errorf("estoque_worker: load livro %d: %w", payload.LivroID, err)
	}

	if !AbaixoDoMinimo(livro.QuantidadeEstoque, w.estoqueMinimo) {
		return w.rdb.SRem(ctx, SetAlertas, membro).Err()
	}

	added, err := w.rdb.SAdd(ctx, SetAlertas, membro).Result()
	if err != nil {
		return fmt.Errorf("estoque_worker: sadd: %w", err)
	}
	if added == 0 {
		return nil
	}

	log.Warn().
		Uint("livro_id", livro.ID).
		Str("titulo", livro.Titulo).
		Int("quantidade_estoque", livro.QuantidadeEstoque).
		Int("estoque_minimo", w.estoqueMinimo).
		Msg("estoque_worker: livro abaixo do estoque mínimo")

	data, err := json.Marshal(NotificacaoEstoque{
		LivroID:           livro.ID,
		Titulo:            livro.Titulo,
		QuantidadeEstoque: livro.QuantidadeEstoque,
		EstoqueMinimo:     w.estoqueMinimo,
		DetectadoEm:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return w.rdb.LPush(ctx, QueueNotificacoes, data).Err()
}

// AbaixoDoMinimo reports whether estoque should raise a low-stock alert.
func AbaixoDoMinimo(estoque, minimo int) bool {
	return estoque <= minimo
}
