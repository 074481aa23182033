package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"livraria/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	chaveTotalItens   = "compras:total-itens"
	chaveTotalSistema = "compras:total-sistema"
	// chaveGeracao is bumped by every invalidation. A value computed under an
	// older generation is never written back.
	chaveGeracao = "compras:totais:geracao"
)

func chaveTotalUsuario(usuarioID uint) string {
	return fmt.Sprintf("compras:total-usuario:%d", usuarioID)
}

// semGeracao disables the write-back of a computed total.
const semGeracao int64 = -1

// TotaisCache keeps the purchase aggregates in Redis for a short TTL. It is
// invalidated after every committed purchase mutation. A nil *TotaisCache is
// valid and caches nothing.
type TotaisCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	breaker *infra.Breaker
}

// NewTotaisCache returns nil when rdb is nil.
func NewTotaisCache(rdb *redis.Client, ttl time.Duration, breaker *infra.Breaker) *TotaisCache {
	if rdb == nil {
		return nil
	}
	return &TotaisCache{rdb: rdb, ttl: ttl, breaker: breaker}
}

func (c *TotaisCache) Get(ctx context.Context, chave string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	var raw string
	err := c.breaker.Do(func() error {
		var err error
		raw, err = c.rdb.Get(ctx, chave).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil || raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// Geracao must be read before the total is computed from the database and
// handed back to Set.
func (c *TotaisCache) Geracao(ctx context.Context) int64 {
	if c == nil {
		return semGeracao
	}
	var g int64
	err := c.breaker.Do(func() error {
		var err error
		g, err = c.rdb.Get(ctx, chaveGeracao).Int64()
		if errors.Is(err, redis.Nil) {
			g, err = 0, nil
		}
		return err
	})
	if err != nil {
		return semGeracao
	}
	return g
}

// Set stores v only if no invalidation happened since geracao was read.
// The generation check and the write run in one WATCH/MULTI transaction.
func (c *TotaisCache) Set(ctx context.Context, chave string, v decimal.Decimal, geracao int64) {
	if c == nil || geracao == semGeracao {
		return
	}
	err := c.breaker.Do(func() error {
		err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
			atual, err := tx.Get(ctx, chaveGeracao).Int64()
			if errors.Is(err, redis.Nil) {
				atual, err = 0, nil
			}
			if err != nil {
				return err
			}
			if atual != geracao {
				log.Debug().Str("chave", chave).Int64("geracao", geracao).Int64("atual", atual).
					Msg("cache set descartado, totais invalidados durante o cálculo")
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Set(ctx, chave, v.String(), c.ttl)
				return nil
			})
			return err
		}, chaveGeracao)
		// Lost the race with an invalidation; nothing to write.
		if errors.Is(err, redis.TxFailedErr) {
			return nil
		}
		return err
	})
	if err != nil {
		log.Debug().Err(err).Str("chave", chave).Msg("cache set ignorado")
	}
}

// Invalidar bumps the generation and drops the global aggregates and the
// per-user totals of usuarios.
func (c *TotaisCache) Invalidar(ctx context.Context, usuarios ...uint) {
	if c == nil {
		return
	}
	chaves := []string{chaveTotalItens, chaveTotalSistema}
	for _, u := range usuarios {
		chaves = append(chaves, chaveTotalUsuario(u))
	}
	err := c.breaker.Do(func() error {
		_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Incr(ctx, chaveGeracao)
			p.Del(ctx, chaves...)
			return nil
		})
		return err
	})
	if err != nil {
		log.Warn().Err(err).Strs("chaves", chaves).Msg("falha ao invalidar cache de totais")
	}
}
