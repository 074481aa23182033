//go:build integration

package router_test

// Runs the purchase workflow against real PostgreSQL and Redis.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"livraria/internal/config"
	"livraria/internal/infra"
	"livraria/internal/model"
	"livraria/internal/repository"
	"livraria/internal/router"
	"livraria/internal/testutil"
	"livraria/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/sync/errgroup"
)

type integrationEnv struct {
	*apiEnv
	rdb *redis.Client
}

func setupIntegration(t *testing.T) *integrationEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("livraria_test"),
		tcPostgres.WithUsername("livraria"),
		tcPostgres.WithPassword("livraria"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		DBDriver:           "postgres",
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		RateLimitPerMinute: 100000,
		DBStatementTimeout: 10 * time.Second,
		TxMaxRetries:       3,
		CacheTTL:           time.Minute,
		EstoqueMinimo:      3,
		WorkerPoolSize:     2,
	}

	db, err := infra.NewDatabase(infra.DatabaseOptions{Driver: cfg.DBDriver, DSN: cfg.DatabaseURL, AutoMigrate: true})
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	wg := worker.StartWorkerPool(ctx, rdb, &worker.Handlers{
		Estoque: worker.NewEstoqueWorker(repository.NewLivroRepository(db), rdb, cfg.EstoqueMinimo),
	}, cfg.WorkerPoolSize)
	t.Cleanup(wg.Wait)
	t.Cleanup(cancel)

	return &integrationEnv{apiEnv: &apiEnv{engine: router.New(ctx, cfg, db, rdb), db: db}, rdb: rdb}
}

func TestIntegration_ComprasConcorrentesNaoNegativamEstoque(t *testing.T) {
	env := setupIntegration(t)
	u := testutil.SeedUsuario(t, env.db, "ana")
	l := testutil.SeedLivro(t, env.db, "Dom Casmurro", 5, 20.0)

	var criadas, recusadas atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			w := env.do(t, http.MethodPost, "/v1/compras", map[string]any{
				"usuario_id": u.ID, "livro_id": l.ID, "quantidade_comprados": 1,
			})
			switch w.Code {
			case http.StatusCreated:
				criadas.Add(1)
			case http.StatusBadRequest:
				recusadas.Add(1)
			default:
				return fmt.Errorf("status inesperado %d: %s", w.Code, w.Body.String())
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(5), criadas.Load())
	assert.Equal(t, int32(5), recusadas.Load())
	assert.Equal(t, 0, testutil.Estoque(t, env.db, l.ID))
	var n int64
	require.NoError(t, env.db.Model(&model.Compra{}).Where("livro_id = ?", l.ID).Count(&n).Error)
	assert.Equal(t, int64(5), n)

	// The worker flags the book once its stock reaches the minimum.
	membro := strconv.FormatUint(uint64(l.ID), 10)
	require.Eventually(t, func() bool {
		ok, err := env.rdb.SIsMember(context.Background(), worker.SetAlertas, membro).Result()
		return err == nil && ok
	}, 10*time.Second, 100*time.Millisecond)

	raw, err := env.rdb.LIndex(context.Background(), worker.QueueNotificacoes, 0).Result()
	require.NoError(t, err)
	var notif worker.NotificacaoEstoque
	require.NoError(t, json.Unmarshal([]byte(raw), &notif))
	assert.Equal(t, l.ID, notif.LivroID)
}

func TestIntegration_AtualizacoesCruzadasNaoTravam(t *testing.T) {
	env := setupIntegration(t)
	u := testutil.SeedUsuario(t, env.db, "ana")
	a := testutil.SeedLivro(t, env.db, "Livro A", 100, 10.0)
	b := testutil.SeedLivro(t, env.db, "Livro B", 100, 10.0)

	criar := func(livroID uint) uint {
		w := env.do(t, http.MethodPost, "/v1/compras", map[string]any{
			"usuario_id": u.ID, "livro_id": livroID, "quantidade_comprados": 1,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[compraJSON](t, w).ID
	}
	naA, naB := criar(a.ID), criar(b.ID)

	// Moving A→B and B→A concurrently locks both books in opposite
	// directions; ordered locking must keep this deadlock-free.
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		qtd := i%3 + 1
		g.Go(func() error {
			w := env.do(t, http.MethodPut, fmt.Sprintf("/v1/compras/%d", naA), map[string]any{
				"usuario_id": u.ID, "livro_id": b.ID, "quantidade_comprados": qtd,
			})
			if w.Code != http.StatusOK {
				return fmt.Errorf("A→B: %d %s", w.Code, w.Body.String())
			}
			w = env.do(t, http.MethodPut, fmt.Sprintf("/v1/compras/%d", naA), map[string]any{
				"usuario_id": u.ID, "livro_id": a.ID, "quantidade_comprados": qtd,
			})
			if w.Code != http.StatusOK {
				return fmt.Errorf("B→A: %d %s", w.Code, w.Body.String())
			}
			return nil
		})
		g.Go(func() error {
			w := env.do(t, http.MethodPut, fmt.Sprintf("/v1/compras/%d", naB), map[string]any{
				"usuario_id": u.ID, "livro_id": a.ID, "quantidade_comprados": qtd,
			})
			if w.Code != http.StatusOK {
				return fmt.Errorf("B→A: %d %s", w.Code, w.Body.String())
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	soma := func(livroID uint) int {
		var n int64
		require.NoError(t, env.db.Model(&model.Compra{}).Where("livro_id = ?", livroID).
			Select("COALESCE(SUM(quantidade_comprados), 0)").Row().Scan(&n))
		return int(n)
	}
	assert.Equal(t, 100, testutil.Estoque(t, env.db, a.ID)+soma(a.ID))
	assert.Equal(t, 100, testutil.Estoque(t, env.db, b.ID)+soma(b.ID))
}
