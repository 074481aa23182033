package router

import (
	"context"
	"time"

	"livraria/internal/config"
	"livraria/internal/handler"
	"livraria/internal/infra"
	"livraria/internal/middleware"
	"livraria/internal/repository"
	"livraria/internal/service"
	"livraria/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const cacheBreakerTimeout = 30 * time.Second

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil; caching and stock notifications are then off.
// ctx bounds background goroutines owned by the middleware chain.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(ctx, cfg.RateLimitPerMinute))

	// ── Repositories ─────────────────────────────────────────────────────────
	txManager := repository.NewTxManager(db, cfg.TxMaxRetries)
	compraRepo := repository.NewCompraRepository(db)
	livroRepo := repository.NewLivroRepository(db)
	movimentoRepo := repository.NewMovimentoEstoqueRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Redis is an optimization only: a breaker keeps a sick Redis from adding
	// latency to every request.
	cache := service.NewTotaisCache(rdb, cfg.CacheTTL, infra.NewBreaker(5, cacheBreakerTimeout))
	dispatcher := worker.NewDispatcher(rdb)

	compraSvc := service.NewCompraService(txManager, compraRepo, cache, dispatcher)
	estoqueSvc := service.NewEstoqueService(livroRepo, movimentoRepo, cfg.EstoqueMinimo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	comprasH := handler.NewComprasHandler(compraSvc, cfg.DBStatementTimeout)
	estoqueH := handler.NewEstoqueHandler(estoqueSvc, cfg.DBStatementTimeout)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		compras := v1.Group("/compras")
		{
			compras.POST("", comprasH.Criar)
			compras.GET("", comprasH.Listar)
			compras.GET("/total-itens", comprasH.TotalItens)
			compras.GET("/total-sistema", comprasH.TotalSistema)
			compras.GET("/total-usuario/:usuario_id", comprasH.TotalUsuario)
			compras.GET("/:id", comprasH.ObterPorID)
			compras.PUT("/:id", comprasH.Atualizar)
			compras.DELETE("/:id", comprasH.Remover)
		}

		estoque := v1.Group("/estoque")
		{
			estoque.GET("/alertas", estoqueH.ObterAlertas)
			estoque.GET("/movimentos", estoqueH.ListarMovimentos)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
