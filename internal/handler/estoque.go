package handler

import (
	"net/http"
	"time"

	"livraria/internal/dto"
	"livraria/internal/service"

	"github.com/gin-gonic/gin"
)

type EstoqueHandler struct {
	svc     service.EstoqueService
	timeout time.Duration
}

func NewEstoqueHandler(svc service.EstoqueService, timeout time.Duration) *EstoqueHandler {
	return &EstoqueHandler{svc: svc, timeout: timeout}
}

// ObterAlertas godoc
// @Summary      Alertas de estoque baixo
// @Description  Livros com estoque menor ou igual a ESTOQUE_MINIMO.
// @Tags         estoque
// @Produce      json
// @Success      200 {array} dto.AlertaEstoqueResponse
// @Router       /v1/estoque/alertas [get]
func (h *EstoqueHandler) ObterAlertas(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	alertas, err := h.svc.ObterAlertas(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alertas)
}

// ListarMovimentos godoc
// @Summary      Movimentos de estoque
// @Description  Histórico de baixas e devoluções de estoque feitas pelas compras.
// @Tags         estoque
// @Produce      json
// @Param        livro_id query int false "Filtrar por livro"
// @Param        offset   query int false "Deslocamento"
// @Param        limit    query int false "Máx 500 (default 100)"
// @Success      200 {object} dto.MovimentoListResponse
// @Router       /v1/estoque/movimentos [get]
func (h *EstoqueHandler) ListarMovimentos(c *gin.Context) {
	var filter dto.MovimentoFilter
	if !bindQuery(c, &filter) {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.svc.ListarMovimentos(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
