package handler

import (
	"net/http"
	"time"

	"livraria/internal/dto"
	"livraria/internal/service"

	"github.com/gin-gonic/gin"
)

type ComprasHandler struct {
	svc     service.CompraService
	timeout time.Duration
}

func NewComprasHandler(svc service.CompraService, timeout time.Duration) *ComprasHandler {
	return &ComprasHandler{svc: svc, timeout: timeout}
}

// Criar godoc
// @Summary      Registrar compra
// @Description  Desconta o estoque do livro e registra a compra com o preço calculado no servidor, tudo na mesma transação.
// @Tags         compras
// @Accept       json
// @Produce      json
// @Param        body body     dto.CompraRequest true "Compra"
// @Success      201  {object} dto.CompraResponse
// @Failure      400  {object} apierror.EstoqueError
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/compras [post]
func (h *ComprasHandler) Criar(c *gin.Context) {
	var req dto.CompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.svc.Criar(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar compras
// @Description  Lista paginada, mais recentes primeiro, com filtro opcional por período.
// @Tags         compras
// @Produce      json
// @Param        offset       query int    false "Deslocamento (default 0)"
// @Param        limit        query int    false "Registros por página (default 10, máx 100)"
// @Param        data_inicial query string false "YYYY-MM-DD ou RFC3339"
// @Param        data_final   query string false "YYYY-MM-DD ou RFC3339"
// @Success      200 {object} dto.CompraListResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/compras [get]
func (h *ComprasHandler) Listar(c *gin.Context) {
	var filter dto.CompraFilter
	if !bindQuery(c, &filter) {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.svc.Listar(ctx, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObterPorID godoc
// @Summary      Obter compra
// @Tags         compras
// @Produce      json
// @Param        id  path     int true "ID da compra"
// @Success      200 {object} dto.CompraResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/compras/{id} [get]
func (h *ComprasHandler) ObterPorID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.svc.ObterPorID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Atualizar godoc
// @Summary      Atualizar compra
// @Description  Devolve a quantidade ao livro anterior, confere e desconta o estoque do novo livro e recalcula o preço. Se o novo estoque não bastar nada é alterado.
// @Tags         compras
// @Accept       json
// @Produce      json
// @Param        id   path     int               true "ID da compra"
// @Param        body body     dto.CompraRequest true "Novos dados"
// @Success      200  {object} dto.CompraResponse
// @Failure      400  {object} apierror.EstoqueError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/compras/{id} [put]
func (h *ComprasHandler) Atualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	resp, err := h.svc.Atualizar(ctx, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Remover godoc
// @Summary      Remover compra
// @Description  Devolve a quantidade ao estoque do livro (se ainda existir) e exclui a compra.
// @Tags         compras
// @Param        id path int true "ID da compra"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/compras/{id} [delete]
func (h *ComprasHandler) Remover(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.svc.Remover(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TotalItens godoc
// @Summary      Total de itens comprados
// @Tags         compras
// @Produce      json
// @Success      200 {object} dto.TotalItensResponse
// @Router       /v1/compras/total-itens [get]
func (h *ComprasHandler) TotalItens(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	total, err := h.svc.TotalItensComprados(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TotalItensResponse{TotalItens: total})
}

// TotalUsuario godoc
// @Summary      Total gasto por usuário
// @Tags         compras
// @Produce      json
// @Param        usuario_id path     int true "ID do usuário"
// @Success      200        {object} dto.TotalUsuarioResponse
// @Router       /v1/compras/total-usuario/{usuario_id} [get]
func (h *ComprasHandler) TotalUsuario(c *gin.Context) {
	usuarioID, ok := paramID(c, "usuario_id")
	if !ok {
		return
	}
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	total, err := h.svc.TotalGastoUsuario(ctx, usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TotalUsuarioResponse{UsuarioID: usuarioID, TotalGasto: dto.NewMoney(total)})
}

// TotalSistema godoc
// @Summary      Total arrecadado
// @Tags         compras
// @Produce      json
// @Success      200 {object} dto.TotalSistemaResponse
// @Router       /v1/compras/total-sistema [get]
func (h *ComprasHandler) TotalSistema(c *gin.Context) {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	total, err := h.svc.TotalArrecadado(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TotalSistemaResponse{TotalArrecadado: dto.NewMoney(total)})
}
