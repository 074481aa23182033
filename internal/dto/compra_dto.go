package dto

// ─── Filter / List ──────────────────────────────────────────────────────────

// CompraFilter is bound from the query string of GET /v1/compras.
// Dates accept YYYY-MM-DD or RFC3339; both bounds are inclusive.
type CompraFilter struct {
	Offset      int    `form:"offset,default=0"  validate:"min=0"`
	Limit       int    `form:"limit,default=10"  validate:"min=0"`
	DataInicial string `form:"data_inicial"`
	DataFinal   string `form:"data_final"`
}

type CompraListResponse struct {
	Data   []CompraResponse `json:"data"`
	Total  int64            `json:"total"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CompraRequest is the body of both POST /v1/compras and PUT /v1/compras/:id.
// preco_pago is never accepted from clients; it is computed from the book price.
type CompraRequest struct {
	UsuarioID           uint `json:"usuario_id"           validate:"required,gt=0"`
	LivroID             uint `json:"livro_id"             validate:"required,gt=0"`
	QuantidadeComprados int  `json:"quantidade_comprados" validate:"required,gt=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CompraResponse struct {
	ID                  uint   `json:"id"`
	UsuarioID           uint   `json:"usuario_id"`
	LivroID             uint   `json:"livro_id"`
	DataCompra          string `json:"data_compra"`
	PrecoPago           Money  `json:"preco_pago"`
	QuantidadeComprados int    `json:"quantidade_comprados"`
}

type TotalItensResponse struct {
	TotalItens int64 `json:"total_itens"`
}

type TotalUsuarioResponse struct {
	UsuarioID  uint  `json:"usuario_id"`
	TotalGasto Money `json:"total_gasto"`
}

type TotalSistemaResponse struct {
	TotalArrecadado Money `json:"total_arrecadado"`
}
