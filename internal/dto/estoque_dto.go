package dto

// AlertaEstoqueResponse is one book at or below the low-stock threshold.
type AlertaEstoqueResponse struct {
	LivroID           uint   `json:"livro_id"`
	Titulo            string `json:"titulo"`
	QuantidadeEstoque int    `json:"quantidade_estoque"`
	EstoqueMinimo     int    `json:"estoque_minimo"`
}

// MovimentoFilter is bound from the query string of GET /v1/estoque/movimentos.
type MovimentoFilter struct {
	LivroID *uint `form:"livro_id"`
	Offset  int   `form:"offset,default=0"   validate:"min=0"`
	Limit   int   `form:"limit,default=100"  validate:"min=0,max=500"`
}

type MovimentoResponse struct {
	ID              uint   `json:"id"`
	LivroID         uint   `json:"livro_id"`
	Tipo            string `json:"tipo"`
	Quantidade      int    `json:"quantidade"`
	EstoqueAnterior int    `json:"estoque_anterior"`
	EstoqueNovo     int    `json:"estoque_novo"`
	CompraID        *uint  `json:"compra_id"`
	CreatedAt       string `json:"created_at"`
}

type MovimentoListResponse struct {
	Data  []MovimentoResponse `json:"data"`
	Total int64               `json:"total"`
}
