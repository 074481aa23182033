package model

import "time"

// MovimentoEstoque records every stock change made by the purchase workflow.
type MovimentoEstoque struct {
	ID              uint   `gorm:"primaryKey"`
	LivroID         uint   `gorm:"not null;index"`
	Tipo            string `gorm:"type:varchar(20);not null"` // "compra" | "restauracao"
	Quantidade      int    `gorm:"not null"`                  // positive adds stock, negative removes it
	EstoqueAnterior int    `gorm:"not null"`
	EstoqueNovo     int    `gorm:"not null"`
	CompraID        *uint  `gorm:"index"`
	CreatedAt       time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimentoEstoque) TableName() string { return "movimentos_estoque" }

const (
	MovimentoCompra      = "compra"
	MovimentoRestauracao = "restauracao"
)
