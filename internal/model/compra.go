package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Compra is one purchase of a book by a user.
// PrecoPago is computed server-side as Livro.PrecoUni × QuantidadeComprados at
// the moment the purchase is created or edited, and never accepted from clients.
// LivroID intentionally has no FK constraint: a book may be removed while
// purchases still point at it.
type Compra struct {
	ID                  uint            `gorm:"primaryKey"`
	UsuarioID           uint            `gorm:"not null;index"`
	LivroID             uint            `gorm:"not null;index"`
	DataCompra          time.Time       `gorm:"not null;index"`
	PrecoPago           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	QuantidadeComprados int             `gorm:"not null;check:chk_livroscompras_quantidade,quantidade_comprados > 0"`
}

func (Compra) TableName() string { return "livroscompras" }
