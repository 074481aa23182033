package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Livro is a catalog entry with its on-hand stock. QuantidadeEstoque is only
// mutated by the purchase workflow (and by direct book edits elsewhere).
type Livro struct {
	ID                uint            `gorm:"primaryKey"`
	Titulo            string          `gorm:"index;not null"`
	Autor             string          `gorm:"not null"`
	QuantidadePaginas int             `gorm:"not null"`
	Editora           string          `gorm:"not null"`
	Genero            string          `gorm:"not null"`
	QuantidadeEstoque int             `gorm:"not null;default:0;check:chk_livros_estoque,quantidade_estoque >= 0"`
	PrecoUni          decimal.Decimal `gorm:"type:decimal(10,2);not null;check:chk_livros_preco,preco_uni >= 0"`
	AdminID           uint            `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName keeps the table name used by the existing schema.
func (Livro) TableName() string { return "livros" }
