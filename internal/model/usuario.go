package model

import "time"

// Usuario is a bookstore customer. Purchases reference it by UsuarioID; the
// reverse collection is read through CompraRepository, never preloaded.
type Usuario struct {
	ID        uint   `gorm:"primaryKey"`
	Nome      string `gorm:"not null"`
	Email     string `gorm:"index;not null"`
	Endereco  string
	Telefone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Usuario) TableName() string { return "usuarios" }

// Admin owns the books it registered (Livro.AdminID).
type Admin struct {
	ID        uint   `gorm:"primaryKey"`
	Nome      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (Admin) TableName() string { return "admins" }
