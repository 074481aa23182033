// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"livraria/internal/infra"
	"livraria/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewSQLite returns a migrated SQLite database living in t.TempDir().
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewDatabase(infra.DatabaseOptions{
		Driver:      "sqlite",
		DSN:         filepath.Join(t.TempDir(), "livraria.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUsuario inserts a user and returns it.
func SeedUsuario(t *testing.T, db *gorm.DB, nome string) *model.Usuario {
	t.Helper()
	u := &model.Usuario{Nome: nome, Email: nome + "@example.com", Endereco: "Rua A, 1", Telefone: "11999990000"}
	require.NoError(t, db.WithContext(context.Background()).Create(u).Error)
	return u
}

// SeedLivro inserts a book with the given stock and unit price.
func SeedLivro(t *testing.T, db *gorm.DB, titulo string, estoque int, preco float64) *model.Livro {
	t.Helper()
	l := &model.Livro{
		Titulo:            titulo,
		Autor:             "Machado de Assis",
		QuantidadePaginas: 256,
		Editora:           "Garnier",
		Genero:            "Romance",
		QuantidadeEstoque: estoque,
		PrecoUni:          decimal.NewFromFloat(preco),
		AdminID:           1,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(l).Error)
	return l
}

// Estoque reads the current stock of a book straight from the table.
func Estoque(t *testing.T, db *gorm.DB, livroID uint) int {
	t.Helper()
	var l model.Livro
	require.NoError(t, db.First(&l, livroID).Error)
	return l.QuantidadeEstoque
}
