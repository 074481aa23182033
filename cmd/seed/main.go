// Seeds an admin, a couple of users and a small catalog for local runs.
// Usage: DB_DRIVER=sqlite DATABASE_URL=livraria.db go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"livraria/internal/config"
	"livraria/internal/infra"
	"livraria/internal/model"
	"livraria/internal/repository"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(infra.DatabaseOptions{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DatabaseURL,
		AutoMigrate: true,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	ctx := context.Background()

	admin := model.Admin{Nome: "Admin Demo", Email: "admin@livraria.dev"}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoUpdates: clause.AssignmentColumns([]string{"nome"})}).
		Create(&admin).Error; err != nil {
		log.Fatal().Err(err).Msg("insert admin")
	}
	if admin.ID == 0 {
		if err := db.WithContext(ctx).Where("email = ?", admin.Email).First(&admin).Error; err != nil {
			log.Fatal().Err(err).Msg("load admin")
		}
	}

	usuarios := repository.NewUsuarioRepository(db)
	for _, u := range []model.Usuario{
		{Nome: "Ana Souza", Email: "ana@livraria.dev", Endereco: "Rua das Flores, 10", Telefone: "11988887777"},
		{Nome: "Bruno Lima", Email: "bruno@livraria.dev", Endereco: "Av. Brasil, 200", Telefone: "21977776666"},
	} {
		if err := usuarios.Create(ctx, &u); err != nil {
			log.Fatal().Err(err).Str("email", u.Email).Msg("insert usuario")
		}
	}

	livros := repository.NewLivroRepository(db)
	for _, l := range []model.Livro{
		{Titulo: "Dom Casmurro", Autor: "Machado de Assis", QuantidadePaginas: 256, Editora: "Garnier", Genero: "Romance", QuantidadeEstoque: 10, PrecoUni: decimal.RequireFromString("39.90")},
		{Titulo: "Grande Sertão: Veredas", Autor: "Guimarães Rosa", QuantidadePaginas: 624, Editora: "José Olympio", Genero: "Romance", QuantidadeEstoque: 4, PrecoUni: decimal.RequireFromString("89.50")},
		{Titulo: "Vidas Secas", Autor: "Graciliano Ramos", QuantidadePaginas: 176, Editora: "Record", Genero: "Romance", QuantidadeEstoque: 2, PrecoUni: decimal.RequireFromString("29.00")},
	} {
		l.AdminID = admin.ID
		if err := livros.Create(ctx, &l); err != nil {
			log.Fatal().Err(err).Str("titulo", l.Titulo).Msg("insert livro")
		}
	}

	log.Info().Uint("admin_id", admin.ID).Msg("seed concluído")
}
