package repository

import (
	"context"

	"livraria/internal/model"

	"gorm.io/gorm"
)

// LivroRepository defines the data access contract for books as seen by the
// purchase workflow: narrow by-id reads and stock deltas.
type LivroRepository interface {
	Create(ctx context.Context, l *model.Livro) error
	FindByID(ctx context.Context, id uint) (*model.Livro, error)
	// FindByIDForUpdate reads the row and holds a write lock on it until the
	// surrounding transaction ends. Only meaningful on a tx-bound repository.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Livro, error)
	// AjustarEstoque adds delta to quantidade_estoque.
	AjustarEstoque(ctx context.Context, id uint, delta int) error
	Delete(ctx context.Context, id uint) error
	ListAbaixoDe(ctx context.Context, limite int) ([]model.Livro, error)
}

type livroRepo struct{ db *gorm.DB }

func NewLivroRepository(db *gorm.DB) LivroRepository { return &livroRepo{db: db} }

func (r *livroRepo) Create(ctx context.Context, l *model.Livro) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *livroRepo) FindByID(ctx context.Context, id uint) (*model.Livro, error) {
	var l model.Livro
	if err := r.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *livroRepo) FindByIDForUpdate(ctx context.Context, id uint) (*model.Livro, error) {
	var l model.Livro
	if err := forUpdate(r.db.WithContext(ctx)).First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *livroRepo) AjustarEstoque(ctx context.Context, id uint, delta int) error {
	res := r.db.WithContext(ctx).Model(&model.Livro{}).Where("id = ?", id).
		Update("quantidade_estoque", gorm.Expr("quantidade_estoque + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *livroRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Livro{}, id).Error
}

func (r *livroRepo) ListAbaixoDe(ctx context.Context, limite int) ([]model.Livro, error) {
	var livros []model.Livro
	err := r.db.WithContext(ctx).
		Where("quantidade_estoque <= ?", limite).
		Order("quantidade_estoque ASC, id ASC").
		Find(&livros).Error
	return livros, err
}
