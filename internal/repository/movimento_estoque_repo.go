package repository

import (
	"context"

	"livraria/internal/model"

	"gorm.io/gorm"
)

// MovimentoEstoqueFilter defines filters for listing stock movements.
type MovimentoEstoqueFilter struct {
	LivroID *uint
	Offset  int
	Limit   int
}

type MovimentoEstoqueRepository interface {
	Create(ctx context.Context, m *model.MovimentoEstoque) error
	List(ctx context.Context, filter MovimentoEstoqueFilter) ([]model.MovimentoEstoque, int64, error)
}

type movimentoEstoqueRepo struct{ db *gorm.DB }

func NewMovimentoEstoqueRepository(db *gorm.DB) MovimentoEstoqueRepository {
	return &movimentoEstoqueRepo{db: db}
}

func (r *movimentoEstoqueRepo) Create(ctx context.Context, m *model.MovimentoEstoque) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimentoEstoqueRepo) List(ctx context.Context, filter MovimentoEstoqueFilter) ([]model.MovimentoEstoque, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimentoEstoque{})
	if filter.LivroID != nil {
		q = q.Where("livro_id = ?", *filter.LivroID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var movimentos []model.MovimentoEstoque
	err := q.Order("id DESC").Offset(offset).Limit(limit).Find(&movimentos).Error
	return movimentos, total, err
}
