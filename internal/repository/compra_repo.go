package repository

import (
	"context"
	"time"

	"livraria/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompraFilter narrows purchase listings. Nil bounds are unrestricted; both
// bounds are inclusive.
type CompraFilter struct {
	Inicio *time.Time
	Fim    *time.Time
	Offset int
	Limit  int
}

type CompraRepository interface {
	Create(ctx context.Context, c *model.Compra) error
	FindByID(ctx context.Context, id uint) (*model.Compra, error)
	// FindByIDForUpdate locks the purchase row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Compra, error)
	Update(ctx context.Context, c *model.Compra) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter CompraFilter) ([]model.Compra, int64, error)
	SomaQuantidade(ctx context.Context) (int64, error)
	SomaPrecoPago(ctx context.Context) (decimal.Decimal, error)
	SomaPrecoPagoPorUsuario(ctx context.Context, usuarioID uint) (decimal.Decimal, error)
}

type compraRepo struct{ db *gorm.DB }

func NewCompraRepository(db *gorm.DB) CompraRepository { return &compraRepo{db: db} }

func (r *compraRepo) Create(ctx context.Context, c *model.Compra) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *compraRepo) FindByID(ctx context.Context, id uint) (*model.Compra, error) {
	var c model.Compra
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *compraRepo) FindByIDForUpdate(ctx context.Context, id uint) (*model.Compra, error) {
	var c model.Compra
	if err := forUpdate(r.db.WithContext(ctx)).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// Update writes the mutable columns only; DataCompra is fixed at creation.
func (r *compraRepo) Update(ctx context.Context, c *model.Compra) error {
	res := r.db.WithContext(ctx).Model(&model.Compra{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"usuario_id":           c.UsuarioID,
		"livro_id":             c.LivroID,
		"quantidade_comprados": c.QuantidadeComprados,
		"preco_pago":           c.PrecoPago,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *compraRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Compra{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *compraRepo) List(ctx context.Context, filter CompraFilter) ([]model.Compra, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Compra{})
	if filter.Inicio != nil {
		q = q.Where("data_compra >= ?", *filter.Inicio)
	}
	if filter.Fim != nil {
		q = q.Where("data_compra <= ?", *filter.Fim)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var compras []model.Compra
	err := q.Order("data_compra DESC, id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&compras).Error
	return compras, total, err
}

func (r *compraRepo) SomaQuantidade(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Compra{}).
		Select("COALESCE(SUM(quantidade_comprados), 0)").
		Row().Scan(&total)
	return total, err
}

func (r *compraRepo) SomaPrecoPago(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Compra{}).
		Select("COALESCE(SUM(preco_pago), 0)").
		Row().Scan(&total)
	return total, err
}

func (r *compraRepo) SomaPrecoPagoPorUsuario(ctx context.Context, usuarioID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Compra{}).
		Where("usuario_id = ?", usuarioID).
		Select("COALESCE(SUM(preco_pago), 0)").
		Row().Scan(&total)
	return total, err
}
