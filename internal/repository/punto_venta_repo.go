package repository

import (
	"context"

	"taquilla/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PuntoVentaRepository interface {
	Create(ctx context.Context, p *model.PuntoVenta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PuntoVenta, error)
	// FindByNombre matches active and inactive points alike.
	FindByNombre(ctx context.Context, nombre string) (*model.PuntoVenta, error)
	FindActivoByNombre(ctx context.Context, nombre string) (*model.PuntoVenta, error)
	ListActivos(ctx context.Context) ([]model.PuntoVenta, error)
	Update(ctx context.Context, p *model.PuntoVenta) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type puntoVentaRepo struct{ db *gorm.DB }

func NewPuntoVentaRepository(db *gorm.DB) PuntoVentaRepository { return &puntoVentaRepo{db: db} }

func (r *puntoVentaRepo) Create(ctx context.Context, p *model.PuntoVenta) error {
	return r.db.WithContext(ctx).Omit("CreadoPor").Create(p).Error
}

func (r *puntoVentaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PuntoVenta, error) {
	var p model.PuntoVenta
	if err := r.db.WithContext(ctx).Preload("CreadoPor").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *puntoVentaRepo) FindByNombre(ctx context.Context, nombre string) (*model.PuntoVenta, error) {
	var p model.PuntoVenta
	if err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *puntoVentaRepo) FindActivoByNombre(ctx context.Context, nombre string) (*model.PuntoVenta, error) {
	var p model.PuntoVenta
	err := r.db.WithContext(ctx).Where("nombre = ? AND activo = ?", nombre, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *puntoVentaRepo) ListActivos(ctx context.Context) ([]model.PuntoVenta, error) {
	var list []model.PuntoVenta
	err := r.db.WithContext(ctx).Preload("CreadoPor").
		Where("activo = ?", true).
		Order("nombre ASC").
		Find(&list).Error
	return list, err
}

func (r *puntoVentaRepo) Update(ctx context.Context, p *model.PuntoVenta) error {
	return r.db.WithContext(ctx).Omit("CreadoPor").Save(p).Error
}

func (r *puntoVentaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.PuntoVenta{}).Where("id = ?", id).Update("activo", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
