package repository

import (
	"context"

	"taquilla/internal/dto"
	"taquilla/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// exportLimit caps the rows written to a spreadsheet export.
const exportLimit = 10000

type ConteoUsuario struct {
	UsuarioID uuid.UUID
	Count     int64
	Nombre    string
	Rol       string
}

type AuditRepository interface {
	Create(ctx context.Context, l *model.AuditLog) error
	List(ctx context.Context, f dto.AuditFilter) ([]model.AuditLog, int64, error)
	ListForExport(ctx context.Context, f dto.AuditFilter) ([]model.AuditLog, error)
	CountByTipo(ctx context.Context, rango dto.DateRange) ([]ConteoClave, error)
	CountByUsuario(ctx context.Context, rango dto.DateRange) ([]ConteoUsuario, error)
	CountByDia(ctx context.Context, rango dto.DateRange) ([]ConteoClave, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, l *model.AuditLog) error {
	return r.db.WithContext(ctx).Omit("Usuario").Create(l).Error
}

func (r *auditRepo) filtered(ctx context.Context, f dto.AuditFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if f.Tipo != "" {
		q = q.Where("tipo = ?", f.Tipo)
	}
	if f.Usuario != "" {
		q = q.Where("usuario_id = ?", f.Usuario)
	}
	if f.TicketID != "" {
		q = q.Where("ticket_id = ?", f.TicketID)
	}
	return applyRango(q, "created_at", f.Rango.Desde, f.Rango.Hasta)
}

func (r *auditRepo) List(ctx context.Context, f dto.AuditFilter) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	q := r.filtered(ctx, f)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (f.Page - 1) * f.Limit
	err := q.Preload("Usuario").
		Order("created_at DESC").
		Limit(f.Limit).Offset(offset).
		Find(&logs).Error
	return logs, total, err
}

func (r *auditRepo) ListForExport(ctx context.Context, f dto.AuditFilter) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := r.filtered(ctx, f).Preload("Usuario").
		Order("created_at DESC").
		Limit(exportLimit).
		Find(&logs).Error
	return logs, err
}

func (r *auditRepo) CountByTipo(ctx context.Context, rango dto.DateRange) ([]ConteoClave, error) {
	var rows []ConteoClave
	err := r.filtered(ctx, dto.AuditFilter{Rango: rango}).
		Select("tipo AS clave, COUNT(*) AS count").
		Group("tipo").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *auditRepo) CountByUsuario(ctx context.Context, rango dto.DateRange) ([]ConteoUsuario, error) {
	var rows []ConteoUsuario
	q := r.db.WithContext(ctx).Table("audit_logs AS a").
		Joins("JOIN usuarios AS u ON u.id = a.usuario_id")
	q = applyRango(q, "a.created_at", rango.Desde, rango.Hasta)
	err := q.Select("a.usuario_id AS usuario_id, COUNT(*) AS count, u.nombre AS nombre, u.rol AS rol").
		Group("a.usuario_id, u.nombre, u.rol").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *auditRepo) CountByDia(ctx context.Context, rango dto.DateRange) ([]ConteoClave, error) {
	var rows []ConteoClave
	day := dayExpr(r.db, "created_at")
	err := r.filtered(ctx, dto.AuditFilter{Rango: rango}).
		Select(day + " AS clave, COUNT(*) AS count").
		Group(day).
		Order("clave ASC").
		Scan(&rows).Error
	return rows, err
}
