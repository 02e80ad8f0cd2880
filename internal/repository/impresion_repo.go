package repository

import (
	"context"
	"time"

	"taquilla/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// prioridadRank orders urgente > alta > normal.
const prioridadRank = "CASE prioridad WHEN 'urgente' THEN 3 WHEN 'alta' THEN 2 ELSE 1 END"

// PeticionQuery describes a page of print requests.
type PeticionQuery struct {
	// PuntoTrabajo nil means every location.
	PuntoTrabajo *string
	// Estado "" disables the state filter.
	Estado string
	// PorPrioridad sorts by priority before recency (the impresor queue).
	PorPrioridad bool
	Page         int
	Limit        int
}

// ImpresionStats holds raw aggregates for one scope.
type ImpresionStats struct {
	PorEstado    map[string]int64
	PorPrioridad map[string]int64
	PorPunto     []ConteoClave
	CreadasDesde int64
}

// CompletadasQuery narrows completed-request counts used by the ticket dashboard.
type CompletadasQuery struct {
	PuntoTrabajo string
	Desde        *time.Time
	Hasta        *time.Time
}

type ImpresionRepository interface {
	Create(ctx context.Context, p *model.PeticionImpresion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PeticionImpresion, error)
	// FindDuplicada matches regardless of state.
	FindDuplicada(ctx context.Context, transactionID, punto string) (*model.PeticionImpresion, error)
	// FindByTransaction returns one matching request, in no defined order.
	FindByTransaction(ctx context.Context, transactionID string, punto *string) (*model.PeticionImpresion, error)
	List(ctx context.Context, q PeticionQuery) ([]model.PeticionImpresion, int64, error)
	Update(ctx context.Context, p *model.PeticionImpresion) error
	Stats(ctx context.Context, punto *string, desde time.Time) (*ImpresionStats, error)
	CountCompletadas(ctx context.Context, q CompletadasQuery) (int64, error)
	CompletadasPorDia(ctx context.Context, q CompletadasQuery) ([]ConteoClave, error)
	CompletadasPorPunto(ctx context.Context) ([]ConteoClave, error)
}

type impresionRepo struct{ db *gorm.DB }

func NewImpresionRepository(db *gorm.DB) ImpresionRepository { return &impresionRepo{db: db} }

func (r *impresionRepo) Create(ctx context.Context, p *model.PeticionImpresion) error {
	return r.db.WithContext(ctx).Omit("SolicitadoPor", "AsignadoA", "ProcesadoPor").Create(p).Error
}

func (r *impresionRepo) withUsuarios(q *gorm.DB) *gorm.DB {
	return q.Preload("SolicitadoPor").Preload("AsignadoA").Preload("ProcesadoPor")
}

func (r *impresionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PeticionImpresion, error) {
	var p model.PeticionImpresion
	if err := r.withUsuarios(r.db.WithContext(ctx)).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *impresionRepo) FindDuplicada(ctx context.Context, transactionID, punto string) (*model.PeticionImpresion, error) {
	var p model.PeticionImpresion
	err := r.db.WithContext(ctx).
		Where("transaction_id = ? AND punto_trabajo = ?", transactionID, punto).
		Take(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *impresionRepo) FindByTransaction(ctx context.Context, transactionID string, punto *string) (*model.PeticionImpresion, error) {
	var p model.PeticionImpresion
	q := r.withUsuarios(r.db.WithContext(ctx)).Where("transaction_id = ?", transactionID)
	if punto != nil {
		q = q.Where("punto_trabajo = ?", *punto)
	}
	if err := q.Take(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *impresionRepo) List(ctx context.Context, pq PeticionQuery) ([]model.PeticionImpresion, int64, error) {
	var list []model.PeticionImpresion
	var total int64

	q := r.db.WithContext(ctx).Model(&model.PeticionImpresion{})
	if pq.PuntoTrabajo != nil {
		q = q.Where("punto_trabajo = ?", *pq.PuntoTrabajo)
	}
	if pq.Estado != "" {
		q = q.Where("estado = ?", pq.Estado)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pq.PorPrioridad {
		q = q.Order(prioridadRank + " DESC")
	}
	offset := (pq.Page - 1) * pq.Limit
	err := r.withUsuarios(q).
		Order("created_at DESC").
		Limit(pq.Limit).Offset(offset).
		Find(&list).Error
	return list, total, err
}

func (r *impresionRepo) Update(ctx context.Context, p *model.PeticionImpresion) error {
	return r.db.WithContext(ctx).Omit("SolicitadoPor", "AsignadoA", "ProcesadoPor").Save(p).Error
}

func (r *impresionRepo) scoped(ctx context.Context, punto *string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.PeticionImpresion{})
	if punto != nil {
		q = q.Where("punto_trabajo = ?", *punto)
	}
	return q
}

func (r *impresionRepo) Stats(ctx context.Context, punto *string, desde time.Time) (*ImpresionStats, error) {
	st := &ImpresionStats{PorEstado: map[string]int64{}, PorPrioridad: map[string]int64{}}

	var porEstado []ConteoClave
	if err := r.scoped(ctx, punto).Select("estado AS clave, COUNT(*) AS count").Group("estado").Scan(&porEstado).Error; err != nil {
		return nil, err
	}
	for _, c := range porEstado {
		st.PorEstado[c.Clave] = c.Count
	}

	var porPrioridad []ConteoClave
	if err := r.scoped(ctx, punto).Select("prioridad AS clave, COUNT(*) AS count").Group("prioridad").Scan(&porPrioridad).Error; err != nil {
		return nil, err
	}
	for _, c := range porPrioridad {
		st.PorPrioridad[c.Clave] = c.Count
	}

	if err := r.scoped(ctx, punto).Select("punto_trabajo AS clave, COUNT(*) AS count").
		Group("punto_trabajo").Order("punto_trabajo ASC").Scan(&st.PorPunto).Error; err != nil {
		return nil, err
	}

	if err := r.scoped(ctx, punto).Where("created_at >= ?", desde).Count(&st.CreadasDesde).Error; err != nil {
		return nil, err
	}
	return st, nil
}

func (r *impresionRepo) completadas(ctx context.Context, cq CompletadasQuery) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.PeticionImpresion{}).Where("estado = ?", model.EstadoCompletada)
	if cq.PuntoTrabajo != "" {
		q = q.Where("punto_trabajo = ?", cq.PuntoTrabajo)
	}
	return applyRango(q, "fecha_procesado", cq.Desde, cq.Hasta)
}

func (r *impresionRepo) CountCompletadas(ctx context.Context, cq CompletadasQuery) (int64, error) {
	var n int64
	err := r.completadas(ctx, cq).Count(&n).Error
	return n, err
}

func (r *impresionRepo) CompletadasPorDia(ctx context.Context, cq CompletadasQuery) ([]ConteoClave, error) {
	var rows []ConteoClave
	day := dayExpr(r.db, "fecha_procesado")
	err := r.completadas(ctx, cq).
		Where("fecha_procesado IS NOT NULL").
		Select(day + " AS clave, COUNT(*) AS count").
		Group(day).
		Order("clave ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *impresionRepo) CompletadasPorPunto(ctx context.Context) ([]ConteoClave, error) {
	var rows []ConteoClave
	err := r.db.WithContext(ctx).Model(&model.PeticionImpresion{}).
		Where("estado = ?", model.EstadoCompletada).
		Select("punto_trabajo AS clave, COUNT(*) AS count").
		Group("punto_trabajo").
		Scan(&rows).Error
	return rows, err
}
