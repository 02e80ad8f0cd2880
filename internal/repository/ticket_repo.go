package repository

import (
	"context"
	"time"

	"taquilla/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ticketSearchDoc must stay identical to the expression indexed by
// idx_tickets_fts in the migrations, otherwise Postgres skips the index.
const ticketSearchDoc = "to_tsvector('simple', coalesce(first_name,'') || ' ' || coalesce(last_name,'') || ' ' || " +
	"coalesce(email,'') || ' ' || coalesce(ticket_id,'') || ' ' || coalesce(transaction_id,'') || ' ' || coalesce(cedula,''))"

var ticketSubstringCols = []string{"first_name", "last_name", "email", "ticket_id", "transaction_id", "cedula"}

// ticketSortCols maps accepted sortBy values (export column names and their
// snake_case equivalents) to columns.
var ticketSortCols = map[string]string{
	"First Name":        "first_name",
	"first_name":        "first_name",
	"Last Name":         "last_name",
	"last_name":         "last_name",
	"Email":             "email",
	"email":             "email",
	"Ticket":            "localidad",
	"localidad":         "localidad",
	"Seat":              "asiento",
	"asiento":           "asiento",
	"Transaction ID":    "transaction_id",
	"transaction_id":    "transaction_id",
	"Ticket ID":         "ticket_id",
	"ticket_id":         "ticket_id",
	"Numero de Cedula:": "cedula",
	"cedula":            "cedula",
	"impreso":           "impreso",
	"fechaImpresion":    "fecha_impresion",
	"createdAt":         "created_at",
}

// TicketQuery describes one ticket search page.
type TicketQuery struct {
	// Localidades nil means unrestricted; an empty non-nil slice matches nothing.
	Localidades []string
	Search      string
	FullText    bool
	SeatSearch  string
	Impreso     *bool
	SortBy      string
	SortDesc    bool
	Page        int
	Limit       int
}

// TicketStatsQuery narrows print statistics.
type TicketStatsQuery struct {
	PuntoTrabajo string
	Desde        *time.Time
	Hasta        *time.Time
}

type ConteoClave struct {
	Clave string
	Count int64
}

type TicketRepository interface {
	// SupportsFullText reports whether indexed full-text search is available.
	SupportsFullText() bool
	Search(ctx context.Context, q TicketQuery) ([]model.Ticket, int64, error)
	// FindByRef looks a ticket up by its export "Ticket ID", or by primary key.
	FindByRef(ctx context.Context, ref string) (*model.Ticket, error)
	ListByTransaction(ctx context.Context, transactionID string) ([]model.Ticket, error)
	MarcarImpreso(ctx context.Context, t *model.Ticket) error
	AgregarReimpresion(ctx context.Context, r *model.Reimpresion) error
	CountByLocalidades(ctx context.Context, localidades []string) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	CountImpresos(ctx context.Context, q TicketStatsQuery) (int64, error)
	ImpresosPorDia(ctx context.Context, q TicketStatsQuery) ([]ConteoClave, error)
	ImpresosPorPunto(ctx context.Context) ([]ConteoClave, error)
	Create(ctx context.Context, t *model.Ticket) error
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository { return &ticketRepo{db: db} }

func (r *ticketRepo) SupportsFullText() bool { return isPostgres(r.db) }

func applyLocalidades(q *gorm.DB, localidades []string) *gorm.DB {
	if localidades == nil {
		return q
	}
	if len(localidades) == 0 {
		return q.Where("1 = 0")
	}
	parts := make([]string, 0, len(localidades))
	args := make([]any, 0, len(localidades))
	for _, l := range localidades {
		cond, a := likeAny(containsPattern(l), "localidad")
		parts = append(parts, cond)
		args = append(args, a...)
	}
	sql := parts[0]
	for _, p := range parts[1:] {
		sql += " OR " + p
	}
	return q.Where("("+sql+")", args...)
}

func (r *ticketRepo) Search(ctx context.Context, tq TicketQuery) ([]model.Ticket, int64, error) {
	var tickets []model.Ticket
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Ticket{})
	q = applyLocalidades(q, tq.Localidades)

	if tq.Search != "" {
		if tq.FullText && r.SupportsFullText() {
			q = q.Where(ticketSearchDoc+" @@ plainto_tsquery('simple', ?)", tq.Search)
		} else {
			cond, args := likeAny(containsPattern(tq.Search), ticketSubstringCols...)
			q = q.Where(cond, args...)
		}
	}
	if tq.SeatSearch != "" {
		cond, args := likeAny(containsPattern(tq.SeatSearch), "asiento")
		q = q.Where(cond, args...)
	}
	if tq.Impreso != nil {
		q = q.Where("impreso = ?", *tq.Impreso)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := " ASC"
	if tq.SortDesc {
		dir = " DESC"
	}
	if col, ok := ticketSortCols[tq.SortBy]; ok {
		q = q.Order(col + dir)
	} else {
		q = q.Order("last_name" + dir).Order("first_name" + dir)
	}

	offset := (tq.Page - 1) * tq.Limit
	err := q.Preload("UsuarioResponsable").
		Preload("Reimpresiones", func(db *gorm.DB) *gorm.DB { return db.Order("fecha ASC") }).
		Limit(tq.Limit).Offset(offset).
		Find(&tickets).Error
	return tickets, total, err
}

func (r *ticketRepo) FindByRef(ctx context.Context, ref string) (*model.Ticket, error) {
	find := func(cond string, arg any) (*model.Ticket, error) {
		var t model.Ticket
		err := r.db.WithContext(ctx).
			Preload("Reimpresiones", func(db *gorm.DB) *gorm.DB { return db.Order("fecha ASC") }).
			Where(cond, arg).
			First(&t).Error
		if err != nil {
			return nil, err
		}
		return &t, nil
	}

	t, err := find("ticket_id = ?", ref)
	if err == nil || !IsNotFound(err) {
		return t, err
	}
	id, perr := uuid.Parse(ref)
	if perr != nil {
		return nil, err
	}
	return find("id = ?", id)
}

func (r *ticketRepo) ListByTransaction(ctx context.Context, transactionID string) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.db.WithContext(ctx).
		Preload("UsuarioResponsable").
		Preload("Reimpresiones", func(db *gorm.DB) *gorm.DB { return db.Order("fecha ASC") }).
		Where("transaction_id = ?", transactionID).
		Order("asiento ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepo) MarcarImpreso(ctx context.Context, t *model.Ticket) error {
	return r.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", t.ID).Updates(map[string]any{
		"impreso":                t.Impreso,
		"fecha_impresion":        t.FechaImpresion,
		"usuario_responsable_id": t.UsuarioResponsableID,
		"punto_trabajo":          t.PuntoTrabajo,
		"quien_retira":           t.QuienRetira,
		"parentesco":             t.Parentesco,
		"quien_otro":             t.QuienOtro,
		"celular":                t.Celular,
		"updated_at":             time.Now(),
	}).Error
}

func (r *ticketRepo) AgregarReimpresion(ctx context.Context, re *model.Reimpresion) error {
	return r.db.WithContext(ctx).Omit("Usuario").Create(re).Error
}

func (r *ticketRepo) CountByLocalidades(ctx context.Context, localidades []string) (int64, error) {
	var n int64
	q := applyLocalidades(r.db.WithContext(ctx).Model(&model.Ticket{}), localidades)
	err := q.Count(&n).Error
	return n, err
}

func (r *ticketRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).Count(&n).Error
	return n, err
}

func (r *ticketRepo) impresos(ctx context.Context, sq TicketStatsQuery) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Ticket{}).Where("impreso = ?", true)
	if sq.PuntoTrabajo != "" {
		q = q.Where("punto_trabajo = ?", sq.PuntoTrabajo)
	}
	return applyRango(q, "fecha_impresion", sq.Desde, sq.Hasta)
}

func (r *ticketRepo) CountImpresos(ctx context.Context, sq TicketStatsQuery) (int64, error) {
	var n int64
	err := r.impresos(ctx, sq).Count(&n).Error
	return n, err
}

func (r *ticketRepo) ImpresosPorDia(ctx context.Context, sq TicketStatsQuery) ([]ConteoClave, error) {
	var rows []ConteoClave
	day := dayExpr(r.db, "fecha_impresion")
	err := r.impresos(ctx, sq).
		Where("fecha_impresion IS NOT NULL").
		Select(day + " AS clave, COUNT(*) AS count").
		Group(day).
		Order("clave ASC").
		Scan(&rows).Error
	return rows, err
}

// ImpresosPorPunto ignores the stats filters, matching the dashboard's
// all-time per-location ranking.
func (r *ticketRepo) ImpresosPorPunto(ctx context.Context) ([]ConteoClave, error) {
	var rows []ConteoClave
	err := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("impreso = ?", true).
		Select("COALESCE(punto_trabajo, '') AS clave, COUNT(*) AS count").
		Group("COALESCE(punto_trabajo, '')").
		Scan(&rows).Error
	return rows, err
}

func (r *ticketRepo) Create(ctx context.Context, t *model.Ticket) error {
	return r.db.WithContext(ctx).Omit("UsuarioResponsable").Create(t).Error
}
