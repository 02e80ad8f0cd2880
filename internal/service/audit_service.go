package service

import (
	"context"
	"fmt"
	"time"

	"taquilla/internal/authz"
	"taquilla/internal/dto"
	"taquilla/internal/model"
	"taquilla/internal/repository"
	"taquilla/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// AuditQueue names the worker queue that persists audit entries.
const AuditQueue = "audit"

type Accion string

const (
	AccionCrear          Accion = "CREATE"
	AccionActualizar     Accion = "UPDATE"
	AccionEliminar       Accion = "DELETE"
	AccionImprimir       Accion = "PRINT"
	AccionReimprimir     Accion = "REPRINT"
	AccionLogin          Accion = "LOGIN"
	AccionLogout         Accion = "LOGOUT"
	AccionCambioPassword Accion = "CHANGE_PASSWORD"
)

type Recurso string

const (
	RecursoAuth       Recurso = "Auth"
	RecursoUsuario    Recurso = "User"
	RecursoTicket     Recurso = "Ticket"
	RecursoPuntoVenta Recurso = "PuntoVenta"
	RecursoPeticion   Recurso = "PeticionImpresion"
)

type accionRecurso struct {
	accion  Accion
	recurso Recurso
}

// tiposPorAccion is the complete (action, resource) → category table. Sales
// points use the generic creacion / actualizacion / eliminacion categories.
var tiposPorAccion = map[accionRecurso]string{
	{AccionLogin, RecursoAuth}:            model.TipoLogin,
	{AccionLogout, RecursoAuth}:           model.TipoLogout,
	{AccionCambioPassword, RecursoAuth}:   model.TipoCambioPassword,
	{AccionImprimir, RecursoTicket}:       model.TipoImpresion,
	{AccionReimprimir, RecursoTicket}:     model.TipoReimpresion,
	{AccionCrear, RecursoUsuario}:         model.TipoCreacionUsuario,
	{AccionActualizar, RecursoUsuario}:    model.TipoActualizacionUsuario,
	{AccionEliminar, RecursoUsuario}:      model.TipoEliminacionUsuario,
	{AccionCrear, RecursoPuntoVenta}:      model.TipoCreacion,
	{AccionActualizar, RecursoPuntoVenta}: model.TipoActualizacion,
	{AccionEliminar, RecursoPuntoVenta}:   model.TipoEliminacion,
	{AccionCrear, RecursoPeticion}:        model.TipoPeticionCreada,
	{AccionActualizar, RecursoPeticion}:   model.TipoPeticionActualizada,
}

// TipoPara resolves the stored category for an action on a resource.
func TipoPara(a Accion, r Recurso) (string, bool) {
	t, ok := tiposPorAccion[accionRecurso{a, r}]
	return t, ok
}

// Evento is one auditable action.
type Evento struct {
	UsuarioID     uuid.UUID
	Accion        Accion
	Recurso       Recurso
	RecursoID     string
	Detalle       string
	TicketID      string
	TransactionID string
	PuntoTrabajo  string
	Metadata      map[string]any
}

// Submitter hands jobs to the background pool.
type Submitter interface {
	Submit(job worker.Job) error
}

type AuditService interface {
	// Registrar queues the entry and returns immediately; failures are logged.
	Registrar(ctx context.Context, ev Evento)
	Listar(ctx context.Context, f dto.AuditFilter) (*dto.AuditPage, error)
	Resumen(ctx context.Context, rango dto.DateRange) (*dto.AuditSummaryResponse, error)
	Exportar(ctx context.Context, f dto.AuditFilter) ([]byte, error)
}

type auditService struct {
	repo  repository.AuditRepository
	queue Submitter
}

func NewAuditService(repo repository.AuditRepository, queue Submitter) AuditService {
	return &auditService{repo: repo, queue: queue}
}

// AuditHandler persists queued entries; it is the audit pool's worker.Handler.
func AuditHandler(repo repository.AuditRepository) worker.Handler {
	return func(ctx context.Context, job worker.Job) error {
		entry, ok := job.Payload.(*model.AuditLog)
		if !ok {
			return fmt.Errorf("audit: unexpected payload %T", job.Payload)
		}
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return repo.Create(wctx, entry)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *auditService) Registrar(ctx context.Context, ev Evento) {
	tipo, ok := TipoPara(ev.Accion, ev.Recurso)
	if !ok {
		log.Error().Str("accion", string(ev.Accion)).Str("recurso", string(ev.Recurso)).
			Msg("audit: no category for action")
		return
	}

	detalles := map[string]any{
		"action":       string(ev.Accion),
		"resourceType": string(ev.Recurso),
		"resourceId":   ev.RecursoID,
		"details":      ev.Detalle,
	}
	for k, v := range ev.Metadata {
		detalles[k] = v
	}

	ticketID := ev.TicketID
	if ticketID == "" && ev.Recurso == RecursoTicket {
		ticketID = ev.RecursoID
	}

	origen := authz.OrigenFrom(ctx)
	entry := &model.AuditLog{
		Tipo:          tipo,
		UsuarioID:     ev.UsuarioID,
		TicketID:      optional(ticketID),
		TransactionID: optional(ev.TransactionID),
		PuntoTrabajo:  optional(ev.PuntoTrabajo),
		Detalles:      detalles,
		IP:            origen.IP,
		UserAgent:     origen.UserAgent,
		CreatedAt:     time.Now(),
	}

	log.Info().
		Str("tipo", tipo).
		Str("usuario_id", ev.UsuarioID.String()).
		Str("resource", string(ev.Recurso)).
		Str("resource_id", ev.RecursoID).
		Msgf("audit: %s %s", ev.Accion, ev.Recurso)

	if err := s.queue.Submit(worker.Job{Type: tipo, Payload: entry}); err != nil {
		log.Error().Err(err).Str("tipo", tipo).Msg("audit: entry not queued")
	}
}

func mapAuditLog(l model.AuditLog) dto.AuditLogResponse {
	r := dto.AuditLogResponse{
		ID:            l.ID,
		Tipo:          l.Tipo,
		TicketID:      l.TicketID,
		TransactionID: l.TransactionID,
		PuntoTrabajo:  l.PuntoTrabajo,
		Detalles:      l.Detalles,
		IP:            l.IP,
		UserAgent:     l.UserAgent,
		CreatedAt:     l.CreatedAt,
	}
	if l.Usuario != nil {
		r.Usuario = usuarioRef(l.Usuario)
	}
	return r
}

func (s *auditService) Listar(ctx context.Context, f dto.AuditFilter) (*dto.AuditPage, error) {
	f.Page, f.Limit = dto.ClampPage(f.Page, f.Limit)
	logs, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditLogResponse, len(logs))
	for i, l := range logs {
		out[i] = mapAuditLog(l)
	}
	return &dto.AuditPage{Logs: out, Pagination: dto.NewPagination(f.Page, f.Limit, total)}, nil
}

func (s *auditService) Resumen(ctx context.Context, rango dto.DateRange) (*dto.AuditSummaryResponse, error) {
	porTipo, err := s.repo.CountByTipo(ctx, rango)
	if err != nil {
		return nil, err
	}
	porUsuario, err := s.repo.CountByUsuario(ctx, rango)
	if err != nil {
		return nil, err
	}
	porDia, err := s.repo.CountByDia(ctx, rango)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditSummaryResponse{
		LogsPorTipo:    make([]dto.ConteoTipo, len(porTipo)),
		LogsPorUsuario: make([]dto.ConteoUsuario, len(porUsuario)),
		LogsPorDia:     make([]dto.ConteoDia, len(porDia)),
	}
	for i, c := range porTipo {
		resp.LogsPorTipo[i] = dto.ConteoTipo{Tipo: c.Clave, Count: c.Count}
	}
	for i, c := range porUsuario {
		resp.LogsPorUsuario[i] = dto.ConteoUsuario{UsuarioID: c.UsuarioID, Count: c.Count, Nombre: c.Nombre, Rol: c.Rol}
	}
	for i, c := range porDia {
		resp.LogsPorDia[i] = dto.ConteoDia{Fecha: c.Clave, Count: c.Count}
	}
	return resp, nil
}

var auditExportHeader = []string{"Fecha", "Tipo", "Usuario", "Rol", "Ticket ID", "Transaction ID", "Punto de trabajo", "IP", "Detalle"}

// Exportar renders the filtered log as an xlsx workbook.
func (s *auditService) Exportar(ctx context.Context, f dto.AuditFilter) ([]byte, error) {
	logs, err := s.repo.ListForExport(ctx, f)
	if err != nil {
		return nil, err
	}

	x := excelize.NewFile()
	defer x.Close()
	sheet := "Auditoria"
	index, err := x.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	_ = x.DeleteSheet("Sheet1")
	x.SetActiveSheet(index)

	for c, v := range auditExportHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = x.SetCellValue(sheet, cell, v)
	}
	for r, l := range logs {
		nombre, rol := "", ""
		if l.Usuario != nil {
			nombre, rol = l.Usuario.Nombre, l.Usuario.Rol
		}
		detalle, _ := l.Detalles["details"].(string)
		values := []any{
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			l.Tipo,
			nombre,
			rol,
			derefString(l.TicketID),
			derefString(l.TransactionID),
			derefString(l.PuntoTrabajo),
			l.IP,
			detalle,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = x.SetCellValue(sheet, cell, v)
		}
	}

	_ = x.SetColWidth(sheet, "A", "A", 20)
	_ = x.SetColWidth(sheet, "B", "B", 30)
	_ = x.SetColWidth(sheet, "C", "D", 18)
	_ = x.SetColWidth(sheet, "E", "G", 20)
	_ = x.SetColWidth(sheet, "I", "I", 40)
	style, _ := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	last, _ := excelize.CoordinatesToCellName(len(auditExportHeader), 1)
	_ = x.SetCellStyle(sheet, "A1", last, style)

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
