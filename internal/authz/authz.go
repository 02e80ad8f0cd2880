// Package authz resolves who the caller is and which ticket localities they may see.
//
// An Actor is built once per request from the active user record; services
// receive it explicitly instead of reading role and location from the HTTP
// context.
package authz

import (
	"context"
	"errors"

	"taquilla/internal/model"

	"github.com/google/uuid"
)

// ErrSinPuntoTrabajo is returned for staff / impresor users without a location.
var ErrSinPuntoTrabajo = errors.New("Usuario no tiene punto de trabajo asignado")

// Actor is the authenticated caller.
type Actor struct {
	ID           uuid.UUID
	Nombre       string
	Usuario      string
	Rol          string
	PuntoTrabajo string
}

func FromUsuario(u *model.Usuario) Actor {
	return Actor{
		ID:           u.ID,
		Nombre:       u.Nombre,
		Usuario:      u.Usuario,
		Rol:          u.Rol,
		PuntoTrabajo: u.Punto(),
	}
}

func (a Actor) EsJefe() bool { return a.Rol == model.RolJefe }

// Alcance is the set of localities a caller may browse.
type Alcance struct {
	// Todas bypasses the locality filter (jefe without override).
	Todas        bool
	PuntoTrabajo string
	Localidades  []string
}

// Filtro returns the locality list for a query, nil meaning unrestricted.
func (a Alcance) Filtro() []string {
	if a.Todas {
		return nil
	}
	if a.Localidades == nil {
		return []string{}
	}
	return a.Localidades
}

// legacyLocalidades predates sales points; kept for locations that were never migrated.
var legacyLocalidades = map[string][]string{
	"boletería norte":   {"GENERAL", "PREFERENCIA"},
	"boletería sur":     {"TRIBUNA", "PALCO"},
	"centro comercial":  {"Las Mujeres Facturan BOX", "Antología GOLDEN"},
	"punto central":     {"Hips Don't Lie PLATINUM", "SOLTERA FAN ZONE"},
	"entrada principal": {"GENERAL", "PREFERENCIA", "TRIBUNA"},
}

// PuntoVentaLookup finds an active sales point by exact name.
type PuntoVentaLookup interface {
	FindActivoByNombre(ctx context.Context, nombre string) (*model.PuntoVenta, error)
}

type Resolver struct {
	puntos   PuntoVentaLookup
	notFound func(error) bool
}

// NewResolver builds a resolver; isNotFound classifies lookup misses so that
// they fall through to the legacy mapping instead of failing the request.
func NewResolver(puntos PuntoVentaLookup, isNotFound func(error) bool) *Resolver {
	return &Resolver{puntos: puntos, notFound: isNotFound}
}

// LocalidadesDe maps a work-location name to its localities.
func (r *Resolver) LocalidadesDe(ctx context.Context, punto string) ([]string, error) {
	pv, err := r.puntos.FindActivoByNombre(ctx, punto)
	if err == nil && pv != nil {
		return append([]string(nil), pv.Localidades...), nil
	}
	if err != nil && !r.notFound(err) {
		return nil, err
	}
	if locs, ok := legacyLocalidades[punto]; ok {
		return append([]string(nil), locs...), nil
	}
	return []string{model.LocalidadGeneral}, nil
}

// Resolve computes the caller's scope. override is the jefe's optional
// ?puntoTrabajo= parameter and is ignored for other roles.
func (r *Resolver) Resolve(ctx context.Context, a Actor, override string) (Alcance, error) {
	punto := a.PuntoTrabajo
	if a.EsJefe() {
		if override == "" {
			return Alcance{Todas: true}, nil
		}
		punto = override
	} else if punto == "" {
		return Alcance{}, ErrSinPuntoTrabajo
	}

	locs, err := r.LocalidadesDe(ctx, punto)
	if err != nil {
		return Alcance{}, err
	}
	return Alcance{PuntoTrabajo: punto, Localidades: locs}, nil
}

// ForPuntoVenta scopes browsing to one sales point's localities.
func ForPuntoVenta(pv *model.PuntoVenta) Alcance {
	return Alcance{PuntoTrabajo: pv.Nombre, Localidades: append([]string{}, pv.Localidades...)}
}

// Origen is the network origin of a request, recorded on audit entries.
type Origen struct {
	IP        string
	UserAgent string
}

type origenKey struct{}

func WithOrigen(ctx context.Context, o Origen) context.Context {
	return context.WithValue(ctx, origenKey{}, o)
}

// OrigenFrom returns the zero Origen when none was attached.
func OrigenFrom(ctx context.Context) Origen {
	o, _ := ctx.Value(origenKey{}).(Origen)
	return o
}
