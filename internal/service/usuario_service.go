package service

import (
	"context"
	"strings"

	"taquilla/internal/authz"
	"taquilla/internal/config"
	"taquilla/internal/dto"
	"taquilla/internal/model"
	"taquilla/internal/repository"

	"github.com/google/uuid"
)

type UsuarioService interface {
	Crear(ctx context.Context, actor authz.Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Listar(ctx context.Context) ([]dto.UsuarioResponse, error)
	Actualizar(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	Eliminar(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	// CrearJefeInicial bootstraps the first jefe; it fails once any jefe exists.
	CrearJefeInicial(ctx context.Context, nombre, usuario, password string) (*dto.UsuarioResponse, error)
}

type usuarioService struct {
	repo  repository.UsuarioRepository
	audit AuditService
	cfg   *config.Config
}

func NewUsuarioService(repo repository.UsuarioRepository, audit AuditService, cfg *config.Config) UsuarioService {
	return &usuarioService{repo: repo, audit: audit, cfg: cfg}
}

func (s *usuarioService) existe(ctx context.Context, usuario string) (bool, error) {
	_, err := s.repo.FindByUsuario(ctx, usuario)
	if err == nil {
		return true, nil
	}
	if repository.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *usuarioService) Crear(ctx context.Context, actor authz.Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	usuario := NormalizarUsuario(req.Usuario)
	if nombre == "" || usuario == "" || !model.ValidRol(req.Rol) {
		return nil, validacion("Nombre, usuario y rol son requeridos")
	}

	var punto *string
	if req.Rol != model.RolJefe {
		if req.PuntoTrabajo == nil || strings.TrimSpace(*req.PuntoTrabajo) == "" {
			return nil, validacion("Punto de trabajo es requerido para staff e impresor")
		}
		p := strings.TrimSpace(*req.PuntoTrabajo)
		punto = &p
	}

	dup, err := s.existe(ctx, usuario)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, conflicto("El usuario ya existe", nil)
	}

	hash, err := HashPassword(s.cfg.DefaultPassword)
	if err != nil {
		return nil, err
	}
	creador := actor.ID
	user := &model.Usuario{
		Nombre:       nombre,
		Usuario:      usuario,
		PasswordHash: hash,
		Rol:          req.Rol,
		PuntoTrabajo: punto,
		PrimerAcceso: true,
		Activo:       true,
		CreadoPorID:  &creador,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID:    actor.ID,
		Accion:       AccionCrear,
		Recurso:      RecursoUsuario,
		RecursoID:    user.ID.String(),
		Detalle:      "Usuario creado: " + user.Usuario,
		PuntoTrabajo: user.Punto(),
		Metadata:     map[string]any{"usuarioCreado": user.Usuario, "rol": user.Rol},
	})

	resp := mapUsuario(user)
	return &resp, nil
}

func (s *usuarioService) Listar(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		out[i] = mapUsuario(&users[i])
	}
	return out, nil
}

func (s *usuarioService) Actualizar(ctx context.Context, actor authz.Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, noEncontrado("Usuario no encontrado")
		}
		return nil, err
	}
	if id == actor.ID && req.Activo != nil && !*req.Activo {
		return nil, validacion("No puedes desactivar tu propia cuenta")
	}

	cambios := map[string]any{}
	if req.Nombre != nil && strings.TrimSpace(*req.Nombre) != "" {
		user.Nombre = strings.TrimSpace(*req.Nombre)
		cambios["nombre"] = user.Nombre
	}
	if req.PuntoTrabajo != nil && strings.TrimSpace(*req.PuntoTrabajo) != "" && user.Rol != model.RolJefe {
		p := strings.TrimSpace(*req.PuntoTrabajo)
		user.PuntoTrabajo = &p
		cambios["puntoTrabajo"] = p
	}
	if req.Activo != nil {
		user.Activo = *req.Activo
		cambios["activo"] = user.Activo
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID: actor.ID,
		Accion:    AccionActualizar,
		Recurso:   RecursoUsuario,
		RecursoID: user.ID.String(),
		Detalle:   "Usuario actualizado: " + user.Usuario,
		Metadata:  map[string]any{"cambios": cambios},
	})

	resp := mapUsuario(user)
	return &resp, nil
}

func (s *usuarioService) Eliminar(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if id == actor.ID {
		return validacion("No puedes eliminar tu propia cuenta")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return noEncontrado("Usuario no encontrado")
		}
		return err
	}

	s.audit.Registrar(ctx, Evento{
		UsuarioID: actor.ID,
		Accion:    AccionEliminar,
		Recurso:   RecursoUsuario,
		RecursoID: id.String(),
		Detalle:   "Usuario desactivado",
	})
	return nil
}

func (s *usuarioService) CrearJefeInicial(ctx context.Context, nombre, usuario, password string) (*dto.UsuarioResponse, error) {
	hay, err := s.repo.ExisteJefe(ctx)
	if err != nil {
		return nil, err
	}
	if hay {
		return nil, conflicto("Ya existe un usuario jefe", nil)
	}
	usuario = NormalizarUsuario(usuario)
	if strings.TrimSpace(nombre) == "" || usuario == "" {
		return nil, validacion("Nombre y usuario son requeridos")
	}
	if password == "" {
		password = s.cfg.DefaultPassword
	}
	dup, err := s.existe(ctx, usuario)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, conflicto("El usuario ya existe", nil)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Nombre:       strings.TrimSpace(nombre),
		Usuario:      usuario,
		PasswordHash: hash,
		Rol:          model.RolJefe,
		PrimerAcceso: true,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := mapUsuario(user)
	return &resp, nil
}
