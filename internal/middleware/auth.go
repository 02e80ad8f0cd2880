package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taquilla/internal/apierror"
	"taquilla/internal/authz"
	"taquilla/internal/model"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ActorKey = "actor"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Autenticar(ctx context.Context, token string) (*model.Usuario, error)
}

// JWTAuth validates the Bearer token and loads the caller on every protected route.
func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("No token, autorización denegada"))
			return
		}

		user, err := auth.Autenticar(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			var se *service.Error
			if errors.As(err, &se) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(se.Msg))
				return
			}
			log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("auth: user lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
			return
		}

		c.Set(ActorKey, authz.FromUsuario(user))
		c.Next()
	}
}

// RequireRole rejects requests whose caller role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Usuario no autenticado"))
			return
		}
		if !allowed[actor.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("No tiene permisos para realizar esta acción"))
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated caller set by JWTAuth.
func GetActor(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}
