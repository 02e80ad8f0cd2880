package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taquilla/internal/apierror"
	"taquilla/internal/authz"
	"taquilla/internal/dto"
	"taquilla/internal/middleware"
	"taquilla/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps service error kinds to status codes. Anything that is not
// a *service.Error is logged and hidden behind a 500.
func respondError(c *gin.Context, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		status := http.StatusBadRequest
		switch {
		case errors.Is(se.Kind, service.ErrNoAutorizado):
			status = http.StatusUnauthorized
		case errors.Is(se.Kind, service.ErrProhibido):
			status = http.StatusForbidden
		case errors.Is(se.Kind, service.ErrNoEncontrado):
			status = http.StatusNotFound
		}
		c.JSON(status, apierror.WithData(se.Msg, se.Data))
		return
	}
	log.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
}

func ok(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, dto.APIResponse{Success: true, Message: msg, Data: data})
}

// actor returns the caller or writes a 401.
func actor(c *gin.Context) (authz.Actor, bool) {
	a, found := middleware.GetActor(c)
	if !found {
		c.JSON(http.StatusUnauthorized, apierror.New("Usuario no autenticado"))
	}
	return a, found
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// pageParams parses page and limit leniently; garbage becomes 0 and is
// clamped by the service.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

const fechaLayout = "2006-01-02"

func parseFecha(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(fechaLayout, v, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// dateRange reads fechaInicio / fechaFin. A date-only fechaFin covers the whole day.
func dateRange(c *gin.Context) (dto.DateRange, bool) {
	desde, err := parseFecha(c.Query("fechaInicio"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Fecha de inicio inválida"))
		return dto.DateRange{}, false
	}
	fin := c.Query("fechaFin")
	hasta, err := parseFecha(fin)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Fecha de fin inválida"))
		return dto.DateRange{}, false
	}
	if hasta != nil && len(fin) == len(fechaLayout) {
		end := hasta.Add(24*time.Hour - time.Nanosecond)
		hasta = &end
	}
	return dto.DateRange{Desde: desde, Hasta: hasta}, true
}
