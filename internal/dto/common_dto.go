package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage = 100000
)

// Pagination is the paging envelope shared by every list endpoint.
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// NewPagination derives the page count from total and limit.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{CurrentPage: page, TotalPages: pages, TotalItems: total, ItemsPerPage: limit}
}

// ClampPage normalizes page/limit instead of rejecting them.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// UsuarioRef is the denormalized view of a referenced user.
type UsuarioRef struct {
	ID      uuid.UUID `json:"id"`
	Nombre  string    `json:"nombre"`
	Usuario string    `json:"usuario"`
	Rol     string    `json:"rol,omitempty"`
}

// DateRange is an optional [Desde, Hasta] filter.
type DateRange struct {
	Desde *time.Time
	Hasta *time.Time
}

// APIResponse is the success envelope: {success, message?, data?}.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
