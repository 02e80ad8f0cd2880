package service

import "errors"

// Error kinds. Handlers map them to HTTP status codes; anything else is a 500.
var (
	ErrValidacion   = errors.New("validacion")
	ErrNoAutorizado = errors.New("no autorizado")
	ErrProhibido    = errors.New("prohibido")
	ErrNoEncontrado = errors.New("no encontrado")
	// ErrConflicto is a duplicate record; Data carries the existing one.
	ErrConflicto = errors.New("conflicto")
)

// Error is a client-facing failure: Msg is safe to return verbatim.
type Error struct {
	Kind error
	Msg  string
	Data any
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func validacion(msg string) error   { return &Error{Kind: ErrValidacion, Msg: msg} }
func noAutorizado(msg string) error { return &Error{Kind: ErrNoAutorizado, Msg: msg} }
func prohibido(msg string) error    { return &Error{Kind: ErrProhibido, Msg: msg} }
func noEncontrado(msg string) error { return &Error{Kind: ErrNoEncontrado, Msg: msg} }

func conflicto(msg string, data any) error {
	return &Error{Kind: ErrConflicto, Msg: msg, Data: data}
}
