// Package apierror defines the error taxonomy shared by services and handlers.
// Services return *Error values (or wrap them); handlers translate them into the
// response envelope via Status, so internal details (SQL, stack traces) never
// reach clients.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInsufficientStock
	KindRegisterClosed
	KindRegisterNotFound
	KindRegisterAlreadyOpen
	KindAlreadyClosed
	KindRegisterImmutable
	KindDuplicateCode
	KindTotalMismatch
	KindNotFound
	KindMethodNotAllowed
	KindUnauthorized
	KindForbidden
	KindGateway
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindRegisterClosed:
		return "register_closed"
	case KindRegisterNotFound:
		return "register_not_found"
	case KindRegisterAlreadyOpen:
		return "register_already_open"
	case KindAlreadyClosed:
		return "already_closed"
	case KindRegisterImmutable:
		return "register_immutable"
	case KindDuplicateCode:
		return "duplicate_code"
	case KindTotalMismatch:
		return "total_mismatch"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindGateway:
		return "gateway_error"
	default:
		return "internal_error"
	}
}

// Error is the canonical business error. Fields carries per-field detail for
// validation failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so that errors.Is(err, apierror.ErrInsufficientStock)
// holds for any insufficient-stock error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation          = &Error{Kind: KindValidation, Message: "Error de validacion"}
	ErrInsufficientStock   = &Error{Kind: KindInsufficientStock, Message: "Stock insuficiente"}
	ErrRegisterClosed      = &Error{Kind: KindRegisterClosed, Message: "La caja esta cerrada"}
	ErrRegisterNotFound    = &Error{Kind: KindRegisterNotFound, Message: "Caja no encontrada"}
	ErrRegisterAlreadyOpen = &Error{Kind: KindRegisterAlreadyOpen, Message: "El usuario ya tiene una caja abierta"}
	ErrAlreadyClosed       = &Error{Kind: KindAlreadyClosed, Message: "La caja ya fue cerrada"}
	ErrRegisterImmutable   = &Error{Kind: KindRegisterImmutable, Message: "No se puede modificar una caja cerrada"}
	ErrDuplicateCode       = &Error{Kind: KindDuplicateCode, Message: "El codigo ya existe"}
	ErrTotalMismatch       = &Error{Kind: KindTotalMismatch, Message: "El total del pedido no coincide con los items"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "Recurso no encontrado"}
	ErrMethodNotAllowed    = &Error{Kind: KindMethodNotAllowed, Message: "Metodo no permitido"}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized, Message: "Autenticacion requerida"}
	ErrForbidden           = &Error{Kind: KindForbidden, Message: "Permisos insuficientes"}
	ErrGateway             = &Error{Kind: KindGateway, Message: "Error en la pasarela de pagos"}
)

// New builds an error of the given kind with a custom message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with fmt formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation builds a validation error with per-field details.
func Validation(msg string, fields map[string]string) *Error {
	if msg == "" {
		msg = ErrValidation.Message
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// NotFound is shorthand for a not-found error naming the entity.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " no encontrado"}
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindRegisterClosed, KindRegisterAlreadyOpen,
		KindAlreadyClosed, KindRegisterImmutable, KindDuplicateCode, KindTotalMismatch:
		return http.StatusBadRequest
	case KindRegisterNotFound, KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
