package sharegrants

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrAccessDenied no es una falla: es el resultado Deny traducido a error
	// para los consumidores que solo quieren cortar el request.
	ErrAccessDenied = errors.New("access denied")
)

// ValidationError nombra el primer campo inválido del request de creación.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidRequestError es un error de programación del llamador (enum desconocido).
type InvalidRequestError struct {
	Field string
	Value string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: unknown %s %q", e.Field, e.Value)
}

// NotFoundError se usa cuando el llamador no tiene relación con la familia;
// la frontera lo trata como Deny / lista vacía.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsInvalidRequest(err error) bool {
	var ie *InvalidRequestError
	return errors.As(err, &ie)
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
