package types

import (
	"errors"
	"fmt"
	"strings"
)

type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// ErrorKind is the coarse failure class surfaced to users.
type ErrorKind string

const (
	KindAuthRequired ErrorKind = "auth_required"
	KindPermission   ErrorKind = "permission"
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindStore        ErrorKind = "store"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrPermission   = errors.New("permission denied")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
)

// Validation wraps ErrValidation with the offending field.
func Validation(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, reason)
}

// permissionMarkers are substrings databases use when a row level policy or a
// grant rejects a statement.
var permissionMarkers = []string{
	"permission denied",
	"row-level security",
	"row level security",
	"access denied",
	"insufficient privilege",
}

// Classify maps an error onto the user facing taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthRequired):
		return KindAuthRequired
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range permissionMarkers {
		if strings.Contains(msg, marker) {
			return KindPermission
		}
	}
	if strings.Contains(msg, "jwt") || strings.Contains(msg, "not authenticated") {
		return KindAuthRequired
	}
	if strings.Contains(msg, "not null constraint") || strings.Contains(msg, "violates not-null") {
		return KindValidation
	}
	return KindStore
}

// UserMessage returns the notification text for an error.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindAuthRequired:
		return "Você precisa estar autenticado para realizar esta operação."
	case KindPermission:
		return "Você não tem permissão para realizar esta operação."
	case KindValidation:
		return "Dados inválidos: verifique os campos obrigatórios."
	case KindNotFound:
		return "Registro não encontrado."
	default:
		return "Erro ao comunicar com o banco de dados. Tente novamente."
	}
}

// StatusCode maps an error onto an HTTP status.
func StatusCode(err error) int {
	switch Classify(err) {
	case KindAuthRequired:
		return 401
	case KindPermission:
		return 403
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	default:
		return 500
	}
}
