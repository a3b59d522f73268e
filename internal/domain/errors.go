package domain

import (
	"errors"
	"fmt"
)

// Errores esperados del ciclo de vida de sesiones y publicaciones.
// Se retornan como valores, nunca como panics: "cookie inválida" es una
// rama normal del flujo, no una falla inesperada.
var (
	// ErrInvalidScheduleConfig indica parámetros de programación inválidos
	ErrInvalidScheduleConfig = errors.New("invalid schedule config")

	// ErrValidation indica que un UploadJob violó un invariante
	ErrValidation = errors.New("upload job validation failed")

	// ErrSessionExpired indica sesión inválida sin refresh interactivo permitido
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionRefreshFailed indica que el refresh no produjo una sesión usable
	ErrSessionRefreshFailed = errors.New("session refresh failed")

	// ErrSessionTooLarge indica que el blob supera el límite incluso comprimido
	ErrSessionTooLarge = errors.New("session blob too large")

	// ErrPublishUncertain indica publicación sin confirmación tras reintentos
	ErrPublishUncertain = errors.New("publish result uncertain")

	// ErrTimeout indica que una espera acotada expiró; siempre se trata como
	// el resultado conservador (fallo/inválido), nunca como éxito implícito
	ErrTimeout = errors.New("timeout")

	// ErrAccountNotFound indica que la cuenta no existe en el store
	ErrAccountNotFound = errors.New("account not found")
)

// StepError indica que un paso de la máquina de estados agotó su presupuesto
// de reintentos
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
