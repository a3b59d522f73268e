package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/platform"
)

// Result es el veredicto de una validación de sesión
type Result struct {
	Valid   bool
	Profile *domain.ProfileInfo
}

// Validator decide si un blob de sesión sigue autenticado abriendo la página
// de sondeo de la plataforma con ese estado restaurado.
type Validator struct {
	driver       automation.Driver
	platforms    *platform.Registry
	probeTimeout time.Duration
}

// NewValidator crea un validador sobre el engine de automatización dado
func NewValidator(driver automation.Driver, platforms *platform.Registry, probeTimeout time.Duration) *Validator {
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	return &Validator{driver: driver, platforms: platforms, probeTimeout: probeTimeout}
}

// Validate restaura el blob en una sesión nueva y sondea la plataforma.
// Una página indecidible dentro del timeout cuenta como sesión inválida, no
// como error: ante la duda nunca se declara válida una sesión muerta.
// Si expectedID no está vacío, un perfil con otra identidad también invalida.
func (v *Validator) Validate(ctx context.Context, blob []byte, platformName, expectedID string) (*Result, error) {
	driver, err := v.platforms.Get(platformName)
	if err != nil {
		return nil, err
	}

	sess, err := v.driver.NewSession(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("open validation session: %w", err)
	}
	defer sess.Close(ctx)

	page, err := sess.Open(ctx, driver.ProbeURL())
	if err != nil {
		return nil, fmt.Errorf("open probe page: %w", err)
	}
	defer page.Close(ctx)

	profile, valid, err := driver.Probe(ctx, page, v.probeTimeout)
	if errors.Is(err, domain.ErrTimeout) {
		return &Result{Valid: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", platformName, err)
	}
	if !valid {
		return &Result{Valid: false}, nil
	}

	if expectedID != "" && profile != nil && profile.AccountID != "" && profile.AccountID != expectedID {
		// El blob autentica otra cuenta; para este account es inválido
		return &Result{Valid: false, Profile: profile}, nil
	}

	return &Result{Valid: true, Profile: profile}, nil
}
