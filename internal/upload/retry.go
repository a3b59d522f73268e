package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// RetryPolicy reintenta una operación con demoras fijas escalonadas. El
// número de intentos es len(Delays)+1.
type RetryPolicy struct {
	Delays []time.Duration
}

// DefaultRetryPolicy retorna la política por defecto: 3 intentos extra con
// demoras de 2s, 5s y 10s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delays: []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second}}
}

// Do ejecuta fn hasta que tenga éxito o se agoten los intentos. Respeta la
// cancelación del contexto entre intentos.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= len(p.Delays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delays[attempt-1]):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("after %d attempts: %w", len(p.Delays)+1, lastErr)
}

// Poll llama a fn cada interval hasta que devuelva done, falle, o se agote
// el techo de reloj de pared. Agotar el techo devuelve ErrTimeout.
func Poll(ctx context.Context, interval, ceiling time.Duration, fn func() (bool, error)) error {
	deadline := time.Now().Add(ceiling)

	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("poll ceiling %s exceeded: %w", ceiling, domain.ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
