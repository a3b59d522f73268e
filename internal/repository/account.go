package repository

import (
	"context"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// AccountRepository define las operaciones sobre cuentas
type AccountRepository interface {
	// Upsert crea la cuenta en el primer probe exitoso y la actualiza después.
	// La clave es (platform, account_id); nunca se borra implícitamente.
	Upsert(ctx context.Context, acc *domain.Account) (int64, error)
	GetByPlatformID(ctx context.Context, platform, accountID string) (*domain.Account, error)
	GetAll(ctx context.Context, platform string) ([]*domain.Account, error)
	ListPlatforms(ctx context.Context) ([]string, error)

	// Gestión de estado
	SetStatus(ctx context.Context, platform, accountID string, status domain.AccountStatus) error
	Delete(ctx context.Context, platform, accountID string) error
}
