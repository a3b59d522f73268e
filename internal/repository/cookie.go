package repository

import (
	"context"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// CookieRepository define las operaciones sobre registros de sesión
type CookieRepository interface {
	// Upsert inserta o actualiza por (platform, account_id, path)
	Upsert(ctx context.Context, rec *domain.CookieRecord) (int64, error)

	// ListByAccount retorna los registros ordenados: válidos primero,
	// luego por last_check descendente (el preferido va primero)
	ListByAccount(ctx context.Context, platform, accountID string) ([]*domain.CookieRecord, error)

	MarkValidity(ctx context.Context, id int64, valid bool) error
	Delete(ctx context.Context, id int64) error
}
