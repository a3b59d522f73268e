package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/repository"
)

// CookieRepository implementa repository.CookieRepository usando SQLite
type CookieRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.CookieRepository = (*CookieRepository)(nil)

// NewCookieRepository crea un nuevo repositorio de cookies
func NewCookieRepository(db *sqlx.DB) *CookieRepository {
	return &CookieRepository{db: db}
}

// cookieRow mapea la tabla SQL a struct Go
type cookieRow struct {
	ID        int64         `db:"id"`
	Platform  string        `db:"platform"`
	AccountID string        `db:"account_id"`
	Path      string        `db:"cookie_path"`
	IsValid   int           `db:"is_valid"`
	CreatedAt int64         `db:"created_at"`
	LastCheck sql.NullInt64 `db:"last_check"`
}

// Upsert inserta o actualiza un registro por (platform, account_id, cookie_path)
func (r *CookieRepository) Upsert(ctx context.Context, rec *domain.CookieRecord) (int64, error) {
	isValid := 0
	if rec.IsValid {
		isValid = 1
	}

	lastCheck := rec.LastCheck
	if lastCheck.IsZero() {
		lastCheck = time.Now()
	}

	query := `
		INSERT INTO account_cookies (platform, account_id, cookie_path, is_valid, last_check)
		VALUES (:platform, :account_id, :cookie_path, :is_valid, :last_check)
		ON CONFLICT(platform, account_id, cookie_path) DO UPDATE SET
			is_valid = excluded.is_valid,
			last_check = excluded.last_check
	`

	_, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"platform":    rec.Platform,
		"account_id":  rec.AccountID,
		"cookie_path": rec.Path,
		"is_valid":    isValid,
		"last_check":  lastCheck.Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("upsert cookie: %w", err)
	}

	var id int64
	query = `SELECT id FROM account_cookies WHERE platform = ? AND account_id = ? AND cookie_path = ?`
	if err := r.db.GetContext(ctx, &id, query, rec.Platform, rec.AccountID, rec.Path); err != nil {
		return 0, fmt.Errorf("get upserted cookie id: %w", err)
	}

	return id, nil
}

// ListByAccount retorna los registros de una cuenta, válidos primero y
// dentro de cada grupo por last_check descendente
func (r *CookieRepository) ListByAccount(ctx context.Context, platform, accountID string) ([]*domain.CookieRecord, error) {
	var rows []cookieRow

	query := `
		SELECT * FROM account_cookies
		WHERE platform = ? AND account_id = ?
		ORDER BY is_valid DESC, last_check DESC
	`

	if err := r.db.SelectContext(ctx, &rows, query, platform, accountID); err != nil {
		return nil, fmt.Errorf("list cookies: %w", err)
	}

	records := make([]*domain.CookieRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, cookieRowToDomain(&row))
	}

	return records, nil
}

// MarkValidity actualiza is_valid y last_check de un registro
func (r *CookieRepository) MarkValidity(ctx context.Context, id int64, valid bool) error {
	isValid := 0
	if valid {
		isValid = 1
	}

	query := `UPDATE account_cookies SET is_valid = ?, last_check = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, isValid, time.Now().Unix(), id)
	return err
}

// Delete elimina un registro de cookie
func (r *CookieRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM account_cookies WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// Helper: conversión row → domain
func cookieRowToDomain(row *cookieRow) *domain.CookieRecord {
	rec := &domain.CookieRecord{
		ID:        row.ID,
		Platform:  row.Platform,
		AccountID: row.AccountID,
		Path:      row.Path,
		IsValid:   row.IsValid == 1,
		CreatedAt: time.Unix(row.CreatedAt, 0),
	}

	if row.LastCheck.Valid {
		rec.LastCheck = time.Unix(row.LastCheck.Int64, 0)
	}

	return rec
}
