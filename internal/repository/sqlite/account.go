package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/repository"
)

// AccountRepository implementa repository.AccountRepository usando SQLite
type AccountRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository crea un nuevo repositorio de cuentas
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// accountRow mapea la tabla SQL a struct Go
type accountRow struct {
	ID            int64         `db:"id"`
	Platform      string        `db:"platform"`
	AccountID     string        `db:"account_id"`
	Nickname      string        `db:"nickname"`
	FollowerCount int64         `db:"follower_count"`
	VideoCount    int64         `db:"video_count"`
	ExtraJSON     string        `db:"extra"`
	Status        string        `db:"status"`
	LastUpdate    sql.NullInt64 `db:"last_update"`
	CreatedAt     int64         `db:"created_at"`
}

// Upsert inserta o actualiza una cuenta por (platform, account_id)
func (r *AccountRepository) Upsert(ctx context.Context, acc *domain.Account) (int64, error) {
	extraJSON, err := json.Marshal(acc.Extra)
	if err != nil {
		return 0, fmt.Errorf("marshal extra: %w", err)
	}
	if acc.Extra == nil {
		extraJSON = []byte("{}")
	}

	status := acc.Status
	if status == "" {
		status = domain.AccountActive
	}

	query := `
		INSERT INTO accounts (platform, account_id, nickname, follower_count, video_count, extra, status, last_update)
		VALUES (:platform, :account_id, :nickname, :follower_count, :video_count, :extra, :status, :last_update)
		ON CONFLICT(platform, account_id) DO UPDATE SET
			nickname = excluded.nickname,
			follower_count = excluded.follower_count,
			video_count = excluded.video_count,
			extra = excluded.extra,
			last_update = excluded.last_update
	`

	_, err = r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"platform":       acc.Platform,
		"account_id":     acc.AccountID,
		"nickname":       acc.Nickname,
		"follower_count": acc.FollowerCount,
		"video_count":    acc.VideoCount,
		"extra":          string(extraJSON),
		"status":         string(status),
		"last_update":    time.Now().Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("upsert account: %w", err)
	}

	// LastInsertId no es fiable con ON CONFLICT; leer el id real
	var id int64
	query = `SELECT id FROM accounts WHERE platform = ? AND account_id = ?`
	if err := r.db.GetContext(ctx, &id, query, acc.Platform, acc.AccountID); err != nil {
		return 0, fmt.Errorf("get upserted account id: %w", err)
	}

	return id, nil
}

// GetByPlatformID obtiene una cuenta por (platform, account_id)
func (r *AccountRepository) GetByPlatformID(ctx context.Context, platform, accountID string) (*domain.Account, error) {
	var row accountRow

	query := `SELECT * FROM accounts WHERE platform = ? AND account_id = ?`
	if err := r.db.GetContext(ctx, &row, query, platform, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrAccountNotFound, platform, accountID)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	return accountRowToDomain(&row)
}

// GetAll obtiene todas las cuentas, opcionalmente filtradas por plataforma
func (r *AccountRepository) GetAll(ctx context.Context, platform string) ([]*domain.Account, error) {
	var rows []accountRow
	var err error

	if platform == "" {
		query := `SELECT * FROM accounts ORDER BY platform, last_update DESC`
		err = r.db.SelectContext(ctx, &rows, query)
	} else {
		query := `SELECT * FROM accounts WHERE platform = ? ORDER BY last_update DESC`
		err = r.db.SelectContext(ctx, &rows, query, platform)
	}
	if err != nil {
		return nil, fmt.Errorf("get all accounts: %w", err)
	}

	return accountRowsToDomain(rows)
}

// ListPlatforms lista todas las plataformas con cuentas
func (r *AccountRepository) ListPlatforms(ctx context.Context) ([]string, error) {
	var platforms []string

	query := `SELECT DISTINCT platform FROM accounts ORDER BY platform`
	if err := r.db.SelectContext(ctx, &platforms, query); err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}

	return platforms, nil
}

// SetStatus actualiza el estado de una cuenta (active/disabled)
func (r *AccountRepository) SetStatus(ctx context.Context, platform, accountID string, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = ? WHERE platform = ? AND account_id = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), platform, accountID)
	if err != nil {
		return fmt.Errorf("set account status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrAccountNotFound, platform, accountID)
	}

	return nil
}

// Delete elimina una cuenta explícitamente (nunca se borra de forma implícita)
func (r *AccountRepository) Delete(ctx context.Context, platform, accountID string) error {
	query := `DELETE FROM accounts WHERE platform = ? AND account_id = ?`
	_, err := r.db.ExecContext(ctx, query, platform, accountID)
	return err
}

// Helper: conversión row → domain
func accountRowToDomain(row *accountRow) (*domain.Account, error) {
	var extra map[string]string
	if row.ExtraJSON != "" {
		if err := json.Unmarshal([]byte(row.ExtraJSON), &extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra: %w", err)
		}
	}

	acc := &domain.Account{
		ID:            row.ID,
		Platform:      row.Platform,
		AccountID:     row.AccountID,
		Nickname:      row.Nickname,
		FollowerCount: row.FollowerCount,
		VideoCount:    row.VideoCount,
		Extra:         extra,
		Status:        domain.AccountStatus(row.Status),
		CreatedAt:     time.Unix(row.CreatedAt, 0),
	}

	if row.LastUpdate.Valid {
		acc.LastUpdate = time.Unix(row.LastUpdate.Int64, 0)
	}

	return acc, nil
}

// Helper: conversión múltiples rows → domain
func accountRowsToDomain(rows []accountRow) ([]*domain.Account, error) {
	accounts := make([]*domain.Account, 0, len(rows))

	for _, row := range rows {
		acc, err := accountRowToDomain(&row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	return accounts, nil
}
