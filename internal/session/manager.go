// Package session gestiona el ciclo de vida de las sesiones autenticadas:
// validación con cache, refresco interactivo y persistencia de los blobs de
// estado del navegador.
package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/platform"
	"github.com/elsanchez/smart-publish/internal/repository"
)

// Config ajusta los tiempos del manager
type Config struct {
	// FreshnessWindow es cuánto vale un veredicto de validación cacheado
	FreshnessWindow time.Duration
	// ProbeTimeout limita cada sondeo de página
	ProbeTimeout time.Duration
	// LoginTimeout limita la espera del login interactivo
	LoginTimeout time.Duration
	// DataDir es donde viven los blobs de sesión
	DataDir string
}

// DefaultConfig retorna la configuración por defecto
func DefaultConfig(dataDir string) Config {
	return Config{
		FreshnessWindow:  4 * time.Hour,
		ProbeTimeout:     10 * time.Second,
		LoginTimeout:     200 * time.Second,
		DataDir:          dataDir,
	}
}

// Manager coordina validación, refresco y persistencia de sesiones. Todas
// las operaciones sobre una misma cuenta se serializan; cuentas distintas
// proceden en paralelo.
type Manager struct {
	driver    automation.Driver
	platforms *platform.Registry
	validator *Validator
	cache     Cache
	accounts  repository.AccountRepository
	cookies   repository.CookieRepository
	cfg       Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager crea el manager de sesiones
func NewManager(
	driver automation.Driver,
	platforms *platform.Registry,
	cache Cache,
	accounts repository.AccountRepository,
	cookies repository.CookieRepository,
	cfg Config,
) *Manager {
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 4 * time.Hour
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = 200 * time.Second
	}
	return &Manager{
		driver:    driver,
		platforms: platforms,
		validator: NewValidator(driver, platforms, cfg.ProbeTimeout),
		cache:     cache,
		accounts:  accounts,
		cookies:   cookies,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

// accountLock retorna el mutex de una cuenta, creándolo si no existe
func (m *Manager) accountLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// EnsureSession retorna un blob de sesión válido para la cuenta, validando
// los blobs almacenados. Con allowRefresh, si todos los blobs murieron se
// abre un login interactivo. Con el veredicto cacheado aún fresco no se
// abre ningún navegador.
func (m *Manager) EnsureSession(ctx context.Context, acc *domain.Account, allowRefresh bool) ([]byte, error) {
	lock := m.accountLock(acc.Key())
	lock.Lock()
	defer lock.Unlock()

	records, err := m.cookies.ListByAccount(ctx, acc.Platform, acc.AccountID)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}

	// Veredicto cacheado: reutilizar el blob preferido sin sondear
	if valid, fresh := m.cache.Get(ctx, acc.Key()); fresh && valid {
		for _, rec := range records {
			if !rec.IsValid {
				continue
			}
			blob, err := ReadBlob(rec.Path)
			if err != nil {
				log.Printf("⚠ session blob unreadable: %s: %v", rec.Path, err)
				continue
			}
			return blob, nil
		}
	}

	// Validar cada blob almacenado, el preferido primero
	for _, rec := range records {
		blob, err := ReadBlob(rec.Path)
		if err != nil {
			log.Printf("⚠ session blob unreadable: %s: %v", rec.Path, err)
			continue
		}

		result, err := m.validator.Validate(ctx, blob, acc.Platform, acc.AccountID)
		if err != nil {
			return nil, err
		}

		if markErr := m.cookies.MarkValidity(ctx, rec.ID, result.Valid); markErr != nil {
			log.Printf("⚠ mark validity failed: %v", markErr)
		}

		if result.Valid {
			m.cache.Put(ctx, acc.Key(), true, m.cfg.FreshnessWindow)
			m.refreshProfile(ctx, acc, result.Profile)
			return blob, nil
		}
	}

	m.cache.Put(ctx, acc.Key(), false, m.cfg.FreshnessWindow)

	if !allowRefresh {
		return nil, fmt.Errorf("account %s: %w", acc.Key(), domain.ErrSessionExpired)
	}

	log.Printf("session expired for %s, starting interactive login", acc.Key())
	return m.refreshInteractive(ctx, acc)
}

// Validate sondea la sesión de una cuenta, pasando por el cache. Con force
// se ignora el veredicto cacheado.
func (m *Manager) Validate(ctx context.Context, acc *domain.Account, force bool) (bool, error) {
	lock := m.accountLock(acc.Key())
	lock.Lock()
	defer lock.Unlock()

	if !force {
		if valid, fresh := m.cache.Get(ctx, acc.Key()); fresh {
			return valid, nil
		}
	}

	records, err := m.cookies.ListByAccount(ctx, acc.Platform, acc.AccountID)
	if err != nil {
		return false, fmt.Errorf("list session records: %w", err)
	}

	for _, rec := range records {
		blob, err := ReadBlob(rec.Path)
		if err != nil {
			continue
		}

		result, err := m.validator.Validate(ctx, blob, acc.Platform, acc.AccountID)
		if err != nil {
			return false, err
		}

		if markErr := m.cookies.MarkValidity(ctx, rec.ID, result.Valid); markErr != nil {
			log.Printf("⚠ mark validity failed: %v", markErr)
		}

		if result.Valid {
			m.cache.Put(ctx, acc.Key(), true, m.cfg.FreshnessWindow)
			m.refreshProfile(ctx, acc, result.Profile)
			return true, nil
		}
	}

	m.cache.Put(ctx, acc.Key(), false, m.cfg.FreshnessWindow)
	return false, nil
}

// Login abre un navegador limpio para registrar una cuenta nueva en una
// plataforma: el usuario completa el login, se captura el estado y se
// persisten cuenta y blob.
func (m *Manager) Login(ctx context.Context, platformName string) (*domain.Account, error) {
	driver, err := m.platforms.Get(platformName)
	if err != nil {
		return nil, err
	}

	sess, err := m.driver.NewSession(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("open login session: %w", err)
	}
	defer sess.Close(ctx)

	page, err := sess.Open(ctx, driver.LoginURL())
	if err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}
	defer page.Close(ctx)

	done, err := driver.WaitLogin(ctx, page, m.cfg.LoginTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait login: %w", err)
	}
	if !done {
		return nil, fmt.Errorf("login not completed within %s: %w", m.cfg.LoginTimeout, domain.ErrSessionRefreshFailed)
	}

	profile, valid, err := driver.Probe(ctx, page, m.cfg.ProbeTimeout)
	if err != nil || !valid {
		return nil, fmt.Errorf("probe after login: %w", domain.ErrSessionRefreshFailed)
	}

	blob, err := sess.CaptureState(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture session state: %w", err)
	}

	acc := &domain.Account{
		Platform:      platformName,
		AccountID:     profile.AccountID,
		Nickname:      profile.Nickname,
		FollowerCount: profile.FollowerCount,
		VideoCount:    profile.VideoCount,
		Status:        domain.AccountActive,
	}
	if _, err := m.accounts.Upsert(ctx, acc); err != nil {
		return nil, fmt.Errorf("persist account: %w", err)
	}

	if err := m.PersistSession(ctx, acc, blob); err != nil {
		return nil, err
	}

	log.Printf("✓ logged in %s as %s", platformName, profile.AccountID)
	return acc, nil
}

// PersistSession escribe el blob a disco y registra el artefacto en la base.
// Se llama también tras cada subida para capturar cookies rotadas.
func (m *Manager) PersistSession(ctx context.Context, acc *domain.Account, blob []byte) error {
	dir := filepath.Join(m.cfg.DataDir, "sessions", acc.Platform)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	path := filepath.Join(dir, acc.AccountID+".json")
	finalPath, err := WriteBlob(path, blob)
	if err != nil {
		return err
	}

	rec := &domain.CookieRecord{
		Platform:  acc.Platform,
		AccountID: acc.AccountID,
		Path:      finalPath,
		IsValid:   true,
	}
	if _, err := m.cookies.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("persist session record: %w", err)
	}

	m.cache.Put(ctx, acc.Key(), true, m.cfg.FreshnessWindow)
	return nil
}

// Invalidate descarta el veredicto cacheado de una cuenta
func (m *Manager) Invalidate(ctx context.Context, acc *domain.Account) {
	m.cache.Invalidate(ctx, acc.Key())
}

// refreshInteractive reemplaza los blobs muertos de una cuenta existente
// mediante un login interactivo. Se exige que la identidad resultante
// coincida con la cuenta pedida.
func (m *Manager) refreshInteractive(ctx context.Context, acc *domain.Account) ([]byte, error) {
	driver, err := m.platforms.Get(acc.Platform)
	if err != nil {
		return nil, err
	}

	sess, err := m.driver.NewSession(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("open login session: %w", err)
	}
	defer sess.Close(ctx)

	page, err := sess.Open(ctx, driver.LoginURL())
	if err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}
	defer page.Close(ctx)

	done, err := driver.WaitLogin(ctx, page, m.cfg.LoginTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait login: %w", err)
	}
	if !done {
		return nil, fmt.Errorf("login not completed within %s: %w", m.cfg.LoginTimeout, domain.ErrSessionRefreshFailed)
	}

	profile, valid, err := driver.Probe(ctx, page, m.cfg.ProbeTimeout)
	if err != nil || !valid {
		return nil, fmt.Errorf("probe after login: %w", domain.ErrSessionRefreshFailed)
	}
	if acc.AccountID != "" && profile.AccountID != "" && profile.AccountID != acc.AccountID {
		return nil, fmt.Errorf("logged in as %s, expected %s: %w",
			profile.AccountID, acc.AccountID, domain.ErrSessionRefreshFailed)
	}

	blob, err := sess.CaptureState(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture session state: %w", err)
	}

	m.refreshProfile(ctx, acc, profile)
	if err := m.PersistSession(ctx, acc, blob); err != nil {
		return nil, err
	}

	log.Printf("✓ session refreshed for %s", acc.Key())
	return blob, nil
}

// refreshProfile actualiza los datos de perfil tras un probe exitoso
func (m *Manager) refreshProfile(ctx context.Context, acc *domain.Account, profile *domain.ProfileInfo) {
	if profile == nil {
		return
	}

	if profile.AccountID != "" && acc.AccountID == "" {
		acc.AccountID = profile.AccountID
	}
	if profile.Nickname != "" {
		acc.Nickname = profile.Nickname
	}
	if profile.FollowerCount > 0 {
		acc.FollowerCount = profile.FollowerCount
	}
	if profile.VideoCount > 0 {
		acc.VideoCount = profile.VideoCount
	}
	acc.Status = domain.AccountActive

	if _, err := m.accounts.Upsert(ctx, acc); err != nil {
		log.Printf("⚠ profile refresh failed for %s: %v", acc.Key(), err)
	}
}
