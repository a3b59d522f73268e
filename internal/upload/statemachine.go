// Package upload ejecuta el ciclo completo de publicación de un video:
// validación, sesión, adjuntar media, metadata, portada, programación,
// espera de subida, publicación y persistencia de la sesión resultante.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/platform"
	"github.com/elsanchez/smart-publish/internal/session"
)

// Pasos del ciclo de publicación, usados en StepError
const (
	StepValidate       = "validate"
	StepSession        = "session"
	StepAttachMedia    = "attach_media"
	StepFillMetadata   = "fill_metadata"
	StepSetCover       = "set_cover"
	StepSetSchedule    = "set_schedule"
	StepUploadWait     = "upload_wait"
	StepPublish        = "publish"
	StepPersistSession = "persist_session"
)

// Config ajusta los tiempos del ciclo de publicación
type Config struct {
	Retry RetryPolicy
	// UploadPollInterval es la cadencia de muestreo del progreso de subida
	UploadPollInterval time.Duration
	// UploadCeiling es el techo de reloj de pared para la subida del media
	UploadCeiling time.Duration
	// PublishTimeout limita la espera de la navegación post-publicación
	PublishTimeout time.Duration
	// PublishRetries son los reintentos del click de publicar ante una
	// confirmación que no llega
	PublishRetries int
}

// DefaultUploadConfig retorna la configuración por defecto
func DefaultUploadConfig() Config {
	return Config{
		Retry:              DefaultRetryPolicy(),
		UploadPollInterval: 2 * time.Second,
		UploadCeiling:      10 * time.Minute,
		PublishTimeout:     90 * time.Second,
		PublishRetries:     2,
	}
}

// Uploader ejecuta jobs de publicación contra el engine de automatización
type Uploader struct {
	engine    automation.Driver
	platforms *platform.Registry
	sessions  *session.Manager
	cfg       Config
}

// NewUploader crea el uploader
func NewUploader(engine automation.Driver, platforms *platform.Registry, sessions *session.Manager, cfg Config) *Uploader {
	if cfg.UploadPollInterval <= 0 {
		cfg.UploadPollInterval = 2 * time.Second
	}
	if cfg.UploadCeiling <= 0 {
		cfg.UploadCeiling = 10 * time.Minute
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 90 * time.Second
	}
	return &Uploader{engine: engine, platforms: platforms, sessions: sessions, cfg: cfg}
}

// Upload lleva un job desde la validación hasta la confirmación de
// publicación. La validación corre antes de abrir cualquier navegador; la
// sesión capturada se persiste tanto en éxito como en fallo.
func (u *Uploader) Upload(ctx context.Context, job *domain.UploadJob) (*domain.UploadReceipt, error) {
	driver, err := u.validate(job)
	if err != nil {
		return nil, &domain.StepError{Step: StepValidate, Err: err}
	}

	blob, err := u.sessions.EnsureSession(ctx, job.Account, true)
	if err != nil {
		return nil, &domain.StepError{Step: StepSession, Err: err}
	}

	sess, err := u.engine.NewSession(ctx, blob)
	if err != nil {
		return nil, &domain.StepError{Step: StepSession, Err: err}
	}
	defer sess.Close(ctx)
	defer u.persistSession(sess, job.Account)

	page, err := sess.Open(ctx, driver.UploadURL())
	if err != nil {
		return nil, &domain.StepError{Step: StepSession, Err: err}
	}
	defer page.Close(ctx)

	if err := u.cfg.Retry.Do(ctx, func() error {
		return driver.AttachMedia(ctx, page, job.MediaPaths)
	}); err != nil {
		return nil, &domain.StepError{Step: StepAttachMedia, Err: err}
	}

	if err := u.cfg.Retry.Do(ctx, func() error {
		return driver.FillMetadata(ctx, page, job)
	}); err != nil {
		return nil, &domain.StepError{Step: StepFillMetadata, Err: err}
	}

	if job.CoverPath != "" {
		if err := u.cfg.Retry.Do(ctx, func() error {
			return driver.SetCover(ctx, page, job.CoverPath)
		}); err != nil {
			return nil, &domain.StepError{Step: StepSetCover, Err: err}
		}
	}

	if job.Scheduled() {
		if err := u.cfg.Retry.Do(ctx, func() error {
			return driver.SetSchedule(ctx, page, job.PublishAt)
		}); err != nil {
			return nil, &domain.StepError{Step: StepSetSchedule, Err: err}
		}
	}

	if err := u.waitUpload(ctx, driver, page, job); err != nil {
		return nil, &domain.StepError{Step: StepUploadWait, Err: err}
	}

	if err := u.publish(ctx, driver, page); err != nil {
		return nil, &domain.StepError{Step: StepPublish, Err: err}
	}

	log.Printf("✓ published %s on %s", job.ID, job.Account.Key())
	return &domain.UploadReceipt{
		JobID:       job.ID,
		Platform:    job.Account.Platform,
		AccountID:   job.Account.AccountID,
		PublishedAt: time.Now(),
	}, nil
}

// validate aplica los límites de la plataforma antes de asignar cualquier
// recurso de navegador
func (u *Uploader) validate(job *domain.UploadJob) (platform.Driver, error) {
	if job.Account == nil {
		return nil, fmt.Errorf("%w: job has no account", domain.ErrValidation)
	}

	driver, err := u.platforms.Get(job.Account.Platform)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	limits := driver.Limits()

	if strings.TrimSpace(job.Title) == "" {
		return nil, fmt.Errorf("%w: empty title", domain.ErrValidation)
	}
	if n := utf8.RuneCountInString(job.Title); n > limits.TitleMax {
		return nil, fmt.Errorf("%w: title is %d chars, max %d", domain.ErrValidation, n, limits.TitleMax)
	}

	if len(job.Tags) > limits.MaxTags {
		return nil, fmt.Errorf("%w: %d tags, max %d", domain.ErrValidation, len(job.Tags), limits.MaxTags)
	}
	for _, tag := range job.Tags {
		if tag == "" {
			return nil, fmt.Errorf("%w: empty tag", domain.ErrValidation)
		}
		if n := utf8.RuneCountInString(tag); n > limits.TagMax {
			return nil, fmt.Errorf("%w: tag %q is %d chars, max %d", domain.ErrValidation, tag, n, limits.TagMax)
		}
	}

	if len(job.MediaPaths) == 0 {
		return nil, fmt.Errorf("%w: no media", domain.ErrValidation)
	}
	for _, path := range job.MediaPaths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: media not readable: %s", domain.ErrValidation, path)
		}
		if !extAllowed(path, limits.MediaExts) {
			return nil, fmt.Errorf("%w: unsupported media type: %s", domain.ErrValidation, path)
		}
	}

	if job.CoverPath != "" {
		if _, err := os.Stat(job.CoverPath); err != nil {
			return nil, fmt.Errorf("%w: cover not readable: %s", domain.ErrValidation, job.CoverPath)
		}
		if !extAllowed(job.CoverPath, limits.CoverExts) {
			return nil, fmt.Errorf("%w: unsupported cover type: %s", domain.ErrValidation, job.CoverPath)
		}
	}

	if job.Scheduled() && job.PublishAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: publish time %s is in the past", domain.ErrValidation, job.PublishAt)
	}

	return driver, nil
}

// waitUpload muestrea el progreso bajo techo de reloj de pared. Un banner de
// fallo dispara un único re-adjunte de recuperación; un segundo fallo
// termina el paso.
func (u *Uploader) waitUpload(ctx context.Context, driver platform.Driver, page automation.Page, job *domain.UploadJob) error {
	recovered := false

	return Poll(ctx, u.cfg.UploadPollInterval, u.cfg.UploadCeiling, func() (bool, error) {
		phase, err := driver.ConfirmUpload(ctx, page)
		if err != nil {
			return false, err
		}

		switch phase {
		case platform.PhaseDone:
			return true, nil
		case platform.PhaseFailed:
			if recovered {
				return false, errors.New("media upload failed twice")
			}
			recovered = true
			log.Printf("⚠ upload failed for %s, re-attaching media", job.ID)
			if err := driver.AttachMedia(ctx, page, job.MediaPaths); err != nil {
				return false, fmt.Errorf("re-attach media: %w", err)
			}
			return false, nil
		default:
			return false, nil
		}
	})
}

// publish hace click en publicar y espera la navegación de confirmación.
// Sin confirmación tras agotar los reintentos el desenlace queda incierto:
// puede haberse publicado igualmente.
func (u *Uploader) publish(ctx context.Context, driver platform.Driver, page automation.Page) error {
	for attempt := 0; attempt <= u.cfg.PublishRetries; attempt++ {
		if err := driver.Publish(ctx, page); err != nil {
			return err
		}

		confirmed, err := driver.ConfirmPublished(ctx, page, u.cfg.PublishTimeout)
		if err != nil {
			return err
		}
		if confirmed {
			return nil
		}
	}

	return fmt.Errorf("no confirmation after %d attempts: %w", u.cfg.PublishRetries+1, domain.ErrPublishUncertain)
}

// persistSession captura el estado del navegador y lo escribe de vuelta.
// Corre también en el camino de fallo; un error aquí sólo se registra.
func (u *Uploader) persistSession(sess automation.Session, acc *domain.Account) {
	// Contexto propio: debe correr aunque el del job esté cancelado
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	blob, err := sess.CaptureState(ctx)
	if err != nil {
		log.Printf("⚠ capture session for %s failed: %v", acc.Key(), err)
		return
	}

	if err := u.sessions.PersistSession(ctx, acc, blob); err != nil {
		log.Printf("⚠ persist session for %s failed: %v", acc.Key(), err)
	}
}

func extAllowed(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range exts {
		if ext == allowed {
			return true
		}
	}
	return false
}
