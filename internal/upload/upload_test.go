package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/platform"
	"github.com/elsanchez/smart-publish/internal/session"
)

// scriptedPlatform implementa platform.Driver con resultados programables y
// contadores de llamadas
type scriptedPlatform struct {
	mu sync.Mutex

	limits platform.Limits

	probeValid bool
	profile    *domain.ProfileInfo
	loginDone  bool

	attachCalls   int
	fillCalls     int
	coverCalls    int
	scheduleCalls int
	publishCalls  int

	attachErr error

	confirmSeq       []platform.UploadPhase // consumida; vacía = PhaseDone
	publishConfirmed bool
}

func newScriptedPlatform() *scriptedPlatform {
	return &scriptedPlatform{
		limits: platform.Limits{
			TitleMax:  2200,
			TagMax:    30,
			MaxTags:   20,
			MediaExts: []string{".mp4"},
			CoverExts: []string{".png"},
		},
		probeValid:       true,
		profile:          &domain.ProfileInfo{AccountID: "acc_1"},
		loginDone:        true,
		publishConfirmed: true,
	}
}

func (s *scriptedPlatform) Name() string            { return "scripted" }
func (s *scriptedPlatform) Limits() platform.Limits { return s.limits }
func (s *scriptedPlatform) ProbeURL() string        { return "https://example.test/probe" }
func (s *scriptedPlatform) LoginURL() string        { return "https://example.test/login" }
func (s *scriptedPlatform) UploadURL() string       { return "https://example.test/upload" }

func (s *scriptedPlatform) Probe(ctx context.Context, page automation.Page, timeout time.Duration) (*domain.ProfileInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.probeValid, nil
}

func (s *scriptedPlatform) WaitLogin(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginDone, nil
}

func (s *scriptedPlatform) AttachMedia(ctx context.Context, page automation.Page, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachCalls++
	return s.attachErr
}

func (s *scriptedPlatform) FillMetadata(ctx context.Context, page automation.Page, job *domain.UploadJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fillCalls++
	return nil
}

func (s *scriptedPlatform) SetCover(ctx context.Context, page automation.Page, coverPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coverCalls++
	return nil
}

func (s *scriptedPlatform) SetSchedule(ctx context.Context, page automation.Page, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleCalls++
	return nil
}

func (s *scriptedPlatform) ConfirmUpload(ctx context.Context, page automation.Page) (platform.UploadPhase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.confirmSeq) > 0 {
		phase := s.confirmSeq[0]
		s.confirmSeq = s.confirmSeq[1:]
		return phase, nil
	}
	return platform.PhaseDone, nil
}

func (s *scriptedPlatform) Publish(ctx context.Context, page automation.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishCalls++
	return nil
}

func (s *scriptedPlatform) ConfirmPublished(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishConfirmed, nil
}

var _ platform.Driver = (*scriptedPlatform)(nil)

// fakeAccounts y fakeCookies son repos mínimos en memoria
type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func (f *fakeAccounts) Upsert(ctx context.Context, acc *domain.Account) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accounts == nil {
		f.accounts = make(map[string]*domain.Account)
	}
	f.accounts[acc.Key()] = acc
	return 1, nil
}

func (f *fakeAccounts) GetByPlatformID(ctx context.Context, p, id string) (*domain.Account, error) {
	return nil, domain.ErrAccountNotFound
}
func (f *fakeAccounts) GetAll(ctx context.Context, p string) ([]*domain.Account, error) {
	return nil, nil
}
func (f *fakeAccounts) ListPlatforms(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeAccounts) SetStatus(ctx context.Context, p, id string, st domain.AccountStatus) error {
	return nil
}
func (f *fakeAccounts) Delete(ctx context.Context, p, id string) error { return nil }

type fakeCookies struct {
	mu      sync.Mutex
	nextID  int64
	records []*domain.CookieRecord
}

func (f *fakeCookies) Upsert(ctx context.Context, rec *domain.CookieRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.records {
		if existing.Platform == rec.Platform && existing.AccountID == rec.AccountID && existing.Path == rec.Path {
			existing.IsValid = rec.IsValid
			return existing.ID, nil
		}
	}
	f.nextID++
	rec.ID = f.nextID
	f.records = append(f.records, rec)
	return rec.ID, nil
}

func (f *fakeCookies) ListByAccount(ctx context.Context, p, id string) ([]*domain.CookieRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.CookieRecord
	for _, rec := range f.records {
		if rec.Platform == p && rec.AccountID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeCookies) MarkValidity(ctx context.Context, id int64, valid bool) error { return nil }
func (f *fakeCookies) Delete(ctx context.Context, id int64) error                   { return nil }

func (f *fakeCookies) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// testUploader arma un uploader completo sobre el engine en memoria
func testUploader(t *testing.T, driver *scriptedPlatform) (*Uploader, *automation.MemoryDriver, *fakeCookies) {
	t.Helper()

	engine := automation.NewMemoryDriver()
	registry := platform.NewRegistry()
	registry.Register(driver)

	cookies := &fakeCookies{}
	sessCfg := session.DefaultConfig(t.TempDir())
	sessCfg.ProbeTimeout = time.Second
	sessions := session.NewManager(engine, registry, session.NewMemoryCache(), &fakeAccounts{}, cookies, sessCfg)

	cfg := Config{
		Retry:              RetryPolicy{}, // un solo intento, sin demoras
		UploadPollInterval: time.Millisecond,
		UploadCeiling:      time.Second,
		PublishTimeout:     10 * time.Millisecond,
		PublishRetries:     2,
	}

	return NewUploader(engine, registry, sessions, cfg), engine, cookies
}

func testJob(t *testing.T) *domain.UploadJob {
	t.Helper()

	media := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(media, []byte("fake video"), 0644); err != nil {
		t.Fatalf("no se pudo crear el media de prueba: %v", err)
	}

	return &domain.UploadJob{
		ID:         "job-1",
		Title:      "Mi primer video",
		Tags:       []string{"test", "demo"},
		MediaPaths: []string{media},
		Account: &domain.Account{
			Platform:  "scripted",
			AccountID: "acc_1",
			Status:    domain.AccountActive,
		},
	}
}

func TestUploadValidationShortCircuit(t *testing.T) {
	driver := newScriptedPlatform()
	uploader, engine, _ := testUploader(t, driver)

	job := testJob(t)
	for i := 0; i < 25; i++ {
		job.Tags = append(job.Tags, fmt.Sprintf("tag%d", i))
	}

	_, err := uploader.Upload(context.Background(), job)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("se esperaba ErrValidation, obtenido %v", err)
	}

	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepValidate {
		t.Errorf("el error debe señalar el paso validate: %v", err)
	}

	// Un job inválido nunca toca el navegador
	if engine.SessionsOpened != 0 {
		t.Errorf("sesiones abiertas = %d, esperadas 0", engine.SessionsOpened)
	}
}

func TestUploadHappyPath(t *testing.T) {
	driver := newScriptedPlatform()
	uploader, _, cookies := testUploader(t, driver)

	job := testJob(t)

	receipt, err := uploader.Upload(context.Background(), job)
	if err != nil {
		t.Fatalf("Upload falló: %v", err)
	}

	if receipt.JobID != "job-1" {
		t.Errorf("JobID = %s, esperado job-1", receipt.JobID)
	}
	if receipt.Platform != "scripted" || receipt.AccountID != "acc_1" {
		t.Errorf("receipt con identidad incorrecta: %+v", receipt)
	}
	if receipt.PublishedAt.IsZero() {
		t.Error("PublishedAt no debe ser cero")
	}

	if driver.attachCalls != 1 {
		t.Errorf("attach calls = %d, esperada 1", driver.attachCalls)
	}
	if driver.scheduleCalls != 0 {
		t.Errorf("un job inmediato no debe programar: %d", driver.scheduleCalls)
	}

	// La sesión rotada queda persistida
	if cookies.count() == 0 {
		t.Error("la sesión debía persistirse tras la subida")
	}
}

func TestUploadScheduledJob(t *testing.T) {
	driver := newScriptedPlatform()
	uploader, _, _ := testUploader(t, driver)

	job := testJob(t)
	job.PublishAt = time.Now().Add(24 * time.Hour)

	if _, err := uploader.Upload(context.Background(), job); err != nil {
		t.Fatalf("Upload falló: %v", err)
	}

	if driver.scheduleCalls != 1 {
		t.Errorf("schedule calls = %d, esperada 1", driver.scheduleCalls)
	}
}

func TestUploadPastScheduleRejected(t *testing.T) {
	driver := newScriptedPlatform()
	uploader, _, _ := testUploader(t, driver)

	job := testJob(t)
	job.PublishAt = time.Now().Add(-time.Hour)

	_, err := uploader.Upload(context.Background(), job)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("se esperaba ErrValidation, obtenido %v", err)
	}
}

func TestUploadFailureBannerRecovery(t *testing.T) {
	driver := newScriptedPlatform()
	driver.confirmSeq = []platform.UploadPhase{
		platform.PhaseProcessing,
		platform.PhaseFailed,
		platform.PhaseDone,
	}
	uploader, _, _ := testUploader(t, driver)

	if _, err := uploader.Upload(context.Background(), testJob(t)); err != nil {
		t.Fatalf("Upload falló: %v", err)
	}

	// Un adjunte inicial más el re-adjunte de recuperación
	if driver.attachCalls != 2 {
		t.Errorf("attach calls = %d, esperadas 2", driver.attachCalls)
	}
}

func TestUploadSecondFailureIsFatal(t *testing.T) {
	driver := newScriptedPlatform()
	driver.confirmSeq = []platform.UploadPhase{
		platform.PhaseFailed,
		platform.PhaseFailed,
	}
	uploader, _, _ := testUploader(t, driver)

	_, err := uploader.Upload(context.Background(), testJob(t))
	if err == nil {
		t.Fatal("un segundo fallo de subida debe terminar el job")
	}

	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepUploadWait {
		t.Errorf("el error debe señalar el paso upload_wait: %v", err)
	}

	// La recuperación corre exactamente una vez
	if driver.attachCalls != 2 {
		t.Errorf("attach calls = %d, esperadas 2", driver.attachCalls)
	}
}

func TestUploadPublishUncertain(t *testing.T) {
	driver := newScriptedPlatform()
	driver.publishConfirmed = false
	uploader, _, cookies := testUploader(t, driver)

	_, err := uploader.Upload(context.Background(), testJob(t))
	if !errors.Is(err, domain.ErrPublishUncertain) {
		t.Fatalf("se esperaba ErrPublishUncertain, obtenido %v", err)
	}

	if driver.publishCalls != 3 {
		t.Errorf("publish calls = %d, esperadas 3", driver.publishCalls)
	}

	// Incluso en fallo la sesión capturada se persiste
	if cookies.count() == 0 {
		t.Error("la sesión debía persistirse también en el camino de fallo")
	}
}

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	policy := RetryPolicy{Delays: []time.Duration{time.Millisecond, time.Millisecond}}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transitorio")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do falló: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, esperadas 2", calls)
	}
}

func TestRetryPolicyExhausted(t *testing.T) {
	policy := RetryPolicy{Delays: []time.Duration{time.Millisecond}}

	sentinel := errors.New("permanente")
	err := policy.Do(context.Background(), func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("el error final debe envolver el último fallo: %v", err)
	}
}

func TestPollCeiling(t *testing.T) {
	err := Poll(context.Background(), time.Millisecond, 20*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("se esperaba ErrTimeout, obtenido %v", err)
	}
}
