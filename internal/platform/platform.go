// Package platform holds one driver per supported content platform. A driver
// translates the generic upload steps into conditions and actions for the
// automation engine; the orchestration core only sees this interface, never a
// platform switch.
package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
)

// Limits are the per-platform metadata caps enforced before any browser
// resource is allocated
type Limits struct {
	TitleMax  int
	TagMax    int // max runes per tag
	MaxTags   int
	MediaExts []string
	CoverExts []string
}

// UploadPhase is the observable state of a media upload in progress
type UploadPhase int

const (
	// PhaseProcessing is the default outcome: still uploading/transcoding
	PhaseProcessing UploadPhase = iota
	// PhaseFailed means an explicit failure banner is present
	PhaseFailed
	// PhaseDone means the completion marker is present
	PhaseDone
)

// Driver is the per-platform capability consumed by the upload state machine
type Driver interface {
	Name() string
	Limits() Limits

	ProbeURL() string
	LoginURL() string
	UploadURL() string

	// Probe decides whether the page shows an authenticated session and, when
	// possible, scrapes the profile. An undecidable page within timeout
	// returns domain.ErrTimeout; callers must treat that as invalid.
	Probe(ctx context.Context, page automation.Page, timeout time.Duration) (*domain.ProfileInfo, bool, error)

	// WaitLogin blocks until the interactive login completes or timeout elapses
	WaitLogin(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error)

	AttachMedia(ctx context.Context, page automation.Page, paths []string) error
	FillMetadata(ctx context.Context, page automation.Page, job *domain.UploadJob) error
	SetCover(ctx context.Context, page automation.Page, coverPath string) error
	SetSchedule(ctx context.Context, page automation.Page, at time.Time) error

	// ConfirmUpload samples the upload progress once
	ConfirmUpload(ctx context.Context, page automation.Page) (UploadPhase, error)

	Publish(ctx context.Context, page automation.Page) error

	// ConfirmPublished waits for navigation to the post-management view
	ConfirmPublished(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error)
}

// Registry resuelve drivers por nombre de plataforma
type Registry struct {
	drivers map[string]Driver
}

// NewRegistry crea un registry con todas las plataformas soportadas
func NewRegistry() *Registry {
	r := &Registry{drivers: make(map[string]Driver)}
	r.Register(NewDouyin())
	r.Register(NewTencent())
	r.Register(NewKuaishou())
	r.Register(NewTikTok())
	return r
}

// Register añade un driver al registry
func (r *Registry) Register(d Driver) {
	r.drivers[d.Name()] = d
}

// Get obtiene el driver de una plataforma
func (r *Registry) Get(platform string) (Driver, error) {
	d, ok := r.drivers[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
	return d, nil
}

// Names lista las plataformas registradas
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	return names
}

// parseCount parses profile counters like "1,234" or "1234"
func parseCount(text string) int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
