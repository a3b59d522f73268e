package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// gaugePublisher cuenta los jobs en vuelo y programa fallos por job
type gaugePublisher struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    map[string]int
	failures map[string]int // fallos restantes por job
	delay    time.Duration
}

func newGaugePublisher() *gaugePublisher {
	return &gaugePublisher{
		calls:    make(map[string]int),
		failures: make(map[string]int),
		delay:    5 * time.Millisecond,
	}
}

func (p *gaugePublisher) Upload(ctx context.Context, job *domain.UploadJob) (*domain.UploadReceipt, error) {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	p.calls[job.ID]++
	fail := p.failures[job.ID] > 0
	if fail {
		p.failures[job.ID]--
	}
	p.mu.Unlock()

	time.Sleep(p.delay)

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()

	if fail {
		return nil, errors.New("scripted failure")
	}
	return &domain.UploadReceipt{JobID: job.ID, PublishedAt: time.Now()}, nil
}

func makeJobs(n int) []*domain.UploadJob {
	jobs := make([]*domain.UploadJob, n)
	for i := range jobs {
		jobs[i] = &domain.UploadJob{ID: fmt.Sprintf("job-%d", i)}
	}
	return jobs
}

func TestRunConcurrencyCeiling(t *testing.T) {
	pub := newGaugePublisher()
	orch := NewOrchestrator(pub)

	result := orch.Run(context.Background(), makeJobs(10), 3)

	if result.Succeeded != 10 {
		t.Errorf("Succeeded = %d, esperados 10", result.Succeeded)
	}
	if pub.peak > 3 {
		t.Errorf("pico de concurrencia = %d, techo 3", pub.peak)
	}
	if pub.peak < 2 {
		t.Errorf("pico de concurrencia = %d, el gate no debería serializar todo", pub.peak)
	}
}

func TestRunRetryPass(t *testing.T) {
	pub := newGaugePublisher()
	// job-1 falla una vez y se recupera en la segunda pasada
	pub.failures["job-1"] = 1
	orch := NewOrchestrator(pub)

	result := orch.Run(context.Background(), makeJobs(4), 2)

	if result.Total != 4 {
		t.Errorf("Total = %d, esperados 4", result.Total)
	}
	if result.Succeeded != 4 || result.Failed != 0 {
		t.Errorf("Succeeded/Failed = %d/%d, esperados 4/0", result.Succeeded, result.Failed)
	}

	for _, rec := range result.Jobs {
		want := 1
		if rec.JobID == "job-1" {
			want = 2
		}
		if rec.Attempts != want {
			t.Errorf("job %s attempts = %d, esperados %d", rec.JobID, rec.Attempts, want)
		}
	}
}

func TestRunIsolatesPermanentFailure(t *testing.T) {
	pub := newGaugePublisher()
	// job-2 falla en ambas pasadas
	pub.failures["job-2"] = 2
	orch := NewOrchestrator(pub)

	result := orch.Run(context.Background(), makeJobs(3), 2)

	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("Succeeded/Failed = %d/%d, esperados 2/1", result.Succeeded, result.Failed)
	}

	for _, rec := range result.Jobs {
		if rec.JobID == "job-2" {
			if rec.Success {
				t.Error("job-2 debía fallar")
			}
			if rec.Error == "" {
				t.Error("un job fallido debe llevar su mensaje de error")
			}
			if rec.Attempts != 2 {
				t.Errorf("attempts = %d, esperados 2", rec.Attempts)
			}
		} else if !rec.Success {
			t.Errorf("el fallo de job-2 no debe contagiar a %s", rec.JobID)
		}
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	pub := newGaugePublisher()
	pub.delay = 50 * time.Millisecond
	orch := NewOrchestrator(pub)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := orch.Run(ctx, makeJobs(20), 1)

	// Tras la cancelación no se admiten jobs nuevos
	if result.Succeeded >= 20 {
		t.Error("la cancelación debía cortar la admisión del lote")
	}
}
