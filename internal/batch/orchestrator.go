// Package batch reparte lotes de jobs de publicación entre un número
// acotado de máquinas de estado concurrentes.
package batch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// Publisher ejecuta un job de publicación de principio a fin
type Publisher interface {
	Upload(ctx context.Context, job *domain.UploadJob) (*domain.UploadReceipt, error)
}

// Orchestrator ejecuta lotes con concurrencia acotada y una segunda pasada
// sobre los fallos
type Orchestrator struct {
	publisher Publisher
}

// NewOrchestrator crea el orquestador sobre el publisher dado
func NewOrchestrator(publisher Publisher) *Orchestrator {
	return &Orchestrator{publisher: publisher}
}

// Run procesa los jobs con a lo sumo maxConcurrency en vuelo. La admisión
// es FIFO, la terminación no tiene orden garantizado y el fallo de un job
// nunca afecta a los demás. El subconjunto fallido se reintenta exactamente
// una vez al final del lote.
func (o *Orchestrator) Run(ctx context.Context, jobs []*domain.UploadJob, maxConcurrency int) *domain.BatchResult {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	result := &domain.BatchResult{
		Total: len(jobs),
		Jobs:  make([]domain.JobRecord, len(jobs)),
	}

	o.runPass(ctx, jobs, maxConcurrency, result, nil)

	// Segunda pasada: sólo el subconjunto fallido, un intento fresco por job
	var retryIdx []int
	for i, rec := range result.Jobs {
		if !rec.Success {
			retryIdx = append(retryIdx, i)
		}
	}
	if len(retryIdx) > 0 && ctx.Err() == nil {
		log.Printf("retrying %d failed jobs", len(retryIdx))
		o.runPass(ctx, jobs, maxConcurrency, result, retryIdx)
	}

	for _, rec := range result.Jobs {
		if rec.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	log.Printf("✓ batch done: %d/%d succeeded", result.Succeeded, result.Total)
	return result
}

// runPass ejecuta una pasada sobre los índices dados (nil = todos) con un
// gate de admisión por canal con buffer
func (o *Orchestrator) runPass(ctx context.Context, jobs []*domain.UploadJob, maxConcurrency int, result *domain.BatchResult, indices []int) {
	if indices == nil {
		indices = make([]int, len(jobs))
		for i := range jobs {
			indices[i] = i
		}
	}

	gate := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, idx := range indices {
		if ctx.Err() != nil {
			break
		}

		gate <- struct{}{}
		wg.Add(1)

		go func(i int) {
			defer wg.Done()
			defer func() { <-gate }()

			job := jobs[i]
			_, err := o.publisher.Upload(ctx, job)

			mu.Lock()
			defer mu.Unlock()

			rec := &result.Jobs[i]
			rec.JobID = job.ID
			rec.Attempts++
			rec.FinishedAt = time.Now()
			if err != nil {
				rec.Success = false
				rec.Error = err.Error()
				log.Printf("⚠ job %s failed: %v", job.ID, err)
			} else {
				rec.Success = true
				rec.Error = ""
			}
		}(idx)
	}

	wg.Wait()
}
