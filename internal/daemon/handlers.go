package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elsanchez/smart-publish/internal/batch"
	"github.com/elsanchez/smart-publish/internal/cookies"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/repository"
	"github.com/elsanchez/smart-publish/internal/schedule"
	"github.com/elsanchez/smart-publish/internal/session"
)

// Handlers maneja las peticiones del servidor
type Handlers struct {
	accountRepo  repository.AccountRepository
	sessions     *session.Manager
	orchestrator *batch.Orchestrator
	importer     *cookies.CookieImporter

	maxConcurrency int

	mu      sync.Mutex
	batches map[string]*batchStatus
}

type batchStatus struct {
	Running bool
	Result  *domain.BatchResult
}

// NewHandlers crea un nuevo conjunto de handlers
func NewHandlers(
	accountRepo repository.AccountRepository,
	sessions *session.Manager,
	orchestrator *batch.Orchestrator,
	importer *cookies.CookieImporter,
	maxConcurrency int,
) *Handlers {
	if maxConcurrency < 1 {
		maxConcurrency = 2
	}
	return &Handlers{
		accountRepo:    accountRepo,
		sessions:       sessions,
		orchestrator:   orchestrator,
		importer:       importer,
		maxConcurrency: maxConcurrency,
		batches:        make(map[string]*batchStatus),
	}
}

// PostPayload es el payload para encolar un lote de publicaciones
type PostPayload struct {
	Platform  string   `json:"platform"`
	AccountID string   `json:"account_id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Mentions  []string `json:"mentions,omitempty"`
	Videos    []string `json:"videos"`
	CoverPath string   `json:"cover_path,omitempty"`

	// Programación: 0 = inmediato, 1 = distribuir en días
	PublishType int   `json:"publish_type"`
	ItemsPerDay int   `json:"items_per_day,omitempty"`
	DailyTimes  []int `json:"daily_times,omitempty"`
	StartDays   int   `json:"start_days,omitempty"`

	MaxConcurrency int `json:"max_concurrency,omitempty"`
}

// HandlePost arma el lote, genera los horarios y lo lanza en segundo plano
func (h *Handlers) HandlePost(ctx context.Context, payload json.RawMessage) Response {
	var req PostPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	if len(req.Videos) == 0 {
		return Response{Success: false, Error: "videos is required"}
	}

	acc, err := h.accountRepo.GetByPlatformID(ctx, req.Platform, req.AccountID)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("account: %v", err)}
	}

	// Horarios de publicación para lotes programados
	var slots []time.Time
	if req.PublishType == 1 {
		itemsPerDay := req.ItemsPerDay
		if itemsPerDay == 0 {
			itemsPerDay = 1
		}
		slots, err = schedule.Generate(time.Now(), len(req.Videos), itemsPerDay, req.DailyTimes, req.StartDays)
		if err != nil {
			return Response{Success: false, Error: fmt.Sprintf("schedule: %v", err)}
		}
	}

	jobs := make([]*domain.UploadJob, len(req.Videos))
	for i, video := range req.Videos {
		job := &domain.UploadJob{
			ID:         uuid.NewString(),
			Title:      req.Title,
			Tags:       req.Tags,
			Mentions:   req.Mentions,
			MediaPaths: []string{video},
			CoverPath:  req.CoverPath,
			Account:    acc,
		}
		if slots != nil {
			job.PublishAt = slots[i]
		}
		jobs[i] = job
	}

	concurrency := req.MaxConcurrency
	if concurrency == 0 {
		concurrency = h.maxConcurrency
	}

	batchID := uuid.NewString()
	h.mu.Lock()
	h.batches[batchID] = &batchStatus{Running: true}
	h.mu.Unlock()

	// El lote corre en segundo plano; la conexión no espera horas de subidas
	go func() {
		result := h.orchestrator.Run(context.Background(), jobs, concurrency)
		h.mu.Lock()
		h.batches[batchID] = &batchStatus{Running: false, Result: result}
		h.mu.Unlock()
	}()

	jobIDs := make([]string, len(jobs))
	for i, job := range jobs {
		jobIDs[i] = job.ID
	}

	data, _ := json.Marshal(map[string]interface{}{
		"batch_id": batchID,
		"jobs":     jobIDs,
		"total":    len(jobs),
	})
	return Response{Success: true, Data: data}
}

// StatusPayload es el payload para consultar un lote
type StatusPayload struct {
	BatchID string `json:"batch_id"`
}

// HandleStatus maneja la consulta de estado de un lote
func (h *Handlers) HandleStatus(ctx context.Context, payload json.RawMessage) Response {
	var req StatusPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}
	if req.BatchID == "" {
		return Response{Success: false, Error: "batch_id is required"}
	}

	h.mu.Lock()
	status, ok := h.batches[req.BatchID]
	h.mu.Unlock()

	if !ok {
		return Response{Success: false, Error: fmt.Sprintf("unknown batch: %s", req.BatchID)}
	}

	body := map[string]interface{}{"running": status.Running}
	if status.Result != nil {
		body["result"] = status.Result
	}

	data, _ := json.Marshal(body)
	return Response{Success: true, Data: data}
}

// AccountsPayload es el payload para listar cuentas
type AccountsPayload struct {
	Platform string `json:"platform,omitempty"`
}

// HandleAccounts maneja el listado de cuentas
func (h *Handlers) HandleAccounts(ctx context.Context, payload json.RawMessage) Response {
	var req AccountsPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
		}
	}

	accounts, err := h.accountRepo.GetAll(ctx, req.Platform)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("get accounts: %v", err)}
	}

	items := make([]map[string]interface{}, 0, len(accounts))
	for _, acc := range accounts {
		items = append(items, map[string]interface{}{
			"platform":       acc.Platform,
			"account_id":     acc.AccountID,
			"nickname":       acc.Nickname,
			"follower_count": acc.FollowerCount,
			"video_count":    acc.VideoCount,
			"status":         acc.Status,
			"last_update":    acc.LastUpdate,
		})
	}

	data, _ := json.Marshal(map[string]interface{}{
		"accounts": items,
		"count":    len(items),
	})
	return Response{Success: true, Data: data}
}

// ValidatePayload es el payload para validar la sesión de una cuenta
type ValidatePayload struct {
	Platform  string `json:"platform"`
	AccountID string `json:"account_id"`
	Force     bool   `json:"force,omitempty"`
}

// HandleValidate maneja la validación de sesión
func (h *Handlers) HandleValidate(ctx context.Context, payload json.RawMessage) Response {
	var req ValidatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	acc, err := h.accountRepo.GetByPlatformID(ctx, req.Platform, req.AccountID)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("account: %v", err)}
	}

	valid, err := h.sessions.Validate(ctx, acc, req.Force)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("validate: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"platform":   acc.Platform,
		"account_id": acc.AccountID,
		"valid":      valid,
	})
	return Response{Success: true, Data: data}
}

// LoginPayload es el payload para registrar una cuenta nueva
type LoginPayload struct {
	Platform string `json:"platform"`
}

// HandleLogin maneja el login interactivo de una cuenta nueva
func (h *Handlers) HandleLogin(ctx context.Context, payload json.RawMessage) Response {
	var req LoginPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}
	if req.Platform == "" {
		return Response{Success: false, Error: "platform is required"}
	}

	acc, err := h.sessions.Login(ctx, req.Platform)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("login: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"platform":   acc.Platform,
		"account_id": acc.AccountID,
		"nickname":   acc.Nickname,
	})
	return Response{Success: true, Data: data}
}

// ImportPayload es el payload para importar cookies existentes
type ImportPayload struct {
	FilePath string `json:"file_path,omitempty"`
	Browser  string `json:"browser,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// HandleImport maneja la importación de un login de navegador
func (h *Handlers) HandleImport(ctx context.Context, payload json.RawMessage) Response {
	var req ImportPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("invalid payload: %v", err)}
	}

	acc, err := h.importer.Import(ctx, cookies.ImportOptions{
		FilePath: req.FilePath,
		Browser:  req.Browser,
		Platform: req.Platform,
	})
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("import: %v", err)}
	}

	data, _ := json.Marshal(map[string]interface{}{
		"platform":   acc.Platform,
		"account_id": acc.AccountID,
		"nickname":   acc.Nickname,
	})
	return Response{Success: true, Data: data}
}
