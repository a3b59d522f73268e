package client

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// GetDefaultSocketPath retorna el path del socket usando XDG_RUNTIME_DIR
// Desktop Linux con systemd siempre tiene esta variable
func GetDefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		// Fallback: construir con UID (aunque no debería ocurrir en desktop Linux moderno)
		uid := os.Getuid()
		runtimeDir = fmt.Sprintf("/run/user/%d", uid)
	}

	return filepath.Join(runtimeDir, "smart-publish.sock")
}

// Client representa un cliente del daemon
type Client struct {
	socketPath string
}

// NewClient crea un cliente con socket path personalizado
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// NewDefaultClient crea un cliente con el socket path por defecto
func NewDefaultClient() *Client {
	return &Client{socketPath: GetDefaultSocketPath()}
}

// Request representa una petición al daemon
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Response representa una respuesta del daemon
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Send envía una petición al daemon y retorna la respuesta
func (c *Client) Send(req *Request) (*Response, error) {
	// Conectar al socket
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is daemon running?)", err)
	}
	defer conn.Close()

	// Enviar request
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	// Leer response
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}

// PostPayload representa el payload para encolar un lote de publicaciones
type PostPayload struct {
	Platform  string   `json:"platform"`
	AccountID string   `json:"account_id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	Mentions  []string `json:"mentions,omitempty"`
	Videos    []string `json:"videos"`
	CoverPath string   `json:"cover_path,omitempty"`

	PublishType int   `json:"publish_type"`
	ItemsPerDay int   `json:"items_per_day,omitempty"`
	DailyTimes  []int `json:"daily_times,omitempty"`
	StartDays   int   `json:"start_days,omitempty"`

	MaxConcurrency int `json:"max_concurrency,omitempty"`
}

// PostBatch encola un lote de publicaciones y retorna el id del lote
func (c *Client) PostBatch(payload *PostPayload) (string, []string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := c.Send(&Request{
		Action:  "post",
		Payload: payloadJSON,
	})
	if err != nil {
		return "", nil, err
	}

	if !resp.Success {
		return "", nil, fmt.Errorf("post failed: %s", resp.Error)
	}

	var result struct {
		BatchID string   `json:"batch_id"`
		Jobs    []string `json:"jobs"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return "", nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return result.BatchID, result.Jobs, nil
}

// BatchStatus es el estado de un lote en curso o terminado
type BatchStatus struct {
	Running bool            `json:"running"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// GetBatchStatus consulta el estado de un lote
func (c *Client) GetBatchStatus(batchID string) (*BatchStatus, error) {
	payload, _ := json.Marshal(map[string]string{"batch_id": batchID})

	resp, err := c.Send(&Request{
		Action:  "status",
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("get status failed: %s", resp.Error)
	}

	var status BatchStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &status, nil
}

// AccountInfo es la vista de una cuenta que devuelve el daemon
type AccountInfo struct {
	Platform      string    `json:"platform"`
	AccountID     string    `json:"account_id"`
	Nickname      string    `json:"nickname"`
	FollowerCount int64     `json:"follower_count"`
	VideoCount    int64     `json:"video_count"`
	Status        string    `json:"status"`
	LastUpdate    time.Time `json:"last_update"`
}

// ListAccounts lista las cuentas registradas, opcionalmente por plataforma
func (c *Client) ListAccounts(platform string) ([]AccountInfo, error) {
	payload, _ := json.Marshal(map[string]string{"platform": platform})

	resp, err := c.Send(&Request{
		Action:  "accounts",
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("accounts failed: %s", resp.Error)
	}

	var result struct {
		Accounts []AccountInfo `json:"accounts"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return result.Accounts, nil
}

// ValidateAccount valida la sesión de una cuenta
func (c *Client) ValidateAccount(platform, accountID string, force bool) (bool, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"platform":   platform,
		"account_id": accountID,
		"force":      force,
	})

	resp, err := c.Send(&Request{
		Action:  "validate",
		Payload: payload,
	})
	if err != nil {
		return false, err
	}

	if !resp.Success {
		return false, fmt.Errorf("validate failed: %s", resp.Error)
	}

	var result struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return false, fmt.Errorf("unmarshal response: %w", err)
	}

	return result.Valid, nil
}

// Login abre un login interactivo para registrar una cuenta nueva
func (c *Client) Login(platform string) (*AccountInfo, error) {
	payload, _ := json.Marshal(map[string]string{"platform": platform})

	resp, err := c.Send(&Request{
		Action:  "login",
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("login failed: %s", resp.Error)
	}

	var acc AccountInfo
	if err := json.Unmarshal(resp.Data, &acc); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &acc, nil
}

// ImportCookies importa un login existente desde un archivo o navegador
func (c *Client) ImportCookies(filePath, browser, platform string) (*AccountInfo, error) {
	payload, _ := json.Marshal(map[string]string{
		"file_path": filePath,
		"browser":   browser,
		"platform":  platform,
	})

	resp, err := c.Send(&Request{
		Action:  "import",
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, fmt.Errorf("import failed: %s", resp.Error)
	}

	var acc AccountInfo
	if err := json.Unmarshal(resp.Data, &acc); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &acc, nil
}

// Ping comprueba que el daemon responde
func (c *Client) Ping() error {
	resp, err := c.Send(&Request{Action: "ping", Payload: json.RawMessage(`{}`)})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("ping failed: %s", resp.Error)
	}
	return nil
}
