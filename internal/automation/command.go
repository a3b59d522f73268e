package automation

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// CommandDriver talks to an external automation helper binary over a
// JSON-lines protocol on stdin/stdout. One helper process per session keeps
// browser state alive between calls; the helper owns the actual browser.
type CommandDriver struct {
	binPath string
	args    []string
}

// NewCommandDriver creates a driver that launches binPath for each session
func NewCommandDriver(binPath string, args ...string) *CommandDriver {
	return &CommandDriver{binPath: binPath, args: args}
}

// CheckInstalled verifica que el helper de automatización esté instalado
func (d *CommandDriver) CheckInstalled() error {
	if _, err := exec.LookPath(d.binPath); err != nil {
		return fmt.Errorf("automation helper not found: %s (install it or pass --automation-bin)", d.binPath)
	}
	return nil
}

// cmdRequest es una petición al proceso helper
type cmdRequest struct {
	Op        string `json:"op"`
	URL       string `json:"url,omitempty"`
	PageID    string `json:"page_id,omitempty"`
	Condition string `json:"condition,omitempty"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Target    string `json:"target,omitempty"`
	Text      string `json:"text,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	State     string `json:"state,omitempty"` // base64
}

// cmdResponse es una respuesta del proceso helper
type cmdResponse struct {
	OK     bool   `json:"ok"`
	Found  bool   `json:"found,omitempty"`
	PageID string `json:"page_id,omitempty"`
	Text   string `json:"text,omitempty"`
	State  string `json:"state,omitempty"` // base64
	Error  string `json:"error,omitempty"`
}

// NewSession arranca un proceso helper y restaura el estado si se provee
func (d *CommandDriver) NewSession(ctx context.Context, state []byte) (Session, error) {
	cmd := exec.Command(d.binPath, d.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("helper stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start automation helper: %w", err)
	}

	s := &commandSession{
		cmd:     cmd,
		encoder: json.NewEncoder(stdin),
		scanner: bufio.NewScanner(stdout),
	}
	s.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	req := cmdRequest{Op: "restore"}
	if state != nil {
		req.State = base64.StdEncoding.EncodeToString(state)
	}
	if _, err := s.roundTrip(ctx, req); err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("restore session: %w", err)
	}

	return s, nil
}

// commandSession es una sesión respaldada por un proceso helper
type commandSession struct {
	cmd     *exec.Cmd
	encoder *json.Encoder
	scanner *bufio.Scanner
	mu      sync.Mutex
	closed  bool
}

// roundTrip envía una petición y espera la respuesta correspondiente
func (s *commandSession) roundTrip(ctx context.Context, req cmdRequest) (*cmdResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session closed")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.encoder.Encode(req); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, fmt.Errorf("helper closed stream")
	}

	var resp cmdResponse
	if err := json.Unmarshal(s.scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !resp.OK {
		return nil, fmt.Errorf("helper error: %s", resp.Error)
	}

	return &resp, nil
}

// Open abre una URL y retorna un handle de página
func (s *commandSession) Open(ctx context.Context, url string) (Page, error) {
	resp, err := s.roundTrip(ctx, cmdRequest{Op: "open", URL: url})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}

	return &commandPage{session: s, pageID: resp.PageID}, nil
}

// CaptureState serializa el estado de sesión del helper
func (s *commandSession) CaptureState(ctx context.Context) ([]byte, error) {
	resp, err := s.roundTrip(ctx, cmdRequest{Op: "capture"})
	if err != nil {
		return nil, fmt.Errorf("capture state: %w", err)
	}

	blob, err := base64.StdEncoding.DecodeString(resp.State)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	return blob, nil
}

// Close termina el proceso helper
func (s *commandSession) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.encoder.Encode(cmdRequest{Op: "quit"})

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		s.cmd.Process.Kill()
		return fmt.Errorf("automation helper did not exit, killed")
	}
}

// commandPage es un handle de página del proceso helper
type commandPage struct {
	session *commandSession
	pageID  string
}

// WaitFor espera una condición; found=false cuando expira el timeout
func (p *commandPage) WaitFor(ctx context.Context, condition string, timeout time.Duration) (bool, error) {
	resp, err := p.session.roundTrip(ctx, cmdRequest{
		Op:        "wait_for",
		PageID:    p.pageID,
		Condition: condition,
		TimeoutMS: timeout.Milliseconds(),
	})
	if err != nil {
		return false, err
	}

	return resp.Found, nil
}

// ReadText lee el texto del primer elemento que matchea target
func (p *commandPage) ReadText(ctx context.Context, target string) (string, error) {
	resp, err := p.session.roundTrip(ctx, cmdRequest{Op: "read_text", PageID: p.pageID, Target: target})
	if err != nil {
		return "", err
	}

	return resp.Text, nil
}

// Interact ejecuta una acción sobre la página
func (p *commandPage) Interact(ctx context.Context, action Action) error {
	_, err := p.session.roundTrip(ctx, cmdRequest{
		Op:       "interact",
		PageID:   p.pageID,
		Kind:     string(action.Kind),
		Target:   action.Target,
		Text:     action.Text,
		FilePath: action.FilePath,
	})
	return err
}

// Close cierra la página en el helper
func (p *commandPage) Close(ctx context.Context) error {
	_, err := p.session.roundTrip(ctx, cmdRequest{Op: "close_page", PageID: p.pageID})
	return err
}
