package automation

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryDriver is a scripted in-memory engine used by tests and by dry runs.
// Conditions are answered from a script instead of a real browser; every
// session, page and interaction is recorded so callers can assert on them.
type MemoryDriver struct {
	mu sync.Mutex

	// Script
	Found        map[string]bool   // WaitFor answers by condition
	FoundSeq     map[string][]bool // consumed before Found, one per call
	Texts        map[string]string // ReadText answers by target
	State        []byte            // returned by CaptureState
	NewSessionErr error
	WaitErr      error
	InteractErr  error
	CaptureErr   error

	// Recording
	SessionsOpened int
	PagesOpened    []string
	Actions        []Action
	WaitCalls      []string
}

// NewMemoryDriver crea un driver scripteado vacío
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		Found:    make(map[string]bool),
		FoundSeq: make(map[string][]bool),
		Texts:    make(map[string]string),
		State:    []byte(`{"cookies":[]}`),
	}
}

// NewSession abre una sesión en memoria
func (d *MemoryDriver) NewSession(ctx context.Context, state []byte) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.NewSessionErr != nil {
		return nil, d.NewSessionErr
	}

	d.SessionsOpened++
	return &memorySession{driver: d, restored: state}, nil
}

// Answer programa la respuesta fija de una condición
func (d *MemoryDriver) Answer(condition string, found bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Found[condition] = found
}

// SetText programa el texto devuelto por ReadText para un target
func (d *MemoryDriver) SetText(target, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Texts[target] = text
}

// AnswerSeq programa respuestas consecutivas para una condición
func (d *MemoryDriver) AnswerSeq(condition string, answers ...bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.FoundSeq[condition] = append(d.FoundSeq[condition], answers...)
}

// ActionCount cuenta las acciones grabadas de un tipo contra un target
func (d *MemoryDriver) ActionCount(kind ActionKind, target string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	count := 0
	for _, a := range d.Actions {
		if a.Kind == kind && (target == "" || a.Target == target) {
			count++
		}
	}
	return count
}

type memorySession struct {
	driver   *MemoryDriver
	restored []byte
}

func (s *memorySession) Open(ctx context.Context, url string) (Page, error) {
	s.driver.mu.Lock()
	defer s.driver.mu.Unlock()

	s.driver.PagesOpened = append(s.driver.PagesOpened, url)
	return &memoryPage{driver: s.driver, url: url}, nil
}

func (s *memorySession) CaptureState(ctx context.Context) ([]byte, error) {
	s.driver.mu.Lock()
	defer s.driver.mu.Unlock()

	if s.driver.CaptureErr != nil {
		return nil, s.driver.CaptureErr
	}
	return s.driver.State, nil
}

func (s *memorySession) Close(ctx context.Context) error {
	return nil
}

type memoryPage struct {
	driver *MemoryDriver
	url    string
}

func (p *memoryPage) WaitFor(ctx context.Context, condition string, timeout time.Duration) (bool, error) {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.driver.WaitErr != nil {
		return false, p.driver.WaitErr
	}

	p.driver.WaitCalls = append(p.driver.WaitCalls, condition)

	if seq, ok := p.driver.FoundSeq[condition]; ok && len(seq) > 0 {
		answer := seq[0]
		p.driver.FoundSeq[condition] = seq[1:]
		return answer, nil
	}

	return p.driver.Found[condition], nil
}

func (p *memoryPage) ReadText(ctx context.Context, target string) (string, error) {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()

	text, ok := p.driver.Texts[target]
	if !ok {
		return "", fmt.Errorf("no text scripted for target: %s", target)
	}
	return text, nil
}

func (p *memoryPage) Interact(ctx context.Context, action Action) error {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()

	if p.driver.InteractErr != nil {
		return p.driver.InteractErr
	}

	p.driver.Actions = append(p.driver.Actions, action)
	return nil
}

func (p *memoryPage) Close(ctx context.Context) error {
	return nil
}
