package accounts

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/smart-publish/internal/cookies"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/repository"
	"github.com/elsanchez/smart-publish/internal/session"
)

// view represents different screens in the TUI
type view int

const (
	viewList view = iota
	viewImport
	viewValidation
	viewHelp
)

// Model is the Bubbletea model for the account manager
type Model struct {
	// Navigation
	currentView view
	width       int
	height      int
	quitting    bool

	// Dependencies
	accountRepo repository.AccountRepository
	sessions    *session.Manager
	importer    *cookies.CookieImporter

	// State
	accounts  []*domain.Account
	platforms []string
	cursor    int

	// Components
	accountList   list.Model
	pathInput     textinput.Model
	platformInput textinput.Model
	browserInput  textinput.Model
	spinner       spinner.Model

	// Import state
	importFocusedField int

	// Validation state
	validationResults map[string]*validationResult

	// UI state
	loading       bool
	statusMessage string
	errorMessage  string
}

// NewModel creates a new account manager TUI model
func NewModel(accountRepo repository.AccountRepository, sessions *session.Manager, importer *cookies.CookieImporter) Model {
	// Create text inputs
	pathInput := textinput.New()
	pathInput.Placeholder = "Path to Netscape cookie file"
	pathInput.Focus()
	pathInput.CharLimit = 256
	pathInput.Width = 60

	platformInput := textinput.New()
	platformInput.Placeholder = "Platform (auto-detect if empty)"
	platformInput.CharLimit = 50
	platformInput.Width = 40

	browserInput := textinput.New()
	browserInput.Placeholder = "Browser to extract from (instead of file)"
	browserInput.CharLimit = 50
	browserInput.Width = 40

	// Create spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	// Create list
	accountList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	accountList.Title = "Publishing Accounts"
	accountList.SetShowStatusBar(false)
	accountList.SetFilteringEnabled(false)

	return Model{
		currentView:       viewList,
		accountRepo:       accountRepo,
		sessions:          sessions,
		importer:          importer,
		accountList:       accountList,
		pathInput:         pathInput,
		platformInput:     platformInput,
		browserInput:      browserInput,
		spinner:           s,
		validationResults: make(map[string]*validationResult),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadAccounts(m.accountRepo),
		loadPlatforms(m.accountRepo),
		m.spinner.Tick,
	)
}

// accountItem implements list.Item for the account list
type accountItem struct {
	account *domain.Account
}

func (i accountItem) Title() string {
	status := ""
	if i.account.Status == domain.AccountDisabled {
		status = "⏸ "
	}

	return status + i.account.Platform + "/" + i.account.AccountID
}

func (i accountItem) Description() string {
	return i.account.Nickname
}

func (i accountItem) FilterValue() string {
	return i.account.Platform + " " + i.account.AccountID + " " + i.account.Nickname
}
