package accounts

import "github.com/elsanchez/smart-publish/internal/domain"

// Message types for async operations

type accountsLoadedMsg struct {
	accounts []*domain.Account
	err      error
}

type platformsLoadedMsg struct {
	platforms []string
	err       error
}

type importCompleteMsg struct {
	account *domain.Account
	err     error
}

type validationCompleteMsg struct {
	results map[string]*validationResult
}

type validationResult struct {
	Key     string
	IsValid bool
	Message string
}

type statusToggledMsg struct {
	err error
}

type deleteCompleteMsg struct {
	err error
}

type errorMsg struct {
	err error
}
