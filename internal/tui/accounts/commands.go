package accounts

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/smart-publish/internal/cookies"
	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/repository"
	"github.com/elsanchez/smart-publish/internal/session"
)

// Async commands that return tea.Msg

func loadAccounts(repo repository.AccountRepository) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		accounts, err := repo.GetAll(ctx, "")
		if err != nil {
			return accountsLoadedMsg{err: err}
		}

		return accountsLoadedMsg{accounts: accounts}
	}
}

func loadPlatforms(repo repository.AccountRepository) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		platforms, err := repo.ListPlatforms(ctx)
		return platformsLoadedMsg{platforms: platforms, err: err}
	}
}

func importCookies(importer *cookies.CookieImporter, opts cookies.ImportOptions) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		account, err := importer.Import(ctx, opts)
		return importCompleteMsg{account: account, err: err}
	}
}

func validateAccounts(sessions *session.Manager, accounts []*domain.Account, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		results := make(map[string]*validationResult)

		for _, acc := range accounts {
			valid, err := sessions.Validate(ctx, acc, force)
			if err != nil {
				results[acc.Key()] = &validationResult{
					Key:     acc.Key(),
					IsValid: false,
					Message: err.Error(),
				}
				continue
			}

			message := "session alive"
			if !valid {
				message = "session expired, login required"
			}
			results[acc.Key()] = &validationResult{
				Key:     acc.Key(),
				IsValid: valid,
				Message: message,
			}
		}

		return validationCompleteMsg{results: results}
	}
}

func toggleStatus(repo repository.AccountRepository, acc *domain.Account) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		status := domain.AccountDisabled
		if acc.Status == domain.AccountDisabled {
			status = domain.AccountActive
		}

		err := repo.SetStatus(ctx, acc.Platform, acc.AccountID, status)
		return statusToggledMsg{err: err}
	}
}

func deleteAccount(repo repository.AccountRepository, acc *domain.Account) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		err := repo.Delete(ctx, acc.Platform, acc.AccountID)
		return deleteCompleteMsg{err: err}
	}
}
