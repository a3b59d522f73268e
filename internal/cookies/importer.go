package cookies

import (
	"context"
	"fmt"
	"os"

	"github.com/elsanchez/smart-publish/internal/domain"
	"github.com/elsanchez/smart-publish/internal/repository"
	"github.com/elsanchez/smart-publish/internal/session"
)

// ImportOptions contains options for importing an existing browser login
type ImportOptions struct {
	FilePath string // Netscape cookie file; empty when extracting from a browser
	Browser  string // browser to extract from; empty when importing a file
	Platform string // auto-detected from cookie domains when empty
}

// CookieImporter converts an existing browser login into a platform session:
// parse or extract the cookies, probe the platform to resolve the identity,
// then persist account and session blob.
type CookieImporter struct {
	parser      *CookieParser
	extractor   *BrowserExtractor
	validator   *session.Validator
	sessions    *session.Manager
	accountRepo repository.AccountRepository
}

// NewCookieImporter creates a new cookie importer
func NewCookieImporter(validator *session.Validator, sessions *session.Manager, accountRepo repository.AccountRepository) *CookieImporter {
	return &CookieImporter{
		parser:      NewCookieParser(),
		extractor:   NewBrowserExtractor(),
		validator:   validator,
		sessions:    sessions,
		accountRepo: accountRepo,
	}
}

// Import runs the import workflow and returns the resulting account
func (i *CookieImporter) Import(ctx context.Context, opts ImportOptions) (*domain.Account, error) {
	cookies, err := i.collect(opts)
	if err != nil {
		return nil, err
	}

	// Auto-detect platform if not provided
	platform := opts.Platform
	if platform == "" {
		platform = i.parser.DetectPlatform(cookies)
		if platform == "" {
			return nil, fmt.Errorf("could not auto-detect platform, please specify one")
		}
	}

	blob, err := ToSessionBlob(cookies)
	if err != nil {
		return nil, err
	}

	// Probe the platform to prove the login works and learn the identity
	result, err := i.validator.Validate(ctx, blob, platform, "")
	if err != nil {
		return nil, fmt.Errorf("validate imported session: %w", err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("imported cookies are not authenticated on %s: %w", platform, domain.ErrSessionExpired)
	}
	if result.Profile == nil || result.Profile.AccountID == "" {
		return nil, fmt.Errorf("could not resolve account identity on %s", platform)
	}

	acc := &domain.Account{
		Platform:      platform,
		AccountID:     result.Profile.AccountID,
		Nickname:      result.Profile.Nickname,
		FollowerCount: result.Profile.FollowerCount,
		VideoCount:    result.Profile.VideoCount,
		Status:        domain.AccountActive,
	}
	if _, err := i.accountRepo.Upsert(ctx, acc); err != nil {
		return nil, fmt.Errorf("persist account: %w", err)
	}

	if err := i.sessions.PersistSession(ctx, acc, blob); err != nil {
		return nil, err
	}

	return acc, nil
}

// collect obtains cookies from a file or straight from a browser profile
func (i *CookieImporter) collect(opts ImportOptions) ([]NetscapeCookie, error) {
	if opts.FilePath != "" {
		if _, err := os.Stat(opts.FilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cookie file not found: %s", opts.FilePath)
		}
		cookies, err := i.parser.ParseFile(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("parse cookie file: %w", err)
		}
		return cookies, nil
	}

	if opts.Browser != "" {
		cookies, err := i.extractor.Extract(ExtractOptions{
			Browser: opts.Browser,
			Domain:  PlatformDomain(opts.Platform),
		})
		if err != nil {
			return nil, fmt.Errorf("extract browser cookies: %w", err)
		}
		return cookies, nil
	}

	return nil, fmt.Errorf("either a cookie file or a browser must be given")
}
