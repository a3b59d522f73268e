package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
)

const (
	tiktokUploadURL = "https://www.tiktok.com/tiktokstudio/upload?from=creator_center"
	tiktokManageURL = "https://www.tiktok.com/tiktokstudio/content"

	tiktokCondLoginPage  = "url=tiktok.com/login"
	tiktokCondEditor     = "locator=div.caption-editor"
	tiktokCondUploadDone = "locator=div.upload-card:has-text('Uploaded')"
	tiktokCondUploadFail = "locator=div.upload-card:has-text('Failed')"
	tiktokCondManageView = "url=tiktokstudio/content"
	tiktokCondAvatar     = "locator=[data-e2e='nav-avatar']"

	tiktokSelMediaInput = "input[type='file'][accept*='video']"
	tiktokSelCaption    = "div.caption-editor [contenteditable='true']"
	tiktokSelCoverBtn   = "div.cover-container"
	tiktokSelCoverInput = "div.cover-edit input[type='file']"
	tiktokSelCoverOK    = "button:has-text('Confirm')"
	tiktokSelTimerRadio = "label:has-text('Schedule')"
	tiktokSelTimerInput = "input[data-e2e='schedule-input']"
	tiktokSelPublish    = "button[data-e2e='post-button']"

	tiktokTextAccountID = "[data-e2e='nav-username']"
	tiktokTextNickname  = "[data-e2e='nav-nickname']"
)

// TikTok drives TikTok Studio
type TikTok struct{}

func NewTikTok() *TikTok { return &TikTok{} }

func (t *TikTok) Name() string { return domain.PlatformTikTok }

func (t *TikTok) Limits() Limits {
	return Limits{
		TitleMax:  2200,
		TagMax:    30,
		MaxTags:   20,
		MediaExts: []string{".mp4", ".mov", ".avi"},
		CoverExts: []string{".jpg", ".jpeg", ".png"},
	}
}

func (t *TikTok) ProbeURL() string  { return tiktokUploadURL }
func (t *TikTok) LoginURL() string  { return tiktokUploadURL }
func (t *TikTok) UploadURL() string { return tiktokUploadURL }

func (t *TikTok) Probe(ctx context.Context, page automation.Page, timeout time.Duration) (*domain.ProfileInfo, bool, error) {
	redirected, err := page.WaitFor(ctx, tiktokCondLoginPage, timeout)
	if err != nil {
		return nil, false, err
	}
	if redirected {
		return nil, false, nil
	}

	ready, err := page.WaitFor(ctx, tiktokCondAvatar, timeout)
	if err != nil {
		return nil, false, err
	}
	if !ready {
		return nil, false, domain.ErrTimeout
	}

	profile := &domain.ProfileInfo{}
	if text, err := page.ReadText(ctx, tiktokTextAccountID); err == nil {
		profile.AccountID = text
	}
	if text, err := page.ReadText(ctx, tiktokTextNickname); err == nil {
		profile.Nickname = text
	}

	return profile, true, nil
}

func (t *TikTok) WaitLogin(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, tiktokCondAvatar, timeout)
}

func (t *TikTok) AttachMedia(ctx context.Context, page automation.Page, paths []string) error {
	for _, path := range paths {
		err := page.Interact(ctx, automation.Action{
			Kind:     automation.ActionUploadFile,
			Target:   tiktokSelMediaInput,
			FilePath: path,
		})
		if err != nil {
			return fmt.Errorf("attach media %s: %w", path, err)
		}
	}

	ready, err := page.WaitFor(ctx, tiktokCondEditor, 30*time.Second)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("post editor not reached: %w", domain.ErrTimeout)
	}

	return nil
}

func (t *TikTok) FillMetadata(ctx context.Context, page automation.Page, job *domain.UploadJob) error {
	caption := job.Title
	for _, tag := range job.Tags {
		caption += " #" + tag
	}
	for _, mention := range job.Mentions {
		caption += " @" + mention
	}

	err := page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: tiktokSelCaption,
		Text:   caption,
	})
	if err != nil {
		return fmt.Errorf("fill caption: %w", err)
	}

	return nil
}

func (t *TikTok) SetCover(ctx context.Context, page automation.Page, coverPath string) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tiktokSelCoverBtn}); err != nil {
		return fmt.Errorf("open cover dialog: %w", err)
	}

	err := page.Interact(ctx, automation.Action{
		Kind:     automation.ActionUploadFile,
		Target:   tiktokSelCoverInput,
		FilePath: coverPath,
	})
	if err != nil {
		return fmt.Errorf("upload cover: %w", err)
	}

	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tiktokSelCoverOK})
}

func (t *TikTok) SetSchedule(ctx context.Context, page automation.Page, at time.Time) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tiktokSelTimerRadio}); err != nil {
		return fmt.Errorf("select timer mode: %w", err)
	}

	return page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: tiktokSelTimerInput,
		Text:   at.Format("2006-01-02 15:04"),
	})
}

func (t *TikTok) ConfirmUpload(ctx context.Context, page automation.Page) (UploadPhase, error) {
	failed, err := page.WaitFor(ctx, tiktokCondUploadFail, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if failed {
		return PhaseFailed, nil
	}

	done, err := page.WaitFor(ctx, tiktokCondUploadDone, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if done {
		return PhaseDone, nil
	}

	return PhaseProcessing, nil
}

func (t *TikTok) Publish(ctx context.Context, page automation.Page) error {
	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tiktokSelPublish})
}

func (t *TikTok) ConfirmPublished(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, tiktokCondManageView, timeout)
}
