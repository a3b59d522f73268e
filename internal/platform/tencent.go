package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
)

const (
	tencentPostURL   = "https://channels.weixin.qq.com/platform/post/create"
	tencentManageURL = "https://channels.weixin.qq.com/platform/post/list"

	// El marcador de "微信小店" aparece en la home pública; su presencia en la
	// página de creación significa que la sesión ya no está autenticada.
	tencentCondLoggedOut   = "locator=div.title-name:has-text('微信小店')"
	tencentCondEditorReady = "locator=div.post-edit-wrap"
	tencentCondUploadDone  = "locator=div.post-edit-wrap div:has-text('删除')"
	tencentCondUploadFail  = "locator=div.status-msg.error"
	tencentCondManageView  = "url=platform/post/list"
	tencentCondProfile     = "locator=.finder-info-container"

	tencentSelMediaInput   = "input[type='file'][accept*='video']"
	tencentSelReupload     = "div.media-opr input[type='file']"
	tencentSelTitleInput   = "div.input-editor"
	tencentSelDescEditor   = ".input-editor"
	tencentSelCoverButton  = "text=更换封面"
	tencentSelCoverInput   = "div.single-cover-uploader-wrap input[type='file']"
	tencentSelCoverConfirm = "div.cover-set-footer button:has-text('确认')"
	tencentSelTimerLabel   = "label:has-text('定时')"
	tencentSelTimerInput   = "input[placeholder='请选择发表时间']"
	tencentSelPublish      = "div.form-btns button:has-text('发表')"

	tencentTextNickname  = ".finder-nickname"
	tencentTextAccountID = ".finder-uniq-id"
	tencentTextFollowers = ".finder-info-num"
)

// Tencent drives the WeChat Channels (视频号) console
type Tencent struct{}

func NewTencent() *Tencent { return &Tencent{} }

func (t *Tencent) Name() string { return domain.PlatformTencent }

func (t *Tencent) Limits() Limits {
	return Limits{
		TitleMax:  32,
		TagMax:    20,
		MaxTags:   10,
		MediaExts: []string{".mp4", ".mov"},
		CoverExts: []string{".jpg", ".jpeg", ".png"},
	}
}

func (t *Tencent) ProbeURL() string  { return tencentPostURL }
func (t *Tencent) LoginURL() string  { return tencentPostURL }
func (t *Tencent) UploadURL() string { return tencentPostURL }

func (t *Tencent) Probe(ctx context.Context, page automation.Page, timeout time.Duration) (*domain.ProfileInfo, bool, error) {
	loggedOut, err := page.WaitFor(ctx, tencentCondLoggedOut, timeout)
	if err != nil {
		return nil, false, err
	}
	if loggedOut {
		return nil, false, nil
	}

	ready, err := page.WaitFor(ctx, tencentCondProfile, timeout)
	if err != nil {
		return nil, false, err
	}
	if !ready {
		return nil, false, domain.ErrTimeout
	}

	profile := &domain.ProfileInfo{}
	if text, err := page.ReadText(ctx, tencentTextAccountID); err == nil {
		profile.AccountID = text
	}
	if text, err := page.ReadText(ctx, tencentTextNickname); err == nil {
		profile.Nickname = text
	}
	if text, err := page.ReadText(ctx, tencentTextFollowers); err == nil {
		profile.FollowerCount = parseCount(text)
	}

	return profile, true, nil
}

func (t *Tencent) WaitLogin(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, tencentCondProfile, timeout)
}

func (t *Tencent) AttachMedia(ctx context.Context, page automation.Page, paths []string) error {
	for _, path := range paths {
		err := page.Interact(ctx, automation.Action{
			Kind:     automation.ActionUploadFile,
			Target:   tencentSelMediaInput,
			FilePath: path,
		})
		if err != nil {
			return fmt.Errorf("attach media %s: %w", path, err)
		}
	}

	ready, err := page.WaitFor(ctx, tencentCondEditorReady, 30*time.Second)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("post editor not reached: %w", domain.ErrTimeout)
	}

	return nil
}

func (t *Tencent) FillMetadata(ctx context.Context, page automation.Page, job *domain.UploadJob) error {
	err := page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: tencentSelTitleInput,
		Text:   job.Title,
	})
	if err != nil {
		return fmt.Errorf("fill title: %w", err)
	}

	for _, tag := range job.Tags {
		err := page.Interact(ctx, automation.Action{
			Kind:   automation.ActionType,
			Target: tencentSelDescEditor,
			Text:   "#" + tag + " ",
		})
		if err != nil {
			return fmt.Errorf("fill tag %s: %w", tag, err)
		}
	}

	for _, mention := range job.Mentions {
		err := page.Interact(ctx, automation.Action{
			Kind:   automation.ActionType,
			Target: tencentSelDescEditor,
			Text:   "@" + mention + " ",
		})
		if err != nil {
			return fmt.Errorf("fill mention %s: %w", mention, err)
		}
	}

	return nil
}

func (t *Tencent) SetCover(ctx context.Context, page automation.Page, coverPath string) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tencentSelCoverButton}); err != nil {
		return fmt.Errorf("open cover dialog: %w", err)
	}

	err := page.Interact(ctx, automation.Action{
		Kind:     automation.ActionUploadFile,
		Target:   tencentSelCoverInput,
		FilePath: coverPath,
	})
	if err != nil {
		return fmt.Errorf("upload cover: %w", err)
	}

	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tencentSelCoverConfirm})
}

func (t *Tencent) SetSchedule(ctx context.Context, page automation.Page, at time.Time) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tencentSelTimerLabel}); err != nil {
		return fmt.Errorf("select timer mode: %w", err)
	}

	return page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: tencentSelTimerInput,
		Text:   at.Format("2006-01-02 15:04"),
	})
}

func (t *Tencent) ConfirmUpload(ctx context.Context, page automation.Page) (UploadPhase, error) {
	failed, err := page.WaitFor(ctx, tencentCondUploadFail, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if failed {
		return PhaseFailed, nil
	}

	done, err := page.WaitFor(ctx, tencentCondUploadDone, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if done {
		return PhaseDone, nil
	}

	return PhaseProcessing, nil
}

func (t *Tencent) Publish(ctx context.Context, page automation.Page) error {
	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: tencentSelPublish})
}

func (t *Tencent) ConfirmPublished(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, tencentCondManageView, timeout)
}
