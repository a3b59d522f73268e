package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
)

const (
	kuaishouUploadURL = "https://cp.kuaishou.com/article/publish/video"
	kuaishouManageURL = "https://cp.kuaishou.com/article/manage/video"

	kuaishouCondLoggedOut  = "locator=div.names div.container div.name:text('机构服务')"
	kuaishouCondEditor     = "locator=div._description_"
	kuaishouCondUploadDone = "locator=span:has-text('上传中') >> hidden"
	kuaishouCondUploadFail = "locator=div:has-text('上传失败')"
	kuaishouCondManageView = "url=article/manage/video"
	kuaishouCondProfile    = "locator=div.profile-area"

	kuaishouSelMediaInput = "input[type='file'][accept*='video']"
	kuaishouSelDescEditor = "div._description_"
	kuaishouSelCoverEdit  = "text=编辑封面"
	kuaishouSelCoverInput = "div.cover-upload input[type='file']"
	kuaishouSelCoverOK    = "button:has-text('确认')"
	kuaishouSelTimerRadio = "label:has-text('定时发布')"
	kuaishouSelTimerInput = "div.ant-picker-input input"
	kuaishouSelPublish    = "div[class^='footer'] button:has-text('发布')"

	kuaishouTextNickname  = "div.profile-area .name"
	kuaishouTextAccountID = "div.profile-area .id"
)

// Kuaishou drives the Kuaishou (快手) creator console
type Kuaishou struct{}

func NewKuaishou() *Kuaishou { return &Kuaishou{} }

func (k *Kuaishou) Name() string { return domain.PlatformKuaishou }

func (k *Kuaishou) Limits() Limits {
	return Limits{
		TitleMax:  50,
		TagMax:    20,
		MaxTags:   3,
		MediaExts: []string{".mp4", ".mov"},
		CoverExts: []string{".jpg", ".jpeg", ".png"},
	}
}

func (k *Kuaishou) ProbeURL() string  { return kuaishouUploadURL }
func (k *Kuaishou) LoginURL() string  { return kuaishouUploadURL }
func (k *Kuaishou) UploadURL() string { return kuaishouUploadURL }

func (k *Kuaishou) Probe(ctx context.Context, page automation.Page, timeout time.Duration) (*domain.ProfileInfo, bool, error) {
	loggedOut, err := page.WaitFor(ctx, kuaishouCondLoggedOut, timeout)
	if err != nil {
		return nil, false, err
	}
	if loggedOut {
		return nil, false, nil
	}

	ready, err := page.WaitFor(ctx, kuaishouCondProfile, timeout)
	if err != nil {
		return nil, false, err
	}
	if !ready {
		return nil, false, domain.ErrTimeout
	}

	profile := &domain.ProfileInfo{}
	if text, err := page.ReadText(ctx, kuaishouTextAccountID); err == nil {
		profile.AccountID = text
	}
	if text, err := page.ReadText(ctx, kuaishouTextNickname); err == nil {
		profile.Nickname = text
	}

	return profile, true, nil
}

func (k *Kuaishou) WaitLogin(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, kuaishouCondProfile, timeout)
}

func (k *Kuaishou) AttachMedia(ctx context.Context, page automation.Page, paths []string) error {
	for _, path := range paths {
		err := page.Interact(ctx, automation.Action{
			Kind:     automation.ActionUploadFile,
			Target:   kuaishouSelMediaInput,
			FilePath: path,
		})
		if err != nil {
			return fmt.Errorf("attach media %s: %w", path, err)
		}
	}

	ready, err := page.WaitFor(ctx, kuaishouCondEditor, 30*time.Second)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("post editor not reached: %w", domain.ErrTimeout)
	}

	return nil
}

func (k *Kuaishou) FillMetadata(ctx context.Context, page automation.Page, job *domain.UploadJob) error {
	err := page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: kuaishouSelDescEditor,
		Text:   job.Title,
	})
	if err != nil {
		return fmt.Errorf("fill title: %w", err)
	}

	for _, tag := range job.Tags {
		err := page.Interact(ctx, automation.Action{
			Kind:   automation.ActionType,
			Target: kuaishouSelDescEditor,
			Text:   " #" + tag,
		})
		if err != nil {
			return fmt.Errorf("fill tag %s: %w", tag, err)
		}
	}

	return nil
}

func (k *Kuaishou) SetCover(ctx context.Context, page automation.Page, coverPath string) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: kuaishouSelCoverEdit}); err != nil {
		return fmt.Errorf("open cover dialog: %w", err)
	}

	err := page.Interact(ctx, automation.Action{
		Kind:     automation.ActionUploadFile,
		Target:   kuaishouSelCoverInput,
		FilePath: coverPath,
	})
	if err != nil {
		return fmt.Errorf("upload cover: %w", err)
	}

	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: kuaishouSelCoverOK})
}

func (k *Kuaishou) SetSchedule(ctx context.Context, page automation.Page, at time.Time) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: kuaishouSelTimerRadio}); err != nil {
		return fmt.Errorf("select timer mode: %w", err)
	}

	err := page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: kuaishouSelTimerInput,
		Text:   at.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return fmt.Errorf("fill schedule time: %w", err)
	}

	return page.Interact(ctx, automation.Action{Kind: automation.ActionPress, Target: kuaishouSelTimerInput, Text: "Enter"})
}

func (k *Kuaishou) ConfirmUpload(ctx context.Context, page automation.Page) (UploadPhase, error) {
	failed, err := page.WaitFor(ctx, kuaishouCondUploadFail, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if failed {
		return PhaseFailed, nil
	}

	done, err := page.WaitFor(ctx, kuaishouCondUploadDone, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if done {
		return PhaseDone, nil
	}

	return PhaseProcessing, nil
}

func (k *Kuaishou) Publish(ctx context.Context, page automation.Page) error {
	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: kuaishouSelPublish})
}

func (k *Kuaishou) ConfirmPublished(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, kuaishouCondManageView, timeout)
}
