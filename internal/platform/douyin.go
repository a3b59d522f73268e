package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
)

// Conditions and targets for the Douyin creator console. The strings are
// opaque to the core; only the automation engine interprets them.
const (
	douyinProbeURL  = "https://creator.douyin.com/creator-micro/content/upload"
	douyinUploadURL = "https://creator.douyin.com/creator-micro/content/upload"
	douyinManageURL = "https://creator.douyin.com/creator-micro/content/manage"

	douyinCondLoginPrompt   = "text=扫码登录"
	douyinCondEditorReady   = "url=creator-micro/content/post/video"
	douyinCondUploadDone    = "locator=[class^='long-card'] div:has-text('重新上传')"
	douyinCondUploadFailed  = "locator=div.progress-div > div:has-text('上传失败')"
	douyinCondManageView    = "url=creator-micro/content/manage"
	douyinCondProfileReady  = "locator=#guide_home_fans"

	douyinSelMediaInput   = "div[class^='container'] input"
	douyinSelReupload     = "div.progress-div [class^='upload-btn-input']"
	douyinSelTitleInput   = "input[placeholder='填写作品标题，为作品获得更多流量']"
	douyinSelTagEditor    = ".zone-container"
	douyinSelCoverButton  = "text=选择封面"
	douyinSelCoverInput   = "div[class^='semi-upload upload'] input.semi-upload-hidden-input"
	douyinSelCoverConfirm = "div[class^='extractFooter'] button:has-text('完成')"
	douyinSelTimerRadio   = "[class^='radio']:has-text('定时发布')"
	douyinSelTimerInput   = ".semi-input[placeholder='日期和时间']"
	douyinSelPublish      = "button:has-text('发布')"

	douyinTextAccountID = "[class^='unique_id']"
	douyinTextNickname  = "[class^='name']"
	douyinTextFollowers = "#guide_home_fans .number"
	douyinTextVideos    = "#guide_home_works .number"
)

// Douyin drives the Douyin (抖音) creator console
type Douyin struct{}

// NewDouyin crea el driver de Douyin
func NewDouyin() *Douyin {
	return &Douyin{}
}

func (d *Douyin) Name() string { return domain.PlatformDouyin }

func (d *Douyin) Limits() Limits {
	return Limits{
		TitleMax:  30,
		TagMax:    20,
		MaxTags:   5,
		MediaExts: []string{".mp4", ".mov", ".avi"},
		CoverExts: []string{".jpg", ".jpeg", ".png"},
	}
}

func (d *Douyin) ProbeURL() string  { return douyinProbeURL }
func (d *Douyin) LoginURL() string  { return douyinProbeURL }
func (d *Douyin) UploadURL() string { return douyinUploadURL }

// Probe decides login state from the creator center: a visible QR login
// prompt means the session is gone; the profile widget means it is alive.
func (d *Douyin) Probe(ctx context.Context, page automation.Page, timeout time.Duration) (*domain.ProfileInfo, bool, error) {
	prompted, err := page.WaitFor(ctx, douyinCondLoginPrompt, timeout)
	if err != nil {
		return nil, false, err
	}
	if prompted {
		return nil, false, nil
	}

	ready, err := page.WaitFor(ctx, douyinCondProfileReady, timeout)
	if err != nil {
		return nil, false, err
	}
	if !ready {
		// Ni prompt de login ni perfil: página indecidible
		return nil, false, domain.ErrTimeout
	}

	profile := &domain.ProfileInfo{}
	if text, err := page.ReadText(ctx, douyinTextAccountID); err == nil {
		profile.AccountID = text
	}
	if text, err := page.ReadText(ctx, douyinTextNickname); err == nil {
		profile.Nickname = text
	}
	if text, err := page.ReadText(ctx, douyinTextFollowers); err == nil {
		profile.FollowerCount = parseCount(text)
	}
	if text, err := page.ReadText(ctx, douyinTextVideos); err == nil {
		profile.VideoCount = parseCount(text)
	}

	return profile, true, nil
}

// WaitLogin espera a que el usuario complete el login por QR
func (d *Douyin) WaitLogin(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, douyinCondProfileReady, timeout)
}

// AttachMedia selecciona los archivos de video en el file chooser
func (d *Douyin) AttachMedia(ctx context.Context, page automation.Page, paths []string) error {
	for _, path := range paths {
		err := page.Interact(ctx, automation.Action{
			Kind:     automation.ActionUploadFile,
			Target:   douyinSelMediaInput,
			FilePath: path,
		})
		if err != nil {
			return fmt.Errorf("attach media %s: %w", path, err)
		}
	}

	// Esperar a que aparezca el editor de publicación
	ready, err := page.WaitFor(ctx, douyinCondEditorReady, 30*time.Second)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("post editor not reached: %w", domain.ErrTimeout)
	}

	return nil
}

// FillMetadata escribe título, tags y menciones
func (d *Douyin) FillMetadata(ctx context.Context, page automation.Page, job *domain.UploadJob) error {
	err := page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: douyinSelTitleInput,
		Text:   job.Title,
	})
	if err != nil {
		return fmt.Errorf("fill title: %w", err)
	}

	for _, tag := range job.Tags {
		err := page.Interact(ctx, automation.Action{
			Kind:   automation.ActionType,
			Target: douyinSelTagEditor,
			Text:   "#" + tag + " ",
		})
		if err != nil {
			return fmt.Errorf("fill tag %s: %w", tag, err)
		}
	}

	for _, mention := range job.Mentions {
		err := page.Interact(ctx, automation.Action{
			Kind:   automation.ActionType,
			Target: douyinSelTagEditor,
			Text:   "@" + mention + " ",
		})
		if err != nil {
			return fmt.Errorf("fill mention %s: %w", mention, err)
		}
	}

	return nil
}

// SetCover sube la imagen de portada
func (d *Douyin) SetCover(ctx context.Context, page automation.Page, coverPath string) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: douyinSelCoverButton}); err != nil {
		return fmt.Errorf("open cover dialog: %w", err)
	}

	err := page.Interact(ctx, automation.Action{
		Kind:     automation.ActionUploadFile,
		Target:   douyinSelCoverInput,
		FilePath: coverPath,
	})
	if err != nil {
		return fmt.Errorf("upload cover: %w", err)
	}

	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: douyinSelCoverConfirm})
}

// SetSchedule activa la publicación programada y escribe la fecha
func (d *Douyin) SetSchedule(ctx context.Context, page automation.Page, at time.Time) error {
	if err := page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: douyinSelTimerRadio}); err != nil {
		return fmt.Errorf("select timer mode: %w", err)
	}

	err := page.Interact(ctx, automation.Action{
		Kind:   automation.ActionType,
		Target: douyinSelTimerInput,
		Text:   at.Format("2006-01-02 15:04"),
	})
	if err != nil {
		return fmt.Errorf("fill schedule time: %w", err)
	}

	return page.Interact(ctx, automation.Action{Kind: automation.ActionPress, Target: douyinSelTimerInput, Text: "Enter"})
}

// ConfirmUpload muestrea el progreso: banner de error, marcador de fin, o
// sigue procesando
func (d *Douyin) ConfirmUpload(ctx context.Context, page automation.Page) (UploadPhase, error) {
	failed, err := page.WaitFor(ctx, douyinCondUploadFailed, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if failed {
		return PhaseFailed, nil
	}

	done, err := page.WaitFor(ctx, douyinCondUploadDone, 2*time.Second)
	if err != nil {
		return PhaseProcessing, err
	}
	if done {
		return PhaseDone, nil
	}

	return PhaseProcessing, nil
}

// Publish hace click en el botón de publicar
func (d *Douyin) Publish(ctx context.Context, page automation.Page) error {
	return page.Interact(ctx, automation.Action{Kind: automation.ActionClick, Target: douyinSelPublish})
}

// ConfirmPublished espera la navegación a la vista de gestión de contenido
func (d *Douyin) ConfirmPublished(ctx context.Context, page automation.Page, timeout time.Duration) (bool, error) {
	return page.WaitFor(ctx, douyinCondManageView, timeout)
}
