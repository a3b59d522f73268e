package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elsanchez/smart-publish/internal/automation"
	"github.com/elsanchez/smart-publish/internal/domain"
)

func TestRegistryGet(t *testing.T) {
	registry := NewRegistry()

	for _, platform := range domain.SupportedPlatforms() {
		driver, err := registry.Get(platform)
		if err != nil {
			t.Fatalf("Get(%s) falló: %v", platform, err)
		}
		if driver.Name() != platform {
			t.Errorf("Name() = %s, esperado %s", driver.Name(), platform)
		}
	}

	if _, err := registry.Get("youtube"); err == nil {
		t.Error("se esperaba error para plataforma no soportada")
	}
}

func TestRegistryNames(t *testing.T) {
	registry := NewRegistry()
	names := registry.Names()

	if len(names) != len(domain.SupportedPlatforms()) {
		t.Errorf("Names() devolvió %d plataformas, esperado %d", len(names), len(domain.SupportedPlatforms()))
	}
}

func TestDriverLimits(t *testing.T) {
	tests := []struct {
		platform string
		titleMax int
		tagMax   int
	}{
		{domain.PlatformDouyin, 30, 20},
		{domain.PlatformTencent, 32, 20},
		{domain.PlatformKuaishou, 50, 20},
		{domain.PlatformTikTok, 2200, 30},
	}

	registry := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			driver, err := registry.Get(tt.platform)
			if err != nil {
				t.Fatalf("Get falló: %v", err)
			}

			limits := driver.Limits()
			if limits.TitleMax != tt.titleMax {
				t.Errorf("TitleMax = %d, esperado %d", limits.TitleMax, tt.titleMax)
			}
			if limits.TagMax != tt.tagMax {
				t.Errorf("TagMax = %d, esperado %d", limits.TagMax, tt.tagMax)
			}
			if limits.MaxTags <= 0 {
				t.Error("MaxTags debe ser positivo")
			}
			if len(limits.MediaExts) == 0 {
				t.Error("MediaExts no debe estar vacío")
			}
		})
	}
}

func TestDouyinProbeLoginPrompt(t *testing.T) {
	driver := NewDouyin()
	fake := automation.NewMemoryDriver()
	fake.Answer(douyinCondLoginPrompt, true)

	session, err := fake.NewSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewSession falló: %v", err)
	}
	page, err := session.Open(context.Background(), driver.ProbeURL())
	if err != nil {
		t.Fatalf("Open falló: %v", err)
	}

	_, valid, err := driver.Probe(context.Background(), page, time.Second)
	if err != nil {
		t.Fatalf("Probe falló: %v", err)
	}
	if valid {
		t.Error("el prompt de login debe marcar la sesión como inválida")
	}
}

func TestDouyinProbeAuthenticated(t *testing.T) {
	driver := NewDouyin()
	fake := automation.NewMemoryDriver()
	fake.Answer(douyinCondLoginPrompt, false)
	fake.Answer(douyinCondProfileReady, true)
	fake.SetText(douyinTextAccountID, "creator_99")
	fake.SetText(douyinTextNickname, "测试账号")
	fake.SetText(douyinTextFollowers, "1,234")
	fake.SetText(douyinTextVideos, "56")

	session, err := fake.NewSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewSession falló: %v", err)
	}
	page, err := session.Open(context.Background(), driver.ProbeURL())
	if err != nil {
		t.Fatalf("Open falló: %v", err)
	}

	profile, valid, err := driver.Probe(context.Background(), page, time.Second)
	if err != nil {
		t.Fatalf("Probe falló: %v", err)
	}
	if !valid {
		t.Fatal("la sesión debía ser válida")
	}
	if profile.AccountID != "creator_99" {
		t.Errorf("AccountID = %s, esperado creator_99", profile.AccountID)
	}
	if profile.FollowerCount != 1234 {
		t.Errorf("FollowerCount = %d, esperado 1234", profile.FollowerCount)
	}
	if profile.VideoCount != 56 {
		t.Errorf("VideoCount = %d, esperado 56", profile.VideoCount)
	}
}

func TestDouyinProbeUndecidable(t *testing.T) {
	driver := NewDouyin()
	fake := automation.NewMemoryDriver()
	// Ni prompt de login ni perfil visible

	session, err := fake.NewSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewSession falló: %v", err)
	}
	page, err := session.Open(context.Background(), driver.ProbeURL())
	if err != nil {
		t.Fatalf("Open falló: %v", err)
	}

	_, valid, err := driver.Probe(context.Background(), page, time.Second)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("se esperaba ErrTimeout, obtenido %v", err)
	}
	if valid {
		t.Error("una página indecidible nunca es válida")
	}
}

func TestTencentProbeLoggedOutMarker(t *testing.T) {
	driver := NewTencent()
	fake := automation.NewMemoryDriver()
	fake.Answer(tencentCondLoggedOut, true)

	session, err := fake.NewSession(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewSession falló: %v", err)
	}
	page, err := session.Open(context.Background(), driver.ProbeURL())
	if err != nil {
		t.Fatalf("Open falló: %v", err)
	}

	_, valid, err := driver.Probe(context.Background(), page, time.Second)
	if err != nil {
		t.Fatalf("Probe falló: %v", err)
	}
	if valid {
		t.Error("el marcador de home pública debe marcar la sesión como inválida")
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,234", 1234},
		{"56", 56},
		{" 789 ", 789},
		{"", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		if got := parseCount(tt.in); got != tt.want {
			t.Errorf("parseCount(%q) = %d, esperado %d", tt.in, got, tt.want)
		}
	}
}
