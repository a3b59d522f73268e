package cookies

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/elsanchez/smart-publish/internal/domain"
)

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write cookie file: %v", err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	content := "# Netscape HTTP Cookie File\n" +
		".douyin.com\tTRUE\t/\tTRUE\t1893456000\tsessionid\tabc123\n" +
		".douyin.com\tTRUE\t/\tFALSE\t1893456000\tttwid\t\"quoted\"\n"

	parser := NewCookieParser()
	cookies, err := parser.ParseFile(writeCookieFile(t, content))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != "sessionid" || cookies[0].Value != "abc123" {
		t.Errorf("unexpected first cookie: %+v", cookies[0])
	}
	if !cookies[0].Secure {
		t.Error("first cookie should be secure")
	}
	if cookies[1].Value != "quoted" {
		t.Errorf("quotes should be stripped, got %q", cookies[1].Value)
	}
}

func TestParseFileInvalidFormat(t *testing.T) {
	parser := NewCookieParser()

	if _, err := parser.ParseFile(writeCookieFile(t, "not a cookie line\n")); err == nil {
		t.Error("expected error for malformed line")
	}
	if _, err := parser.ParseFile(writeCookieFile(t, "# only comments\n")); err == nil {
		t.Error("expected error for file without cookies")
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{".douyin.com", domain.PlatformDouyin},
		{".channels.weixin.qq.com", domain.PlatformTencent},
		{".kuaishou.com", domain.PlatformKuaishou},
		{".tiktok.com", domain.PlatformTikTok},
		{".example.com", ""},
	}

	parser := NewCookieParser()
	for _, tt := range tests {
		cookies := []NetscapeCookie{{Domain: tt.domain, Name: "x", Value: "y"}}
		if got := parser.DetectPlatform(cookies); got != tt.want {
			t.Errorf("DetectPlatform(%s) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestToSessionBlob(t *testing.T) {
	cookies := []NetscapeCookie{
		{Domain: ".douyin.com", Flag: "TRUE", Path: "/", Secure: true, Expiration: 1893456000, Name: "sessionid", Value: "abc"},
	}

	blob, err := ToSessionBlob(cookies)
	if err != nil {
		t.Fatalf("ToSessionBlob failed: %v", err)
	}

	var state struct {
		Cookies []struct {
			Name     string `json:"name"`
			Domain   string `json:"domain"`
			HTTPOnly bool   `json:"httpOnly"`
		} `json:"cookies"`
	}
	if err := json.Unmarshal(blob, &state); err != nil {
		t.Fatalf("blob is not valid JSON: %v", err)
	}
	if len(state.Cookies) != 1 || state.Cookies[0].Name != "sessionid" {
		t.Errorf("unexpected blob content: %s", blob)
	}
	if !state.Cookies[0].HTTPOnly {
		t.Error("TRUE flag should map to httpOnly")
	}
}

func TestPlatformDomain(t *testing.T) {
	for _, p := range domain.SupportedPlatforms() {
		if PlatformDomain(p) == "" {
			t.Errorf("PlatformDomain(%s) must not be empty", p)
		}
	}
	if PlatformDomain("youtube") != "" {
		t.Error("unknown platform must map to empty domain")
	}
}
