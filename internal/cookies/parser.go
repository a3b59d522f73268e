package cookies

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// NetscapeCookie represents a single cookie from Netscape format
type NetscapeCookie struct {
	Domain     string
	Flag       string
	Path       string
	Secure     bool
	Expiration int64 // Unix timestamp
	Name       string
	Value      string
}

// CookieParser handles parsing of Netscape cookie format files
type CookieParser struct{}

// NewCookieParser creates a new cookie parser
func NewCookieParser() *CookieParser {
	return &CookieParser{}
}

// ParseFile parses a Netscape format cookie file
// Format: domain	flag	path	secure	expiration	name	value
func (p *CookieParser) ParseFile(path string) ([]NetscapeCookie, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer file.Close()

	var cookies []NetscapeCookie
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		// Parse tab-separated values
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			// Try space-separated as fallback
			fields = strings.Fields(line)
			if len(fields) < 7 {
				return nil, fmt.Errorf("line %d: invalid format (expected 7 fields, got %d)", lineNum, len(fields))
			}
		}

		// Parse expiration timestamp
		expiration, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid expiration timestamp: %w", lineNum, err)
		}

		// Parse secure flag
		secure := strings.ToUpper(fields[3]) == "TRUE"

		// Clean cookie value - remove surrounding quotes if present
		value := fields[6]
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = strings.Trim(value, "\"")
		}

		cookie := NetscapeCookie{
			Domain:     fields[0],
			Flag:       fields[1],
			Path:       fields[2],
			Secure:     secure,
			Expiration: expiration,
			Name:       fields[5],
			Value:      value,
		}

		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	if len(cookies) == 0 {
		return nil, fmt.Errorf("no valid cookies found in file")
	}

	return cookies, nil
}

// FindEarliestExpiration returns the earliest expiration time from a list of cookies
func (p *CookieParser) FindEarliestExpiration(cookies []NetscapeCookie) time.Time {
	if len(cookies) == 0 {
		return time.Time{}
	}

	earliest := cookies[0].Expiration
	for _, cookie := range cookies[1:] {
		if cookie.Expiration < earliest {
			earliest = cookie.Expiration
		}
	}

	return time.Unix(earliest, 0)
}

// platformDomains maps cookie domains to supported platforms
var platformDomains = map[string]string{
	"douyin.com":              domain.PlatformDouyin,
	"creator.douyin.com":      domain.PlatformDouyin,
	"weixin.qq.com":           domain.PlatformTencent,
	"channels.weixin.qq.com":  domain.PlatformTencent,
	"qq.com":                  domain.PlatformTencent,
	"kuaishou.com":            domain.PlatformKuaishou,
	"cp.kuaishou.com":         domain.PlatformKuaishou,
	"tiktok.com":              domain.PlatformTikTok,
}

// PlatformDomain returns the primary cookie domain for a platform
func PlatformDomain(platform string) string {
	switch platform {
	case domain.PlatformDouyin:
		return "douyin.com"
	case domain.PlatformTencent:
		return "weixin.qq.com"
	case domain.PlatformKuaishou:
		return "kuaishou.com"
	case domain.PlatformTikTok:
		return "tiktok.com"
	}
	return ""
}

// DetectPlatform attempts to detect the platform from cookie domains
func (p *CookieParser) DetectPlatform(cookies []NetscapeCookie) string {
	if len(cookies) == 0 {
		return ""
	}

	// Count domain occurrences
	domainCounts := make(map[string]int)
	for _, cookie := range cookies {
		d := strings.TrimPrefix(cookie.Domain, ".")
		domainCounts[d]++
	}

	// Find most common matching domain
	maxCount := 0
	detectedPlatform := ""

	for d, count := range domainCounts {
		if platform, ok := platformDomains[d]; ok {
			if count > maxCount {
				maxCount = count
				detectedPlatform = platform
			}
		}
	}

	return detectedPlatform
}

// GetDomains returns a list of unique domains in the cookies
func (p *CookieParser) GetDomains(cookies []NetscapeCookie) []string {
	domainSet := make(map[string]bool)
	for _, cookie := range cookies {
		d := strings.TrimPrefix(cookie.Domain, ".")
		domainSet[d] = true
	}

	domains := make([]string, 0, len(domainSet))
	for d := range domainSet {
		domains = append(domains, d)
	}

	return domains
}

// sessionCookie is the wire shape the automation engine restores
type sessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

type sessionState struct {
	Cookies []sessionCookie `json:"cookies"`
}

// ToSessionBlob converts parsed cookies into a session state blob the
// automation engine can restore
func ToSessionBlob(cookies []NetscapeCookie) ([]byte, error) {
	state := sessionState{Cookies: make([]sessionCookie, 0, len(cookies))}

	for _, c := range cookies {
		state.Cookies = append(state.Cookies, sessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expiration),
			HTTPOnly: strings.ToUpper(c.Flag) == "TRUE",
			Secure:   c.Secure,
		})
	}

	blob, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return blob, nil
}
