package domain

import "time"

// AccountStatus representa el estado de una cuenta
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountDisabled AccountStatus = "disabled"
)

// Account representa una identidad de creador en una plataforma
type Account struct {
	ID            int64
	Platform      string
	AccountID     string // id nativo de la plataforma, vacío hasta el primer probe exitoso
	Nickname      string
	FollowerCount int64
	VideoCount    int64
	Extra         map[string]string
	Status        AccountStatus
	LastUpdate    time.Time
	CreatedAt     time.Time
}

// Key retorna la clave única (platform, account_id)
func (a *Account) Key() string {
	return a.Platform + "/" + a.AccountID
}

// Platform constants para las plataformas soportadas
const (
	PlatformDouyin   = "douyin"
	PlatformTencent  = "tencent"
	PlatformKuaishou = "kuaishou"
	PlatformTikTok   = "tiktok"
)

// SupportedPlatforms retorna las plataformas soportadas
func SupportedPlatforms() []string {
	return []string{PlatformDouyin, PlatformTencent, PlatformKuaishou, PlatformTikTok}
}

// CookieRecord representa un artefacto de sesión persistido para una cuenta
type CookieRecord struct {
	ID        int64
	Platform  string
	AccountID string
	Path      string // handle opaco al blob de sesión
	IsValid   bool
	CreatedAt time.Time
	LastCheck time.Time
}

// ProfileInfo es el resultado de un probe exitoso
type ProfileInfo struct {
	AccountID     string
	Nickname      string
	FollowerCount int64
	VideoCount    int64
}
