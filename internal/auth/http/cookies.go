package http

import (
	"net/http"
	"time"

	"github.com/ledgerdash/ledgerdash/internal/auth/domain"
)

// Session cookie names. Both are httpOnly; JS never sees tokens.
const (
	accessCookieName  = "ld_access"
	refreshCookieName = "ld_refresh"
)

// CookieConfig carries the per-environment cookie attributes.
type CookieConfig struct {
	Domain string
	Secure bool
}

// setSessionCookies writes the access and refresh tokens as httpOnly
// SameSite=Lax cookies, each expiring when its token does.
func setSessionCookies(w http.ResponseWriter, s domain.Session, cfg CookieConfig) {
	now := time.Now()
	setCookie(w, accessCookieName, s.AccessToken, s.AccessExpiresAt.Sub(now), cfg)
	setCookie(w, refreshCookieName, s.RefreshToken, s.RefreshExpiresAt.Sub(now), cfg)
}

// clearSessionCookies expires both cookies unconditionally.
func clearSessionCookies(w http.ResponseWriter, cfg CookieConfig) {
	setCookie(w, accessCookieName, "", -time.Second, cfg)
	setCookie(w, refreshCookieName, "", -time.Second, cfg)
}

func setCookie(w http.ResponseWriter, name, value string, ttl time.Duration, cfg CookieConfig) {
	maxAge := int(ttl.Seconds())
	if value == "" || maxAge < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshTokenFromRequest pulls the refresh token from the request body if
// present, falling back to the httpOnly cookie.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}
	return ""
}
