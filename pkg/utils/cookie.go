package utils

import (
	"net/http"
	"time"

	"bip-api/pkg/constants"
)

// NewSessionCookie собирает cookie access_token. В production cookie уходит
// только по HTTPS и с SameSite=None, иначе Secure=false и SameSite=Lax.
func NewSessionCookie(token string, ttl time.Duration, production bool) *http.Cookie {
	cookie := sessionCookieBase(production)
	cookie.Value = token
	cookie.MaxAge = int(ttl.Seconds())
	cookie.Expires = time.Now().Add(ttl)
	return cookie
}

// ClearSessionCookie - та же cookie с пустым значением и MaxAge<0.
func ClearSessionCookie(production bool) *http.Cookie {
	cookie := sessionCookieBase(production)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

func sessionCookieBase(production bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     constants.AccessTokenCookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}
	if production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
