package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookieName is the cookie carrying the encoded session token.
const SessionCookieName = "sparkboard_session"

// SessionCookies signs and encrypts the session token stored in the browser cookie.
type SessionCookies struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewSessionCookies builds a cookie codec. hashKey authenticates the value and
// blockKey, when non-empty, encrypts it. Cookies older than maxAge fail to decode.
func NewSessionCookies(hashKey, blockKey []byte, maxAge time.Duration, secure bool) *SessionCookies {
	if len(blockKey) == 0 {
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	if maxAge > 0 {
		codec.MaxAge(int(maxAge.Seconds()))
	}
	return &SessionCookies{codec: codec, secure: secure}
}

// Set writes the token cookie expiring with the session.
func (c *SessionCookies) Set(w http.ResponseWriter, token string, expires time.Time) error {
	if c == nil {
		return nil
	}
	encoded, err := c.codec.Encode(SessionCookieName, token)
	if err != nil {
		return err
	}
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
	return nil
}

// Clear expires the token cookie.
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	secure := c != nil && c.secure
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token decodes the session token from the request cookie.
func (c *SessionCookies) Token(r *http.Request) (string, bool) {
	if c == nil || r == nil {
		return "", false
	}
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	var token string
	if err := c.codec.Decode(SessionCookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	return token, token != ""
}

// extractToken prefers an Authorization bearer header over the cookie.
func extractToken(r *http.Request, cookies *SessionCookies) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	token, _ := cookies.Token(r)
	return token
}
