package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Auth cookie names
const (
	CookieAccess  = "access"
	CookieRefresh = "refresh"
	CookieSession = "session"
)

// CookieWriter sets and clears the auth cookies with consistent attributes.
// All three cookies are httpOnly with SameSite=Strict; Secure is on outside
// development. The refresh and session cookies live twice as long as the
// refresh token itself, so an expired token still reaches the refresh
// endpoint and gets its session entry revoked there.
type CookieWriter struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieWriter creates the cookie transport
func NewCookieWriter(secure bool, accessTTL, refreshTTL time.Duration) *CookieWriter {
	return &CookieWriter{
		secure:     secure,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (w *CookieWriter) set(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", w.secure, true)
}

// SetAccess writes the access cookie
func (w *CookieWriter) SetAccess(c *gin.Context, token string) {
	w.set(c, CookieAccess, token, w.accessTTL)
}

// SetRefresh writes the refresh and session cookies for one device session
func (w *CookieWriter) SetRefresh(c *gin.Context, token, sessionID string) {
	w.set(c, CookieRefresh, token, 2*w.refreshTTL)
	w.set(c, CookieSession, sessionID, 2*w.refreshTTL)
}

// ClearAll expires all three auth cookies
func (w *CookieWriter) ClearAll(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieAccess, "", -1, "/", "", w.secure, true)
	c.SetCookie(CookieRefresh, "", -1, "/", "", w.secure, true)
	c.SetCookie(CookieSession, "", -1, "/", "", w.secure, true)
}
