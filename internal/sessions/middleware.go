package sessions

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKey = "session_id"

// Middleware assigns every visitor a session id cookie and exposes it via ID.
// The cookie is refreshed on each request so it lives ttl past the last visit.
func Middleware(cookieName string, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cookieName)
		if err != nil {
			id = ""
		}
		if _, perr := uuid.Parse(id); perr != nil {
			id = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, id, int(ttl/time.Second), "/", "", secure, true)
		c.Set(contextKey, id)
		c.Next()
	}
}

// ID returns the session id assigned by Middleware, or "".
func ID(c *gin.Context) string {
	return c.GetString(contextKey)
}
