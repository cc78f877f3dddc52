package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKey = "session_id"

// Middleware makes sure every request carries a session id cookie.
func Middleware(cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cookieName)
		if err == nil {
			_, err = uuid.Parse(sid)
		}
		if err != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, sid, 0, "/", "", secure, true)
		}
		c.Set(contextKey, sid)
		c.Next()
	}
}

// ID returns the session id Middleware assigned, or "".
func ID(c *gin.Context) string {
	return c.GetString(contextKey)
}
