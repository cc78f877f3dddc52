package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const internalErrorPage = `<!DOCTYPE html>
<html><head><title>Something went wrong</title></head>
<body><h1>Something went wrong</h1><p><a href="/">Back to the front desk</a></p></body></html>`

// Recovery handles panics and logs them appropriately
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("client_ip", c.ClientIP()).
					Str("request_id", c.GetString(ContextRequestID)).
					Msg("Request panic recovered")

				c.Abort()
				c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(internalErrorPage))
			}
		}()
		c.Next()
	}
}
