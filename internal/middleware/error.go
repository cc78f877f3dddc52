package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/frontdesk/pkg/errors"
)

// ErrorLogger logs the errors handlers attached with c.Error. Handlers have
// already answered the request; this only records why.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			kind := errors.KindOf(e.Err)
			event := log.Debug()
			if kind == errors.KindPersistence {
				event = log.Error()
			}
			event.
				Err(e.Err).
				Str("kind", kind.String()).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}
	}
}
