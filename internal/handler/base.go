package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/frontdesk/internal/session"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

// BaseHandler carries what every page handler needs: flash messages and
// the translation of service errors into something a person can read.
type BaseHandler struct {
	Flashes session.Store
}

func NewBaseHandler(flashes session.Store) *BaseHandler {
	return &BaseHandler{Flashes: flashes}
}

// Render shows the named view with any pending flash messages.
func (h *BaseHandler) Render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Flashes"] = h.pop(c)
	c.HTML(status, name, data)
}

func (h *BaseHandler) pop(c *gin.Context) []session.Message {
	sid := session.ID(c)
	if sid == "" || h.Flashes == nil {
		return nil
	}
	msgs, err := h.Flashes.Pop(c.Request.Context(), sid)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to read flash messages")
		return nil
	}
	return msgs
}

// Flash queues a message for the next rendered page.
func (h *BaseHandler) Flash(c *gin.Context, category session.Category, text string) {
	sid := session.ID(c)
	if sid == "" || h.Flashes == nil {
		return
	}
	if err := h.Flashes.Push(c.Request.Context(), sid, session.Message{Category: category, Text: text}); err != nil {
		log.Ctx(c.Request.Context()).Warn().Err(err).Msg("failed to store flash message")
	}
}

// Succeed flashes text and redirects to target.
func (h *BaseHandler) Succeed(c *gin.Context, text, target string) {
	h.Flash(c, session.CategorySuccess, text)
	c.Redirect(http.StatusSeeOther, target)
}

// Fail flashes err's message and redirects to target. Store failures are
// shown with their generic message; the cause only reaches the log.
func (h *BaseHandler) Fail(c *gin.Context, err error, target string) {
	_ = c.Error(err)
	h.Flash(c, session.CategoryError, errors.Message(err))
	c.Redirect(http.StatusSeeOther, target)
}

// RenderError answers a page request that could not be served: 404 for
// unknown records, 500 otherwise.
func (h *BaseHandler) RenderError(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, errors.KindNotFound) {
		h.Render(c, http.StatusNotFound, "error.html", "Not found", gin.H{"Message": errors.Message(err)})
		return
	}
	h.Render(c, http.StatusInternalServerError, "error.html", "Something went wrong", gin.H{"Message": errors.Message(err)})
}

// ParseID reads a uuid path parameter. A malformed id names no record, so
// it is reported as not found.
func ParseID(c *gin.Context, param, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, errors.NotFound(resource, err)
	}
	return id, nil
}

// Home shows the landing page.
func (h *BaseHandler) Home(c *gin.Context) {
	h.Render(c, http.StatusOK, "home.html", "Home", nil)
}
